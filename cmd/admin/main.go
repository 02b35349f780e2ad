// Command wordrush-admin runs operator tasks against the wordrush
// database: migrations, word catalog imports and token re-issuance.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
