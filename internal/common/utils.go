package common

import (
	"crypto/rand"
	"math/big"
)

// MakeRandString picks n characters uniformly from alphabet using crypto/rand.
func MakeRandString(n int, alphabet string) (string, error) {
	max := big.NewInt(int64(len(alphabet)))
	out := make([]byte, n)
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		out[i] = alphabet[idx.Int64()]
	}
	return string(out), nil
}

// MakeResetToken returns a fresh password-reset token.
func MakeResetToken() (string, error) {
	return MakeRandString(ResetTokenLength, ResetTokenAlphabet)
}
