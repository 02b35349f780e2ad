package models

import (
	"fmt"
	"time"
)

// TokenPurpose separates the namespaces of single-use tokens.
type TokenPurpose string

const (
	PurposeAccountValidation TokenPurpose = "account_validation"
	PurposePasswordReset     TokenPurpose = "password_reset"
)

// ParseTokenPurpose accepts the stored names plus the short forms used by
// the admin CLI.
func ParseTokenPurpose(s string) (TokenPurpose, error) {
	switch s {
	case string(PurposeAccountValidation), "validation":
		return PurposeAccountValidation, nil
	case string(PurposePasswordReset), "reset":
		return PurposePasswordReset, nil
	}
	return "", fmt.Errorf("unknown token purpose %q", s)
}

// Token is a single-use secret bound to an email and a purpose. It is
// deleted when consumed.
type Token struct {
	ID        string
	Value     string
	Email     string
	Purpose   TokenPurpose
	CreatedAt time.Time
}
