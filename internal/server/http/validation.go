package http

import (
	"fmt"
	"net/mail"
	"regexp"
	"unicode/utf8"

	"github.com/dmitrijs2005/wordrush/internal/common"
)

var (
	alphanumeric = regexp.MustCompile(`^[A-Za-z0-9]+$`)
	hasLetter    = regexp.MustCompile(`[A-Za-z]`)
	hasDigit     = regexp.MustCompile(`[0-9]`)
)

func invalid(field, reason string) error {
	return fmt.Errorf("%w: %s %s", common.ErrorValidation, field, reason)
}

func validateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return invalid("email", "is not a valid address")
	}
	return nil
}

// validatePassword accepts 8 to 30 letters and digits with at least one
// of each.
func validatePassword(field, password string) error {
	if l := len(password); l < 8 || l > 30 {
		return invalid(field, "must be 8 to 30 characters")
	}
	if !alphanumeric.MatchString(password) || !hasLetter.MatchString(password) || !hasDigit.MatchString(password) {
		return invalid(field, "must mix letters and digits only")
	}
	return nil
}

func validateName(field, name string) error {
	if l := utf8.RuneCountInString(name); l < 2 || l > 50 {
		return invalid(field, "must be 2 to 50 characters")
	}
	if !hasLetter.MatchString(name) {
		return invalid(field, "must contain a letter")
	}
	return nil
}

func validateResetToken(token string) error {
	if len(token) != common.ResetTokenLength || !alphanumeric.MatchString(token) {
		return invalid("token", fmt.Sprintf("must be %d letters or digits", common.ResetTokenLength))
	}
	return nil
}

func validateConfirmation(password, confirmation string) error {
	if password != confirmation {
		return invalid("passwordConfirmation", "does not match")
	}
	return nil
}

type registerRequest struct {
	Name                 string `json:"name"`
	LastName             string `json:"lastName"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

func (r registerRequest) validate() error {
	for _, err := range []error{
		validateName("name", r.Name),
		validateName("lastName", r.LastName),
		validateEmail(r.Email),
		validatePassword("password", r.Password),
		validateConfirmation(r.Password, r.PasswordConfirmation),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (r loginRequest) validate() error {
	if err := validateEmail(r.Email); err != nil {
		return err
	}
	if r.Password == "" {
		return invalid("password", "is required")
	}
	return nil
}

type resetTokenRequest struct {
	Email string `json:"email"`
}

func (r resetTokenRequest) validate() error {
	return validateEmail(r.Email)
}

type resetPasswordRequest struct {
	Email                string `json:"email"`
	Token                string `json:"token"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"passwordConfirmation"`
}

func (r resetPasswordRequest) validate() error {
	for _, err := range []error{
		validateEmail(r.Email),
		validateResetToken(r.Token),
		validatePassword("password", r.Password),
		validateConfirmation(r.Password, r.PasswordConfirmation),
	} {
		if err != nil {
			return err
		}
	}
	return nil
}
