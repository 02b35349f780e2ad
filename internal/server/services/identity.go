// Package services contains server-side business logic. IdentityService
// drives the account lifecycle (registration, email validation, login and
// password reset); LevelService infers reading levels from game history.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/common"
	"github.com/dmitrijs2005/wordrush/internal/logging"
	"github.com/dmitrijs2005/wordrush/internal/server/auth"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
	"github.com/dmitrijs2005/wordrush/internal/server/notify"
	"github.com/dmitrijs2005/wordrush/internal/server/repositories/tokens"
	"github.com/dmitrijs2005/wordrush/internal/server/repositories/users"
	"github.com/samber/oops"
)

// dummyPassword is hashed once at startup so that logins for unknown
// emails still pay for a full verify.
const dummyPassword = "wordrush-dummy-password-1"

// RegisterInput carries an already validated registration request.
type RegisterInput struct {
	Name     string
	LastName string
	Email    string
	Password string
}

// LoginResult is the outcome of a login attempt. Every failure has the
// same shape: Success false and the other fields zero.
type LoginResult struct {
	Success     bool
	AccessToken string
	ExpiresAt   time.Time
}

// IdentityDeps groups the collaborators of IdentityService.
type IdentityDeps struct {
	Users      users.Repository
	Tokens     tokens.Repository
	Hasher     auth.PasswordHasher
	Sessions   *auth.Issuer
	Validation *auth.Issuer
	Sender     notify.Sender
	Composer   *notify.Composer
	Logger     logging.Logger

	// TokenMaxAge rejects stored tokens older than this. Zero disables it.
	TokenMaxAge time.Duration
	Now         func() time.Time
}

type IdentityService struct {
	users       users.Repository
	tokens      tokens.Repository
	hasher      auth.PasswordHasher
	sessions    *auth.Issuer
	validation  *auth.Issuer
	sender      notify.Sender
	composer    *notify.Composer
	logger      logging.Logger
	tokenMaxAge time.Duration
	now         func() time.Time
	dummyHash   string
}

func NewIdentityService(d IdentityDeps) (*IdentityService, error) {
	if d.Users == nil || d.Tokens == nil || d.Hasher == nil || d.Sessions == nil ||
		d.Validation == nil || d.Sender == nil || d.Composer == nil {
		return nil, errors.New("identity service: missing dependency")
	}

	dummy, err := d.Hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("identity service: %w", err)
	}

	s := &IdentityService{
		users:       d.Users,
		tokens:      d.Tokens,
		hasher:      d.Hasher,
		sessions:    d.Sessions,
		validation:  d.Validation,
		sender:      d.Sender,
		composer:    d.Composer,
		logger:      d.Logger,
		tokenMaxAge: d.TokenMaxAge,
		now:         d.Now,
		dummyHash:   dummy,
	}
	if s.logger == nil {
		s.logger = logging.Nop{}
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.logger = s.logger.With("module", "identity")
	return s, nil
}

// Register creates an unvalidated account, or overwrites the profile of
// one that was never validated, and sends a validation link. A validated
// account yields common.ErrorAlreadyRegistered and is left untouched.
//
// The account and token are persisted before the message is sent; a send
// failure is returned but does not undo them.
func (s *IdentityService) Register(ctx context.Context, in RegisterInput) error {
	existing, err := s.users.GetByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, common.ErrorNotFound) {
		return oops.Code("IDENTITY_REGISTER_FAILED").With("email", in.Email).Wrap(err)
	}
	if existing != nil && existing.Validated {
		return common.ErrorAlreadyRegistered
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return oops.Code("IDENTITY_REGISTER_FAILED").With("email", in.Email).Wrap(err)
	}

	user := &models.User{
		Email:        in.Email,
		Name:         in.Name,
		LastName:     in.LastName,
		PasswordHash: hash,
	}

	if existing == nil {
		err = s.users.Create(ctx, user)
	} else {
		err = s.overwrite(ctx, user)
	}
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyRegistered) {
			return common.ErrorAlreadyRegistered
		}
		return oops.Code("IDENTITY_REGISTER_FAILED").With("email", in.Email).Wrap(err)
	}

	return s.sendValidation(ctx, user)
}

// overwrite replaces the profile of an unvalidated account. The store only
// matches unvalidated rows, so an account validated since it was read is
// reported as common.ErrorAlreadyRegistered.
func (s *IdentityService) overwrite(ctx context.Context, user *models.User) error {
	err := s.users.UpdateProfile(ctx, user)
	if !errors.Is(err, common.ErrorNotFound) {
		return err
	}

	current, getErr := s.users.GetByEmail(ctx, user.Email)
	switch {
	case getErr == nil && current.Validated:
		return common.ErrorAlreadyRegistered
	case errors.Is(getErr, common.ErrorNotFound):
		return s.users.Create(ctx, user)
	case getErr != nil:
		return getErr
	}
	return err
}

func (s *IdentityService) sendValidation(ctx context.Context, user *models.User) error {
	value, _, err := s.validation.Issue(user.Email)
	if err != nil {
		return oops.Code("IDENTITY_TOKEN_FAILED").With("email", user.Email).Wrap(err)
	}

	token := &models.Token{Value: value, Email: user.Email, Purpose: models.PurposeAccountValidation}
	if err := s.tokens.Create(ctx, token); err != nil {
		return oops.Code("IDENTITY_TOKEN_FAILED").With("email", user.Email).Wrap(err)
	}

	msg, err := s.composer.ValidationMessage(user.Email, user.Name, value)
	if err != nil {
		return oops.Code("IDENTITY_NOTIFY_FAILED").With("email", user.Email).Wrap(err)
	}
	return s.dispatch(ctx, msg)
}

func (s *IdentityService) dispatch(ctx context.Context, msg notify.Message) error {
	if err := s.sender.Send(ctx, msg); err != nil {
		return oops.Code("IDENTITY_NOTIFY_FAILED").With("email", msg.To).With("subject", msg.Subject).Wrap(err)
	}
	s.logger.Info(ctx, "notification sent", "email", msg.To, "subject", msg.Subject)
	return nil
}

// ValidateEmail consumes the validation token and marks the account as
// validated. A missing, reused, expired or foreign token yields
// common.ErrInvalidToken. A stale token for an account that is already
// validated is burned without touching the account.
func (s *IdentityService) ValidateEmail(ctx context.Context, value, email string) error {
	subject, err := s.validation.Verify(value)
	if err != nil || subject != email {
		return common.ErrInvalidToken
	}

	if err := s.consume(ctx, models.PurposeAccountValidation, value, email); err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		return oops.Code("IDENTITY_VALIDATE_FAILED").With("email", email).Wrap(err)
	}
	if user.Validated {
		return nil
	}

	if err := s.users.MarkValidated(ctx, email); err != nil {
		return oops.Code("IDENTITY_VALIDATE_FAILED").With("email", email).Wrap(err)
	}

	s.logger.Info(ctx, "account validated", "email", email)
	return nil
}

// consume burns the token before anything else happens. Age is checked
// afterwards so an old token cannot be retried either.
func (s *IdentityService) consume(ctx context.Context, purpose models.TokenPurpose, value, email string) error {
	token, err := s.tokens.Consume(ctx, purpose, value, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return oops.Code("IDENTITY_TOKEN_FAILED").With("email", email).With("purpose", purpose).Wrap(err)
	}

	if s.tokenMaxAge > 0 && s.now().Sub(token.CreatedAt) > s.tokenMaxAge {
		return common.ErrInvalidToken
	}
	return nil
}

// Login never tells the caller why it failed. Dependency errors are still
// returned so the transport can report them.
func (s *IdentityService) Login(ctx context.Context, email, password string) (LoginResult, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			return LoginResult{}, oops.Code("IDENTITY_LOGIN_FAILED").With("email", email).Wrap(err)
		}
		_, _ = s.hasher.Verify(password, s.dummyHash)
		return LoginResult{}, nil
	}

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return LoginResult{}, oops.Code("IDENTITY_LOGIN_FAILED").With("email", email).Wrap(err)
	}
	if !ok || !user.Validated {
		return LoginResult{}, nil
	}

	token, exp, err := s.sessions.Issue(user.Email)
	if err != nil {
		return LoginResult{}, oops.Code("IDENTITY_LOGIN_FAILED").With("email", email).Wrap(err)
	}

	return LoginResult{Success: true, AccessToken: token, ExpiresAt: exp}, nil
}

// Authenticate resolves a session token to the user's email.
func (s *IdentityService) Authenticate(token string) (string, error) {
	return s.sessions.Verify(token)
}

// User returns the account behind email.
func (s *IdentityService) User(ctx context.Context, email string) (*models.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, oops.Code("IDENTITY_LOOKUP_FAILED").With("email", email).Wrap(err)
	}
	return user, nil
}

// CreateResetToken stores a short reset code and mails it. The account may
// or may not be validated.
func (s *IdentityService) CreateResetToken(ctx context.Context, email string) error {
	user, err := s.User(ctx, email)
	if err != nil {
		return err
	}
	return s.sendReset(ctx, user)
}

func (s *IdentityService) sendReset(ctx context.Context, user *models.User) error {
	value, err := common.MakeResetToken()
	if err != nil {
		return oops.Code("IDENTITY_TOKEN_FAILED").With("email", user.Email).Wrap(err)
	}

	token := &models.Token{Value: value, Email: user.Email, Purpose: models.PurposePasswordReset}
	if err := s.tokens.Create(ctx, token); err != nil {
		return oops.Code("IDENTITY_TOKEN_FAILED").With("email", user.Email).Wrap(err)
	}

	msg, err := s.composer.ResetMessage(user.Email, user.Name, value)
	if err != nil {
		return oops.Code("IDENTITY_NOTIFY_FAILED").With("email", user.Email).Wrap(err)
	}
	return s.dispatch(ctx, msg)
}

// ResetPassword replaces the password of a validated account. The token is
// consumed before the new password is stored.
func (s *IdentityService) ResetPassword(ctx context.Context, email, newPassword, value string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrInvalidToken
		}
		return oops.Code("IDENTITY_RESET_FAILED").With("email", email).Wrap(err)
	}
	if !user.Validated {
		return common.ErrInvalidToken
	}

	if err := s.consume(ctx, models.PurposePasswordReset, value, email); err != nil {
		return err
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return oops.Code("IDENTITY_RESET_FAILED").With("email", email).Wrap(err)
	}

	if err := s.users.UpdatePassword(ctx, email, hash); err != nil {
		return oops.Code("IDENTITY_RESET_FAILED").With("email", email).Wrap(err)
	}

	s.logger.Info(ctx, "password reset", "email", email)
	return nil
}

// ReissueToken issues and sends a fresh token for purpose. Operators use it
// when a token was burned but the follow-up write failed.
func (s *IdentityService) ReissueToken(ctx context.Context, email string, purpose models.TokenPurpose) error {
	user, err := s.User(ctx, email)
	if err != nil {
		return err
	}

	switch purpose {
	case models.PurposeAccountValidation:
		if user.Validated {
			return common.ErrorAlreadyRegistered
		}
		return s.sendValidation(ctx, user)
	case models.PurposePasswordReset:
		return s.sendReset(ctx, user)
	default:
		return fmt.Errorf("%w: unknown token purpose %q", common.ErrorValidation, purpose)
	}
}
