package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/common"
	"github.com/dmitrijs2005/wordrush/internal/server/auth"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
	"github.com/dmitrijs2005/wordrush/internal/server/notify"
	"github.com/dmitrijs2005/wordrush/internal/server/notify/notifytest"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sessionTTL = 30 * time.Minute

type identityFixture struct {
	svc    *IdentityService
	users  *fakeUsers
	tokens *fakeTokens
	outbox *notifytest.Outbox
	now    *time.Time
}

func newIdentity(t *testing.T, maxAge time.Duration) *identityFixture {
	t.Helper()

	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	f := &identityFixture{users: newFakeUsers(), outbox: &notifytest.Outbox{}, now: &now}
	clock := func() time.Time { return *f.now }
	f.tokens = &fakeTokens{now: clock}

	hasher, err := auth.NewArgon2Hasher(auth.Argon2Params{Memory: 8192, Time: 1, Threads: 1})
	require.NoError(t, err)
	composer, err := notify.NewComposer("http://localhost/verify?token={{.Token}}&email={{.Email}}")
	require.NoError(t, err)

	f.svc, err = NewIdentityService(IdentityDeps{
		Users:       f.users,
		Tokens:      f.tokens,
		Hasher:      hasher,
		Sessions:    auth.NewIssuer("session-secret", "wordrush", "session", sessionTTL, auth.WithClock(clock)),
		Validation:  auth.NewIssuer("registration-secret", "wordrush", "validation", 24*time.Hour, auth.WithClock(clock)),
		Sender:      f.outbox,
		Composer:    composer,
		TokenMaxAge: maxAge,
		Now:         clock,
	})
	require.NoError(t, err)
	return f
}

func (f *identityFixture) register(t *testing.T, email, password string) {
	t.Helper()
	require.NoError(t, f.svc.Register(context.Background(), RegisterInput{Name: "Ana", LastName: "Silva", Email: email, Password: password}))
}

func (f *identityFixture) validationToken(t *testing.T) string {
	t.Helper()
	tok, ok := f.tokens.last(models.PurposeAccountValidation)
	require.True(t, ok, "no validation token stored")
	return tok.Value
}

func TestNewIdentityService_MissingDependency(t *testing.T) {
	_, err := NewIdentityService(IdentityDeps{})
	require.Error(t, err)
}

func TestIdentity_AnaSilvaScenario(t *testing.T) {
	f := newIdentity(t, 0)
	ctx := context.Background()

	f.register(t, "ana@x.com", "Abc12345")

	msg, ok := f.outbox.Last()
	require.True(t, ok)
	assert.Equal(t, "ana@x.com", msg.To)

	res, err := f.svc.Login(ctx, "ana@x.com", "Abc12345")
	require.NoError(t, err)
	assert.False(t, res.Success)

	token := f.validationToken(t)
	assert.Contains(t, msg.Body, token)
	require.NoError(t, f.svc.ValidateEmail(ctx, token, "ana@x.com"))
	assert.True(t, f.users.get("ana@x.com").Validated)

	res, err = f.svc.Login(ctx, "ana@x.com", "Abc12345")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.NotEmpty(t, res.AccessToken)
	assert.True(t, res.ExpiresAt.Equal(f.now.Add(sessionTTL)), "expiry %v", res.ExpiresAt)

	subject, err := f.svc.Authenticate(res.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "ana@x.com", subject)
}

func TestIdentity_ReRegisterOverwritesWithoutDuplicate(t *testing.T) {
	f := newIdentity(t, 0)

	f.register(t, "ana@x.com", "Abc12345")
	first := f.users.get("ana@x.com")

	require.NoError(t, f.svc.Register(context.Background(), RegisterInput{Name: "Anna", LastName: "Souza", Email: "ana@x.com", Password: "Xyz98765"}))
	second := f.users.get("ana@x.com")

	assert.Equal(t, 1, f.users.creates)
	assert.Equal(t, 1, f.users.updates)
	assert.Equal(t, "Anna", second.Name)
	assert.Equal(t, "Souza", second.LastName)
	assert.NotEqual(t, first.PasswordHash, second.PasswordHash)
	assert.False(t, second.Validated)
	assert.Len(t, f.outbox.Messages(), 2)
}

func TestIdentity_RegisterValidatedIsRejectedWithoutSideEffects(t *testing.T) {
	f := newIdentity(t, 0)
	ctx := context.Background()

	f.register(t, "ana@x.com", "Abc12345")
	require.NoError(t, f.svc.ValidateEmail(ctx, f.validationToken(t), "ana@x.com"))
	before := f.users.get("ana@x.com")
	tokensBefore := f.tokens.count()
	msgsBefore := len(f.outbox.Messages())

	err := f.svc.Register(ctx, RegisterInput{Name: "Eve", LastName: "X", Email: "ana@x.com", Password: "Zzz11111"})
	require.ErrorIs(t, err, common.ErrorAlreadyRegistered)

	assert.Equal(t, before, f.users.get("ana@x.com"))
	assert.Equal(t, tokensBefore, f.tokens.count())
	assert.Len(t, f.outbox.Messages(), msgsBefore)
}

func TestIdentity_RegisterLosesRaceWithValidation(t *testing.T) {
	f := newIdentity(t, 0)
	ctx := context.Background()

	f.register(t, "ana@x.com", "Abc12345")
	before := f.users.get("ana@x.com")
	tokensBefore := f.tokens.count()

	// the account is validated between Register's read and its write
	f.users.afterGet = func(u *fakeUsers) {
		cur := u.byEmail["ana@x.com"]
		cur.Validated = true
		u.byEmail["ana@x.com"] = cur
	}

	err := f.svc.Register(ctx, RegisterInput{Name: "Eve", LastName: "Evil", Email: "ana@x.com", Password: "Evil12345"})
	require.ErrorIs(t, err, common.ErrorAlreadyRegistered)

	after := f.users.get("ana@x.com")
	assert.True(t, after.Validated)
	assert.Equal(t, "Ana", after.Name)
	assert.Equal(t, before.PasswordHash, after.PasswordHash)
	assert.Equal(t, tokensBefore, f.tokens.count())
	assert.Len(t, f.outbox.Messages(), 1)
}

func TestIdentity_ConcurrentFirstRegistration(t *testing.T) {
	t.Run("unvalidated is overwritten", func(t *testing.T) {
		f := newIdentity(t, 0)
		f.register(t, "ana@x.com", "Abc12345")

		// a second registration that read before the first one committed
		f.users.missOnce = true
		require.NoError(t, f.svc.Register(context.Background(), RegisterInput{Name: "Anna", LastName: "Souza", Email: "ana@x.com", Password: "Xyz98765"}))

		assert.Equal(t, 1, f.users.creates)
		assert.Equal(t, "Anna", f.users.get("ana@x.com").Name)
		assert.Len(t, f.outbox.Messages(), 2)
	})

	t.Run("validated is rejected", func(t *testing.T) {
		f := newIdentity(t, 0)
		f.register(t, "ana@x.com", "Abc12345")
		require.NoError(t, f.svc.ValidateEmail(context.Background(), f.validationToken(t), "ana@x.com"))

		f.users.missOnce = true
		err := f.svc.Register(context.Background(), RegisterInput{Name: "Eve", LastName: "Evil", Email: "ana@x.com", Password: "Evil12345"})
		require.ErrorIs(t, err, common.ErrorAlreadyRegistered)
		assert.Equal(t, "Ana", f.users.get("ana@x.com").Name)
	})
}

func TestIdentity_RegisterSendFailureKeepsState(t *testing.T) {
	f := newIdentity(t, 0)
	f.outbox.Err = errors.New("smtp down")

	err := f.svc.Register(context.Background(), RegisterInput{Name: "Ana", LastName: "Silva", Email: "ana@x.com", Password: "Abc12345"})
	require.Error(t, err)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "IDENTITY_NOTIFY_FAILED", oopsErr.Code())

	assert.Equal(t, 1, f.users.creates)
	assert.Equal(t, 1, f.tokens.count())
}

func TestIdentity_RegisterRepositoryFailure(t *testing.T) {
	f := newIdentity(t, 0)
	f.users.getErr = errBoom{}

	err := f.svc.Register(context.Background(), RegisterInput{Email: "ana@x.com", Password: "Abc12345"})
	require.ErrorIs(t, err, errBoom{})
	assert.Empty(t, f.outbox.Messages())
}

func TestIdentity_ValidateEmail(t *testing.T) {
	t.Run("single use", func(t *testing.T) {
		f := newIdentity(t, 0)
		f.register(t, "ana@x.com", "Abc12345")
		token := f.validationToken(t)

		require.NoError(t, f.svc.ValidateEmail(context.Background(), token, "ana@x.com"))
		require.ErrorIs(t, f.svc.ValidateEmail(context.Background(), token, "ana@x.com"), common.ErrInvalidToken)
	})

	t.Run("wrong email", func(t *testing.T) {
		f := newIdentity(t, 0)
		f.register(t, "ana@x.com", "Abc12345")
		f.register(t, "bob@x.com", "Abc12345")
		bobToken := f.validationToken(t)

		require.ErrorIs(t, f.svc.ValidateEmail(context.Background(), bobToken, "ana@x.com"), common.ErrInvalidToken)
		assert.False(t, f.users.get("ana@x.com").Validated)
	})

	t.Run("stale token after validation", func(t *testing.T) {
		f := newIdentity(t, 0)
		ctx := context.Background()
		f.register(t, "ana@x.com", "Abc12345")
		stale := f.validationToken(t)

		*f.now = f.now.Add(time.Minute)
		f.register(t, "ana@x.com", "Abc12345")
		require.NoError(t, f.svc.ValidateEmail(ctx, f.validationToken(t), "ana@x.com"))
		validatedAt := f.users.get("ana@x.com")

		require.NoError(t, f.svc.ValidateEmail(ctx, stale, "ana@x.com"))
		assert.Equal(t, 1, f.users.validations)
		assert.Equal(t, validatedAt, f.users.get("ana@x.com"))
		require.ErrorIs(t, f.svc.ValidateEmail(ctx, stale, "ana@x.com"), common.ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		f := newIdentity(t, 0)
		require.ErrorIs(t, f.svc.ValidateEmail(context.Background(), "nope", "ana@x.com"), common.ErrInvalidToken)
	})

	t.Run("expired link", func(t *testing.T) {
		f := newIdentity(t, 0)
		f.register(t, "ana@x.com", "Abc12345")
		token := f.validationToken(t)

		*f.now = f.now.Add(25 * time.Hour)
		require.ErrorIs(t, f.svc.ValidateEmail(context.Background(), token, "ana@x.com"), common.ErrInvalidToken)
	})

	t.Run("token store failure", func(t *testing.T) {
		f := newIdentity(t, 0)
		f.register(t, "ana@x.com", "Abc12345")
		token := f.validationToken(t)
		f.tokens.consumeErr = errBoom{}

		err := f.svc.ValidateEmail(context.Background(), token, "ana@x.com")
		require.ErrorIs(t, err, errBoom{})
		assert.NotErrorIs(t, err, common.ErrInvalidToken)
	})
}

func TestIdentity_LoginSoftFailuresShareShape(t *testing.T) {
	f := newIdentity(t, 0)
	ctx := context.Background()

	f.register(t, "ana@x.com", "Abc12345")
	require.NoError(t, f.svc.ValidateEmail(ctx, f.validationToken(t), "ana@x.com"))
	f.register(t, "bob@x.com", "Abc12345")

	unknown, err := f.svc.Login(ctx, "nobody@x.com", "Abc12345")
	require.NoError(t, err)
	unvalidated, err := f.svc.Login(ctx, "bob@x.com", "Abc12345")
	require.NoError(t, err)
	mismatch, err := f.svc.Login(ctx, "ana@x.com", "Wrong1234")
	require.NoError(t, err)

	assert.Equal(t, LoginResult{}, unknown)
	assert.Equal(t, unknown, unvalidated)
	assert.Equal(t, unknown, mismatch)
}

func TestIdentity_LoginRepositoryFailure(t *testing.T) {
	f := newIdentity(t, 0)
	f.users.getErr = errBoom{}

	res, err := f.svc.Login(context.Background(), "ana@x.com", "Abc12345")
	require.ErrorIs(t, err, errBoom{})
	assert.False(t, res.Success)
}

func TestIdentity_CreateResetToken(t *testing.T) {
	t.Run("unknown email", func(t *testing.T) {
		f := newIdentity(t, 0)
		require.ErrorIs(t, f.svc.CreateResetToken(context.Background(), "nobody@x.com"), common.ErrorNotFound)
		assert.Equal(t, 0, f.tokens.count())
		assert.Empty(t, f.outbox.Messages())
	})

	t.Run("unvalidated user gets a code", func(t *testing.T) {
		f := newIdentity(t, 0)
		f.register(t, "ana@x.com", "Abc12345")

		require.NoError(t, f.svc.CreateResetToken(context.Background(), "ana@x.com"))
		tok, ok := f.tokens.last(models.PurposePasswordReset)
		require.True(t, ok)
		assert.Len(t, tok.Value, common.ResetTokenLength)
		assert.Regexp(t, `^[A-Za-z]{6}$`, tok.Value)

		msg, _ := f.outbox.Last()
		assert.Contains(t, msg.Body, tok.Value)
	})
}

func TestIdentity_ResetPassword(t *testing.T) {
	setup := func(t *testing.T, maxAge time.Duration) (*identityFixture, string) {
		f := newIdentity(t, maxAge)
		f.register(t, "ana@x.com", "Abc12345")
		require.NoError(t, f.svc.ValidateEmail(context.Background(), f.validationToken(t), "ana@x.com"))
		require.NoError(t, f.svc.CreateResetToken(context.Background(), "ana@x.com"))
		tok, _ := f.tokens.last(models.PurposePasswordReset)
		return f, tok.Value
	}

	t.Run("success then reuse", func(t *testing.T) {
		f, code := setup(t, 0)
		ctx := context.Background()

		require.NoError(t, f.svc.ResetPassword(ctx, "ana@x.com", "New12345", code))

		res, err := f.svc.Login(ctx, "ana@x.com", "New12345")
		require.NoError(t, err)
		assert.True(t, res.Success)

		require.ErrorIs(t, f.svc.ResetPassword(ctx, "ana@x.com", "Other123", code), common.ErrInvalidToken)
		res, err = f.svc.Login(ctx, "ana@x.com", "New12345")
		require.NoError(t, err)
		assert.True(t, res.Success)
	})

	t.Run("unknown user", func(t *testing.T) {
		f, code := setup(t, 0)
		require.ErrorIs(t, f.svc.ResetPassword(context.Background(), "nobody@x.com", "New12345", code), common.ErrInvalidToken)
	})

	t.Run("unvalidated user", func(t *testing.T) {
		f := newIdentity(t, 0)
		f.register(t, "bob@x.com", "Abc12345")
		require.NoError(t, f.svc.CreateResetToken(context.Background(), "bob@x.com"))
		tok, _ := f.tokens.last(models.PurposePasswordReset)

		require.ErrorIs(t, f.svc.ResetPassword(context.Background(), "bob@x.com", "New12345", tok.Value), common.ErrInvalidToken)
		_, still := f.tokens.last(models.PurposePasswordReset)
		assert.True(t, still)
	})

	t.Run("validation token is not a reset token", func(t *testing.T) {
		f := newIdentity(t, 0)
		f.register(t, "ana@x.com", "Abc12345")
		token := f.validationToken(t)
		require.NoError(t, f.users.MarkValidated(context.Background(), "ana@x.com"))

		require.ErrorIs(t, f.svc.ResetPassword(context.Background(), "ana@x.com", "New12345", token), common.ErrInvalidToken)
	})

	t.Run("too old", func(t *testing.T) {
		f, code := setup(t, time.Hour)
		*f.now = f.now.Add(2 * time.Hour)

		require.ErrorIs(t, f.svc.ResetPassword(context.Background(), "ana@x.com", "New12345", code), common.ErrInvalidToken)
		// burned anyway
		_, ok := f.tokens.last(models.PurposePasswordReset)
		assert.False(t, ok)
	})
}

func TestIdentity_ReissueToken(t *testing.T) {
	f := newIdentity(t, 0)
	ctx := context.Background()
	f.register(t, "ana@x.com", "Abc12345")

	require.NoError(t, f.svc.ReissueToken(ctx, "ana@x.com", models.PurposeAccountValidation))
	assert.Len(t, f.outbox.Messages(), 2)

	require.NoError(t, f.svc.ReissueToken(ctx, "ana@x.com", models.PurposePasswordReset))
	_, ok := f.tokens.last(models.PurposePasswordReset)
	assert.True(t, ok)

	require.NoError(t, f.svc.ValidateEmail(ctx, f.validationToken(t), "ana@x.com"))
	require.ErrorIs(t, f.svc.ReissueToken(ctx, "ana@x.com", models.PurposeAccountValidation), common.ErrorAlreadyRegistered)
	require.ErrorIs(t, f.svc.ReissueToken(ctx, "nobody@x.com", models.PurposePasswordReset), common.ErrorNotFound)
	require.ErrorIs(t, f.svc.ReissueToken(ctx, "ana@x.com", models.TokenPurpose("other")), common.ErrorValidation)
}
