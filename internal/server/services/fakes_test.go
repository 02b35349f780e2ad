package services

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/common"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
)

type errBoom struct{}

func (errBoom) Error() string { return "boom" }

// --- users ---

type fakeUsers struct {
	mu      sync.Mutex
	byEmail map[string]models.User
	creates int
	updates int

	validations int

	getErr    error
	createErr error
	// missOnce makes the next GetByEmail report ErrorNotFound even when
	// the user exists.
	missOnce bool
	// afterGet runs once, with mu held, after the next successful GetByEmail.
	afterGet func(f *fakeUsers)
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{byEmail: map[string]models.User{}}
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byEmail[email]
	if !ok || f.missOnce {
		f.missOnce = false
		return nil, common.ErrorNotFound
	}
	if hook := f.afterGet; hook != nil {
		f.afterGet = nil
		hook(f)
	}
	return &u, nil
}

func (f *fakeUsers) Create(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if cur, ok := f.byEmail[u.Email]; ok {
		if cur.Validated {
			return common.ErrorAlreadyRegistered
		}
		f.updates++
		cur.Name, cur.LastName, cur.PasswordHash = u.Name, u.LastName, u.PasswordHash
		f.byEmail[u.Email] = cur
		return nil
	}
	f.creates++
	f.byEmail[u.Email] = *u
	return nil
}

func (f *fakeUsers) UpdateProfile(_ context.Context, u *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.byEmail[u.Email]
	if !ok || cur.Validated {
		return common.ErrorNotFound
	}
	f.updates++
	cur.Name, cur.LastName, cur.PasswordHash = u.Name, u.LastName, u.PasswordHash
	f.byEmail[u.Email] = cur
	return nil
}

func (f *fakeUsers) MarkValidated(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.byEmail[email]
	if !ok {
		return common.ErrorNotFound
	}
	f.validations++
	cur.Validated = true
	f.byEmail[email] = cur
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, email, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cur, ok := f.byEmail[email]
	if !ok {
		return common.ErrorNotFound
	}
	cur.PasswordHash = hash
	f.byEmail[email] = cur
	return nil
}

func (f *fakeUsers) get(email string) models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.byEmail[email]
}

// --- tokens ---

type fakeTokens struct {
	mu     sync.Mutex
	tokens []models.Token
	now    func() time.Time

	createErr  error
	consumeErr error
}

func (f *fakeTokens) Create(_ context.Context, t *models.Token) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if t.CreatedAt.IsZero() && f.now != nil {
		t.CreatedAt = f.now()
	}
	f.tokens = append(f.tokens, *t)
	return nil
}

func (f *fakeTokens) Consume(_ context.Context, purpose models.TokenPurpose, value, email string) (*models.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.consumeErr != nil {
		return nil, f.consumeErr
	}
	for i, t := range f.tokens {
		if t.Purpose == purpose && t.Value == value && t.Email == email {
			f.tokens = append(f.tokens[:i], f.tokens[i+1:]...)
			return &t, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeTokens) last(purpose models.TokenPurpose) (models.Token, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.tokens) - 1; i >= 0; i-- {
		if f.tokens[i].Purpose == purpose {
			return f.tokens[i], true
		}
	}
	return models.Token{}, false
}

func (f *fakeTokens) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.tokens)
}

// --- games ---

type fakeGames struct {
	sessions []models.GameSession // newest first
	listErr  error
	limits   []int
	created  []models.GameSession
}

func (f *fakeGames) Create(_ context.Context, s *models.GameSession) error {
	s.ID = "g1"
	f.created = append(f.created, *s)
	return nil
}

func (f *fakeGames) ListRecent(_ context.Context, _ string, limit int) ([]models.GameSession, error) {
	f.limits = append(f.limits, limit)
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit < len(f.sessions) {
		return f.sessions[:limit], nil
	}
	return f.sessions, nil
}

// --- words ---

type fakeWords struct {
	catalog   []models.Word
	tiersErr  error
	sampleErr error
	sampleN   int
	sampleMax models.Tier
}

func (f *fakeWords) Tiers(_ context.Context, texts []string) (map[string]models.Tier, error) {
	if f.tiersErr != nil {
		return nil, f.tiersErr
	}
	out := map[string]models.Tier{}
	for _, t := range texts {
		for _, w := range f.catalog {
			if w.Text == t {
				out[t] = w.Tier
			}
		}
	}
	return out, nil
}

func (f *fakeWords) Sample(_ context.Context, maxTier models.Tier, n int) ([]models.Word, error) {
	f.sampleN, f.sampleMax = n, maxTier
	if f.sampleErr != nil {
		return nil, f.sampleErr
	}
	var out []models.Word
	for _, w := range f.catalog {
		if w.Tier <= maxTier && len(out) < n {
			out = append(out, w)
		}
	}
	return out, nil
}

func (f *fakeWords) Upsert(_ context.Context, w models.Word) error {
	f.catalog = append(f.catalog, w)
	return nil
}
