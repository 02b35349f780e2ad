package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/common"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
	"github.com/dmitrijs2005/wordrush/internal/server/repositories/games"
	"github.com/dmitrijs2005/wordrush/internal/server/repositories/users"
	"github.com/dmitrijs2005/wordrush/internal/server/repositories/words"
	"github.com/samber/oops"
)

// LevelConfig holds the thresholds and window sizes of the level engine.
type LevelConfig struct {
	EasyWordsToMedium   int
	MediumWordsToHard   int
	TierHistoryLimit    int
	ProfileHistoryLimit int
	WordsPerRound       int
}

// Round is a set of practice words for one game.
type Round struct {
	Tier             models.Tier
	Words            []models.Word
	TotalReadingTime time.Duration
}

// TierCounts counts words read per tier. Words missing from the catalog
// are not counted.
type TierCounts struct {
	Easy   int
	Medium int
	Hard   int
}

// Profile summarizes recent play. Series holds the number of words read
// per session, oldest first.
type Profile struct {
	Tier   models.Tier
	Counts TierCounts
	Series []int
}

type LevelService struct {
	games games.Repository
	words words.Repository
	users users.Repository
	cfg   LevelConfig
}

func NewLevelService(g games.Repository, w words.Repository, u users.Repository, cfg LevelConfig) *LevelService {
	return &LevelService{games: g, words: w, users: u, cfg: cfg}
}

// Tier infers the current difficulty tier from recent history.
func (s *LevelService) Tier(ctx context.Context, email string) (models.Tier, error) {
	sessions, err := s.games.ListRecent(ctx, email, s.cfg.TierHistoryLimit)
	if err != nil {
		return 0, oops.Code("LEVEL_HISTORY_FAILED").With("email", email).Wrap(err)
	}

	counts, err := s.count(ctx, sessions)
	if err != nil {
		return 0, oops.Code("LEVEL_CATALOG_FAILED").With("email", email).Wrap(err)
	}

	return s.tierFor(counts), nil
}

// tierFor applies the two thresholds independently, the medium one last.
// Enough medium words therefore lead to hard regardless of the easy count.
func (s *LevelService) tierFor(c TierCounts) models.Tier {
	tier := models.TierEasy
	if c.Easy >= s.cfg.EasyWordsToMedium {
		tier = models.TierMedium
	}
	if c.Medium >= s.cfg.MediumWordsToHard {
		tier = models.TierHard
	}
	return tier
}

func (s *LevelService) count(ctx context.Context, sessions []models.GameSession) (TierCounts, error) {
	var read []string
	for _, gs := range sessions {
		read = append(read, gs.WordsRead...)
	}

	var c TierCounts
	if len(read) == 0 {
		return c, nil
	}

	tiers, err := s.words.Tiers(ctx, read)
	if err != nil {
		return c, err
	}

	for _, w := range read {
		switch tiers[w] {
		case models.TierEasy:
			c.Easy++
		case models.TierMedium:
			c.Medium++
		case models.TierHard:
			c.Hard++
		}
	}
	return c, nil
}

// SelectWords samples practice words at or below the player's tier.
func (s *LevelService) SelectWords(ctx context.Context, email string) (*Round, error) {
	tier, err := s.Tier(ctx, email)
	if err != nil {
		return nil, err
	}

	sample, err := s.words.Sample(ctx, tier, s.cfg.WordsPerRound)
	if err != nil {
		return nil, oops.Code("LEVEL_SAMPLE_FAILED").With("email", email).With("tier", tier.String()).Wrap(err)
	}

	round := &Round{Tier: tier, Words: make([]models.Word, 0, len(sample))}
	for _, w := range sample {
		if w.Tier > tier {
			continue
		}
		round.Words = append(round.Words, w)
		round.TotalReadingTime += w.ReadingTime
	}
	return round, nil
}

// Profile returns the tier plus per-tier counts and the word-count series
// over the last few sessions.
func (s *LevelService) Profile(ctx context.Context, email string) (*Profile, error) {
	tier, err := s.Tier(ctx, email)
	if err != nil {
		return nil, err
	}

	sessions, err := s.games.ListRecent(ctx, email, s.cfg.ProfileHistoryLimit)
	if err != nil {
		return nil, oops.Code("LEVEL_HISTORY_FAILED").With("email", email).Wrap(err)
	}

	counts, err := s.count(ctx, sessions)
	if err != nil {
		return nil, oops.Code("LEVEL_CATALOG_FAILED").With("email", email).Wrap(err)
	}

	series := make([]int, len(sessions))
	for i, gs := range sessions {
		series[len(sessions)-1-i] = len(gs.WordsRead)
	}

	return &Profile{Tier: tier, Counts: counts, Series: series}, nil
}

// SaveGame records a finished round for an existing user.
func (s *LevelService) SaveGame(ctx context.Context, email string, wordsRead []string, difficulty models.Tier) (*models.GameSession, error) {
	if !difficulty.Valid() {
		return nil, common.ErrorValidation
	}

	if _, err := s.users.GetByEmail(ctx, email); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, oops.Code("LEVEL_SAVE_FAILED").With("email", email).Wrap(err)
	}

	gs := &models.GameSession{Email: email, WordsRead: wordsRead, Difficulty: difficulty}
	if err := s.games.Create(ctx, gs); err != nil {
		return nil, oops.Code("LEVEL_SAVE_FAILED").With("email", email).Wrap(err)
	}
	return gs, nil
}
