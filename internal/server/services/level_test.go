package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/wordrush/internal/common"
	"github.com/dmitrijs2005/wordrush/internal/server/models"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testCatalog = []models.Word{
	{Text: "casa", Tier: models.TierEasy, ReadingTime: 400 * time.Millisecond},
	{Text: "gato", Tier: models.TierEasy, ReadingTime: 450 * time.Millisecond},
	{Text: "janela", Tier: models.TierMedium, ReadingTime: 700 * time.Millisecond},
	{Text: "travesseiro", Tier: models.TierMedium, ReadingTime: 900 * time.Millisecond},
	{Text: "paralelepipedo", Tier: models.TierHard, ReadingTime: 1500 * time.Millisecond},
	{Text: "otorrinolaringologista", Tier: models.TierHard, ReadingTime: 2200 * time.Millisecond},
}

var testLevelConfig = LevelConfig{
	EasyWordsToMedium:   4,
	MediumWordsToHard:   3,
	TierHistoryLimit:    100,
	ProfileHistoryLimit: 15,
	WordsPerRound:       5,
}

func repeat(word string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = word
	}
	return out
}

func session(words ...string) models.GameSession {
	return models.GameSession{Email: "ana@x.com", WordsRead: words, Difficulty: models.TierEasy}
}

func newLevel(sessions ...models.GameSession) (*LevelService, *fakeGames, *fakeWords, *fakeUsers) {
	g := &fakeGames{sessions: sessions}
	w := &fakeWords{catalog: testCatalog}
	u := newFakeUsers()
	return NewLevelService(g, w, u, testLevelConfig), g, w, u
}

func TestLevel_TierThresholds(t *testing.T) {
	tests := []struct {
		name     string
		sessions []models.GameSession
		want     models.Tier
	}{
		{name: "no history", want: models.TierEasy},
		{
			name:     "easy one below threshold",
			sessions: []models.GameSession{session(repeat("casa", 3)...)},
			want:     models.TierEasy,
		},
		{
			name:     "easy at threshold",
			sessions: []models.GameSession{session("casa", "gato"), session("casa", "gato")},
			want:     models.TierMedium,
		},
		{
			name:     "medium at threshold with few easy words",
			sessions: []models.GameSession{session("janela", "travesseiro", "janela", "casa")},
			want:     models.TierHard,
		},
		{
			name:     "medium one below threshold",
			sessions: []models.GameSession{session("janela", "travesseiro")},
			want:     models.TierEasy,
		},
		{
			name:     "unknown words are ignored",
			sessions: []models.GameSession{session("xyz", "abc", "def", "ghi", "casa")},
			want:     models.TierEasy,
		},
		{
			name:     "hard words do not count toward any threshold",
			sessions: []models.GameSession{session(repeat("paralelepipedo", 20)...)},
			want:     models.TierEasy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := newLevel(tt.sessions...)
			got, err := svc.Tier(context.Background(), "ana@x.com")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// The two thresholds are independent checks, not a progression: a player
// over both thresholds ends on hard, and so does one who skipped easy
// words entirely.
func TestLevel_TierBranchOrder(t *testing.T) {
	svc, _, _, _ := newLevel()

	assert.Equal(t, models.TierHard, svc.tierFor(TierCounts{Easy: 10, Medium: 10}))
	assert.Equal(t, models.TierHard, svc.tierFor(TierCounts{Easy: 0, Medium: 3}))
	assert.Equal(t, models.TierMedium, svc.tierFor(TierCounts{Easy: 10, Medium: 2}))
}

func TestLevel_TierUsesHistoryLimit(t *testing.T) {
	svc, g, _, _ := newLevel()
	_, err := svc.Tier(context.Background(), "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, []int{100}, g.limits)
}

func TestLevel_TierErrors(t *testing.T) {
	svc, g, _, _ := newLevel()
	g.listErr = errBoom{}
	_, err := svc.Tier(context.Background(), "ana@x.com")
	require.ErrorIs(t, err, errBoom{})

	svc, _, w, _ := newLevel(session("casa"))
	w.tiersErr = errBoom{}
	_, err = svc.Tier(context.Background(), "ana@x.com")
	require.ErrorIs(t, err, errBoom{})
}

func TestLevel_SelectWordsRespectsTier(t *testing.T) {
	tests := []struct {
		name     string
		sessions []models.GameSession
		max      models.Tier
	}{
		{name: "easy", max: models.TierEasy},
		{name: "medium", sessions: []models.GameSession{session(repeat("casa", 4)...)}, max: models.TierMedium},
		{name: "hard", sessions: []models.GameSession{session(repeat("janela", 3)...)}, max: models.TierHard},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, w, _ := newLevel(tt.sessions...)

			round, err := svc.SelectWords(context.Background(), "ana@x.com")
			require.NoError(t, err)

			assert.Equal(t, tt.max, round.Tier)
			assert.Equal(t, tt.max, w.sampleMax)
			assert.Equal(t, 5, w.sampleN)
			require.NotEmpty(t, round.Words)
			assert.LessOrEqual(t, len(round.Words), 5)

			var total time.Duration
			for _, word := range round.Words {
				assert.LessOrEqual(t, word.Tier, tt.max, word.Text)
				total += word.ReadingTime
			}
			assert.Equal(t, total, round.TotalReadingTime)
		})
	}
}

func TestLevel_SelectWordsDropsOutOfTierRows(t *testing.T) {
	svc, _, w, _ := newLevel()
	w.catalog = []models.Word{
		{Text: "casa", Tier: models.TierEasy, ReadingTime: time.Second},
	}
	// a misbehaving store returning a harder word must not leak it
	svc.words = &leakyWords{fakeWords: w, extra: models.Word{Text: "paralelepipedo", Tier: models.TierHard, ReadingTime: time.Second}}

	round, err := svc.SelectWords(context.Background(), "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, []models.Word{{Text: "casa", Tier: models.TierEasy, ReadingTime: time.Second}}, round.Words)
	assert.Equal(t, time.Second, round.TotalReadingTime)
}

type leakyWords struct {
	*fakeWords
	extra models.Word
}

func (l *leakyWords) Sample(ctx context.Context, maxTier models.Tier, n int) ([]models.Word, error) {
	out, err := l.fakeWords.Sample(ctx, maxTier, n)
	return append(out, l.extra), err
}

func TestLevel_SelectWordsSampleError(t *testing.T) {
	svc, _, w, _ := newLevel()
	w.sampleErr = errBoom{}
	_, err := svc.SelectWords(context.Background(), "ana@x.com")
	require.ErrorIs(t, err, errBoom{})
}

func TestLevel_Profile(t *testing.T) {
	// newest first, as the repository returns them
	sessions := []models.GameSession{
		session("casa", "janela", "paralelepipedo"),
		session("gato"),
		session("casa", "casa", "xyz", "travesseiro"),
	}
	svc, g, _, _ := newLevel(sessions...)

	p, err := svc.Profile(context.Background(), "ana@x.com")
	require.NoError(t, err)

	want := &Profile{
		Tier:   models.TierMedium,
		Counts: TierCounts{Easy: 4, Medium: 2, Hard: 1},
		Series: []int{4, 1, 3},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("Profile mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []int{100, 15}, g.limits)
}

func TestLevel_ProfileWindowIsSmallerThanTierWindow(t *testing.T) {
	var sessions []models.GameSession
	for i := 0; i < 20; i++ {
		sessions = append(sessions, session("janela"))
	}
	svc, _, _, _ := newLevel(sessions...)

	p, err := svc.Profile(context.Background(), "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, models.TierHard, p.Tier)
	assert.Equal(t, 15, p.Counts.Medium)
	assert.Len(t, p.Series, 15)
}

func TestLevel_SaveGame(t *testing.T) {
	t.Run("unknown user", func(t *testing.T) {
		svc, g, _, _ := newLevel()
		_, err := svc.SaveGame(context.Background(), "nobody@x.com", []string{"casa"}, models.TierEasy)
		require.ErrorIs(t, err, common.ErrorNotFound)
		assert.Empty(t, g.created)
	})

	t.Run("invalid difficulty", func(t *testing.T) {
		svc, _, _, _ := newLevel()
		_, err := svc.SaveGame(context.Background(), "ana@x.com", nil, models.Tier(7))
		require.ErrorIs(t, err, common.ErrorValidation)
	})

	t.Run("stored", func(t *testing.T) {
		svc, g, _, u := newLevel()
		require.NoError(t, u.Create(context.Background(), &models.User{Email: "ana@x.com"}))

		gs, err := svc.SaveGame(context.Background(), "ana@x.com", []string{"casa", "gato"}, models.TierMedium)
		require.NoError(t, err)
		assert.Equal(t, "g1", gs.ID)
		require.Len(t, g.created, 1)
		assert.Equal(t, []string{"casa", "gato"}, g.created[0].WordsRead)
		assert.Equal(t, models.TierMedium, g.created[0].Difficulty)
	})

	t.Run("repository failure", func(t *testing.T) {
		svc, _, _, u := newLevel()
		u.getErr = errBoom{}
		_, err := svc.SaveGame(context.Background(), "ana@x.com", nil, models.TierEasy)
		require.ErrorIs(t, err, errBoom{})
	})
}
