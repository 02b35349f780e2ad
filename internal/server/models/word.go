package models

import (
	"fmt"
	"strings"
	"time"
)

// Tier is a difficulty level. The numeric order is easy < medium < hard.
type Tier int

const (
	TierEasy   Tier = 1
	TierMedium Tier = 2
	TierHard   Tier = 3
)

func (t Tier) String() string {
	switch t {
	case TierEasy:
		return "easy"
	case TierMedium:
		return "medium"
	case TierHard:
		return "hard"
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

func (t Tier) Valid() bool {
	return t >= TierEasy && t <= TierHard
}

// ParseTier accepts a tier name or its number.
func ParseTier(s string) (Tier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "easy", "1":
		return TierEasy, nil
	case "medium", "2":
		return TierMedium, nil
	case "hard", "3":
		return TierHard, nil
	}
	return 0, fmt.Errorf("unknown tier %q", s)
}

func (t Tier) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid tier %d", int(t))
	}
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	v, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Word is a catalog entry.
type Word struct {
	Text        string
	Tier        Tier
	ReadingTime time.Duration
}
