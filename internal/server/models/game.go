package models

import "time"

// GameSession is one finished round: the words the participant read, in
// order, and the difficulty they played at.
type GameSession struct {
	ID         string
	Email      string
	WordsRead  []string
	Difficulty Tier
	PlayedAt   time.Time
}
