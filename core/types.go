package core

import (
	"errors"
	"strings"
)

// GameID identifies a leaderboard scope. Every game owns an independent
// ranked set of players.
type GameID string

// UserID identifies a player within a game.
type UserID string

// PlayerScore is one (game, user, score) row. There is at most one active
// score per (game, user); resubmission overwrites, it never accumulates.
type PlayerScore struct {
	GameID GameID `json:"gameId"`
	UserID UserID `json:"userId"`
	Score  int64  `json:"score"`
}

// NormalizeGameID trims surrounding whitespace and rejects blank ids.
func NormalizeGameID(id GameID) (GameID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty game id")
	}
	return GameID(s), nil
}

// NormalizeUserID trims surrounding whitespace and rejects blank ids.
// User ids are case-significant: "Alice" and "alice" are distinct members.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(s), nil
}

// ValidateScore rejects negative scores. Score type and integer-ness are
// enforced at the HTTP boundary before a value ever reaches the core.
func ValidateScore(score int64) error {
	if score < 0 {
		return errors.New("score must be non-negative")
	}
	return nil
}
