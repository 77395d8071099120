package leaderboard

import "leaderkit/core"

// Entry represents a score entry.
type Entry struct {
	User  core.UserID
	Score int64
}

// Board abstracts an ordered per-game member set.
type Board interface {
	Update(user core.UserID, score int64)
	Remove(user core.UserID)
	TopN(n int) []Entry
	Get(user core.UserID) (Entry, bool)
	// Rank returns the 1-based descending rank of the user.
	Rank(user core.UserID) (int64, bool)
}
