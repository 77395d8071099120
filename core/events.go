package core

import "time"

// EventName enumerates domain events.
type EventName string

// EventLeaderboardUpdate carries the post-submit top-N snapshot for a game.
const EventLeaderboardUpdate EventName = "leaderboard:update"

// Event represents an immutable domain event scoped to a single game.
type Event struct {
	Name   EventName     `json:"event"`
	Time   time.Time     `json:"time"`
	GameID GameID        `json:"gameId"`
	Top    []PlayerScore `json:"top"`
}

func NewLeaderboardUpdate(game GameID, top []PlayerScore) Event {
	return Event{Name: EventLeaderboardUpdate, Time: time.Now().UTC(), GameID: game, Top: top}
}
