package engine

import (
	"context"

	"leaderkit/core"
)

// ScoreCache abstracts the ranked member set kept per game (the ordered
// cache). Absence is never an error: TopN returns an empty slice and Rank
// reports ok=false for members the cache has not seen.
type ScoreCache interface {
	Write(ctx context.Context, game core.GameID, user core.UserID, score int64) error
	TopN(ctx context.Context, game core.GameID, limit int) ([]core.PlayerScore, error)
	BulkWrite(ctx context.Context, game core.GameID, entries []core.PlayerScore) error
	Rank(ctx context.Context, game core.GameID, user core.UserID) (rank int64, ok bool, err error)
}

// ScoreStore abstracts the durable system-of-record table keyed (game, user).
type ScoreStore interface {
	Upsert(ctx context.Context, game core.GameID, user core.UserID, score int64) error
	TopN(ctx context.Context, game core.GameID, limit int) ([]core.PlayerScore, error)
}
