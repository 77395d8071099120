package engine

import (
	"context"
	"fmt"

	"leaderkit/core"
)

// DefaultTopN is the snapshot size published after every submit and the
// default limit for top queries.
const DefaultTopN = 10

// repopulateBatch is how many durable rows a cache miss pulls in, regardless
// of the requested limit, so one miss warms the board wholesale.
const repopulateBatch = 100

// LeaderboardService orchestrates the ranked cache and the durable store.
//
// The durable store is the system of record; the cache is a ranking
// accelerator that may diverge until the next repopulation. There is no
// cross-store transaction: a submit that lands durably but fails in the cache
// surfaces the error to the caller and leaves the stores divergent.
type LeaderboardService struct {
	cache ScoreCache
	store ScoreStore
	bus   *EventBus
	topN  int
}

func NewLeaderboardService(cache ScoreCache, store ScoreStore, bus *EventBus) *LeaderboardService {
	if cache == nil || store == nil || bus == nil {
		panic("NewLeaderboardService requires non-nil cache, store, and bus")
	}
	return &LeaderboardService{cache: cache, store: store, bus: bus, topN: DefaultTopN}
}

// SetTopN overrides the snapshot size published after submits.
func (l *LeaderboardService) SetTopN(n int) {
	if n > 0 {
		l.topN = n
	}
}

// Subscribe convenience method.
func (l *LeaderboardService) Subscribe(name core.EventName, handler func(context.Context, core.Event)) func() {
	return l.bus.Subscribe(name, handler)
}

func (l *LeaderboardService) Publish(ctx context.Context, ev core.Event) {
	l.bus.Publish(ctx, ev)
}

// SubmitScore writes through both stores and publishes the resulting top-N
// snapshot: durable upsert, then cache write, then read-back, then publish.
func (l *LeaderboardService) SubmitScore(ctx context.Context, game core.GameID, user core.UserID, score int64) error {
	game, err := core.NormalizeGameID(game)
	if err != nil {
		return err
	}
	user, err = core.NormalizeUserID(user)
	if err != nil {
		return err
	}
	if err := core.ValidateScore(score); err != nil {
		return err
	}
	if err := l.store.Upsert(ctx, game, user, score); err != nil {
		return fmt.Errorf("durable upsert: %w", err)
	}
	if err := l.cache.Write(ctx, game, user, score); err != nil {
		return fmt.Errorf("cache write: %w", err)
	}
	top, err := l.cache.TopN(ctx, game, l.topN)
	if err != nil {
		return fmt.Errorf("cache read-back: %w", err)
	}
	l.bus.Publish(ctx, core.NewLeaderboardUpdate(game, top))
	return nil
}

// TopPlayers reads cache-first. An empty cache result falls back to the
// durable store; non-empty durable data repopulates the cache before the
// clipped result is returned. An empty result may mean either a cold cache
// with no durable rows or a game that truly has no scores; the two are not
// distinguished here.
func (l *LeaderboardService) TopPlayers(ctx context.Context, game core.GameID, limit int) ([]core.PlayerScore, error) {
	game, err := core.NormalizeGameID(game)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = l.topN
	}
	top, err := l.cache.TopN(ctx, game, limit)
	if err != nil {
		return nil, fmt.Errorf("cache top-n: %w", err)
	}
	if len(top) > 0 {
		return top, nil
	}
	fetch := limit
	if fetch < repopulateBatch {
		fetch = repopulateBatch
	}
	rows, err := l.store.TopN(ctx, game, fetch)
	if err != nil {
		return nil, fmt.Errorf("durable top-n: %w", err)
	}
	if len(rows) > 0 {
		if err := l.cache.BulkWrite(ctx, game, rows); err != nil {
			return nil, fmt.Errorf("cache repopulate: %w", err)
		}
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

// UserRank delegates to the cache alone; a user whose score exists only
// durably (cold or evicted cache) is reported as unranked.
func (l *LeaderboardService) UserRank(ctx context.Context, game core.GameID, user core.UserID) (int64, bool, error) {
	game, err := core.NormalizeGameID(game)
	if err != nil {
		return 0, false, err
	}
	user, err = core.NormalizeUserID(user)
	if err != nil {
		return 0, false, err
	}
	rank, ok, err := l.cache.Rank(ctx, game, user)
	if err != nil {
		return 0, false, fmt.Errorf("cache rank: %w", err)
	}
	return rank, ok, nil
}

func (l *LeaderboardService) Close() { l.bus.Close() }
