package memory

import (
	"context"
	"sort"
	"sync"

	"leaderkit/core"
	"leaderkit/leaderboard"
)

// Cache is a concurrent in-memory ScoreCache implementation backed by one
// skip-list board per game. Boards are created implicitly on first write,
// mirroring how a sorted-set key appears in Redis.
type Cache struct {
	boards sync.Map // map[core.GameID]*leaderboard.SkipList
}

func NewCache() *Cache { return &Cache{} }

func (c *Cache) getOrCreate(game core.GameID) *leaderboard.SkipList {
	if v, ok := c.boards.Load(game); ok {
		return v.(*leaderboard.SkipList)
	}
	actual, _ := c.boards.LoadOrStore(game, leaderboard.NewSkipList())
	return actual.(*leaderboard.SkipList)
}

func (c *Cache) lookup(game core.GameID) (*leaderboard.SkipList, bool) {
	v, ok := c.boards.Load(game)
	if !ok {
		return nil, false
	}
	return v.(*leaderboard.SkipList), true
}

func (c *Cache) Write(_ context.Context, game core.GameID, user core.UserID, score int64) error {
	c.getOrCreate(game).Update(user, score)
	return nil
}

func (c *Cache) TopN(_ context.Context, game core.GameID, limit int) ([]core.PlayerScore, error) {
	board, ok := c.lookup(game)
	if !ok {
		return []core.PlayerScore{}, nil
	}
	entries := board.TopN(limit)
	out := make([]core.PlayerScore, 0, len(entries))
	for _, e := range entries {
		out = append(out, core.PlayerScore{GameID: game, UserID: e.User, Score: e.Score})
	}
	return out, nil
}

func (c *Cache) BulkWrite(_ context.Context, game core.GameID, entries []core.PlayerScore) error {
	board := c.getOrCreate(game)
	for _, e := range entries {
		board.Update(e.UserID, e.Score)
	}
	return nil
}

func (c *Cache) Rank(_ context.Context, game core.GameID, user core.UserID) (int64, bool, error) {
	board, ok := c.lookup(game)
	if !ok {
		return 0, false, nil
	}
	rank, found := board.Rank(user)
	return rank, found, nil
}

// Store is a concurrent in-memory ScoreStore implementation.
type Store struct {
	mu    sync.RWMutex
	games map[core.GameID]map[core.UserID]int64
}

func NewStore() *Store {
	return &Store{games: map[core.GameID]map[core.UserID]int64{}}
}

func (s *Store) Upsert(_ context.Context, game core.GameID, user core.UserID, score int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.games[game]
	if !ok {
		rows = map[core.UserID]int64{}
		s.games[game] = rows
	}
	rows[user] = score
	return nil
}

func (s *Store) TopN(_ context.Context, game core.GameID, limit int) ([]core.PlayerScore, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rows := s.games[game]
	out := make([]core.PlayerScore, 0, len(rows))
	for user, score := range rows {
		out = append(out, core.PlayerScore{GameID: game, UserID: user, Score: score})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score == out[j].Score {
			return out[i].UserID > out[j].UserID
		}
		return out[i].Score > out[j].Score
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
