package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"leaderkit/core"
)

// Store persists all scores to a single JSON file, one map of games to
// user scores. Suitable for demos and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache for speed
	data map[core.GameID]map[core.UserID]int64
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[core.GameID]map[core.UserID]int64{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string]map[string]int64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for g, rows := range raw {
		m := map[core.UserID]int64{}
		for u, score := range rows {
			m[core.UserID(u)] = score
		}
		s.data[core.GameID(g)] = m
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	raw := make(map[string]map[string]int64, len(s.data))
	for g, rows := range s.data {
		m := make(map[string]int64, len(rows))
		for u, score := range rows {
			m[string(u)] = score
		}
		raw[string(g)] = m
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) Upsert(_ context.Context, game core.GameID, user core.UserID, score int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows, ok := s.data[game]
	if !ok {
		rows = map[core.UserID]int64{}
		s.data[game] = rows
	}
	rows[user] = score
	return s.persist()
}

func (s *Store) TopN(_ context.Context, game core.GameID, limit int) ([]core.PlayerScore, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rows := s.data[game]
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
