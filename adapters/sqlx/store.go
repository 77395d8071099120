package sqlx

import (
	"context"
	"fmt"
	"regexp"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"leaderkit/core"
)

// Driver selects the SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Columns maps the logical (game, user, score) fields to column names.
// The names are substituted literally into statements, so they are validated
// as identifiers once at construction.
type Columns struct {
	GameID string `json:"game_id"`
	UserID string `json:"user_id"`
	Score  string `json:"score"`
}

// Config holds SQL store configuration.
type Config struct {
	Driver          Driver        `json:"driver"`
	DSN             string        `json:"dsn,omitempty"`
	Table           string        `json:"table"`
	Columns         Columns       `json:"columns"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DefaultConfig returns sensible defaults for the given driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		Table:           "leaderboard_scores",
		Columns:         Columns{GameID: "game_id", UserID: "user_id", Score: "score"},
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks the driver and that table/column names are plain SQL
// identifiers.
func (c Config) Validate() error {
	switch c.Driver {
	case DriverPostgres, DriverMySQL:
	default:
		return fmt.Errorf("unsupported driver: %q", c.Driver)
	}
	for name, v := range map[string]string{
		"table":          c.Table,
		"columns.gameId": c.Columns.GameID,
		"columns.userId": c.Columns.UserID,
		"columns.score":  c.Columns.Score,
	} {
		if !identPattern.MatchString(v) {
			return fmt.Errorf("%s is not a valid identifier: %q", name, v)
		}
	}
	return nil
}

// Store implements the engine.ScoreStore interface on a relational table.
// Expected schema (Postgres):
//
//	CREATE TABLE leaderboard_scores (
//	    game_id TEXT NOT NULL,
//	    user_id TEXT NOT NULL,
//	    score   BIGINT NOT NULL,
//	    PRIMARY KEY (game_id, user_id)
//	);
//
// Statements are built once at construction from the validated config.
type Store struct {
	db        *sqlx.DB
	upsertSQL string
	topNSQL   string
}

// New connects to the database and returns a Store.
func New(cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sql config: %w", err)
	}
	db, err := sqlx.Connect(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	return NewWithDB(db, cfg)
}

// NewWithDB creates a Store using an existing database handle (useful for
// testing with sqlmock).
func NewWithDB(db *sqlx.DB, cfg Config) (*Store, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sql config: %w", err)
	}

	var upsert string
	switch cfg.Driver {
	case DriverMySQL:
		upsert = fmt.Sprintf(
			"INSERT INTO %s (%s, %s, %s) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE %s = VALUES(%s)",
			cfg.Table, cfg.Columns.GameID, cfg.Columns.UserID, cfg.Columns.Score,
			cfg.Columns.Score, cfg.Columns.Score,
		)
	default:
		upsert = fmt.Sprintf(
			"INSERT INTO %s (%s, %s, %s) VALUES (?, ?, ?) ON CONFLICT (%s, %s) DO UPDATE SET %s = EXCLUDED.%s",
			cfg.Table, cfg.Columns.GameID, cfg.Columns.UserID, cfg.Columns.Score,
			cfg.Columns.GameID, cfg.Columns.UserID, cfg.Columns.Score, cfg.Columns.Score,
		)
	}

	// ties order by reverse lexical user id, matching the cache's sorted set
	topN := fmt.Sprintf(
		"SELECT %s AS user_id, %s AS score FROM %s WHERE %s = ? ORDER BY %s DESC, %s DESC LIMIT ?",
		cfg.Columns.UserID, cfg.Columns.Score, cfg.Table,
		cfg.Columns.GameID, cfg.Columns.Score, cfg.Columns.UserID,
	)

	return &Store{
		db:        db,
		upsertSQL: db.Rebind(upsert),
		topNSQL:   db.Rebind(topN),
	}, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Upsert inserts the row or overwrites the score of the existing (game, user)
// row; last statement wins under concurrent upserts.
func (s *Store) Upsert(ctx context.Context, game core.GameID, user core.UserID, score int64) error {
	if _, err := s.db.ExecContext(ctx, s.upsertSQL, string(game), string(user), score); err != nil {
		return fmt.Errorf("failed to upsert score: %w", err)
	}
	return nil
}

// TopN returns up to limit rows for the game ordered by score descending.
func (s *Store) TopN(ctx context.Context, game core.GameID, limit int) ([]core.PlayerScore, error) {
	var rows []struct {
		UserID string `db:"user_id"`
		Score  int64  `db:"score"`
	}
	if err := s.db.SelectContext(ctx, &rows, s.topNSQL, string(game), limit); err != nil {
		return nil, fmt.Errorf("failed to query top-n: %w", err)
	}
	out := make([]core.PlayerScore, 0, len(rows))
	for _, r := range rows {
		out = append(out, core.PlayerScore{GameID: game, UserID: core.UserID(r.UserID), Score: r.Score})
	}
	return out, nil
}
