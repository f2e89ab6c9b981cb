// Package sqlite provides the SQLite-backed quest-completion cache.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS quest_completions (
    character_id TEXT PRIMARY KEY,
    completed_at INTEGER NOT NULL
);
`

// Store provides SQLite-backed persistence for quest completions.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite store at the provided path.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the underlying SQLite database.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// GetQuestCompletion returns the character's last completion timestamp.
func (s *Store) GetQuestCompletion(ctx context.Context, characterID string) (time.Time, bool, error) {
	row := s.sqlDB.QueryRowContext(ctx,
		"SELECT completed_at FROM quest_completions WHERE character_id = ?", characterID)

	var millis int64
	if err := row.Scan(&millis); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("query quest completion: %w", err)
	}
	return time.UnixMilli(millis).UTC(), true, nil
}

// StoreQuestCompletion records a completion for the character.
func (s *Store) StoreQuestCompletion(ctx context.Context, characterID string, completedAt time.Time) error {
	_, err := s.sqlDB.ExecContext(ctx, `
INSERT INTO quest_completions (character_id, completed_at) VALUES (?, ?)
ON CONFLICT(character_id) DO UPDATE SET completed_at = excluded.completed_at`,
		characterID, completedAt.UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("store quest completion: %w", err)
	}
	return nil
}
