// Package store persists user onboarding state and the append-only
// interaction audit trail in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/jggl/kb-assist/internal/domain/entities"
)

// Store implements ports.UserStore and ports.AuditLog on one SQLite
// file. The audit table is append-only: no update or delete paths
// exist in this package.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the database at path.
func New(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		telegram_id INTEGER PRIMARY KEY,
		language TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS logs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		telegram_id INTEGER NOT NULL,
		question TEXT NOT NULL,
		action TEXT NOT NULL,
		internal_sources TEXT,
		retrieval_scores TEXT,
		created_at TEXT NOT NULL,
		FOREIGN KEY (telegram_id) REFERENCES users(telegram_id)
	);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("initializing schema: %w", err)
	}
	return nil
}

// Get returns the user, or nil when unknown.
func (s *Store) Get(ctx context.Context, telegramID int64) (*entities.User, error) {
	var user entities.User
	var lang, created string

	err := s.db.QueryRowContext(ctx,
		`SELECT telegram_id, language, created_at FROM users WHERE telegram_id = ?`,
		telegramID).Scan(&user.TelegramID, &lang, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying user: %w", err)
	}

	user.Language = entities.Language(lang)
	user.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &user, nil
}

// SetLanguage creates the user on first contact and updates the
// language otherwise. An empty language resets onboarding.
func (s *Store) SetLanguage(ctx context.Context, telegramID int64, lang entities.Language) error {
	now := time.Now().UTC().Format(time.RFC3339)

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (telegram_id, language, created_at) VALUES (?, ?, ?)
		ON CONFLICT(telegram_id) DO UPDATE SET language = excluded.language`,
		telegramID, string(lang), now)
	if err != nil {
		return fmt.Errorf("setting language: %w", err)
	}
	return nil
}

// Append writes one interaction record and returns its id.
func (s *Store) Append(ctx context.Context, rec entities.InteractionRecord) (int64, error) {
	created := rec.CreatedAt
	if created.IsZero() {
		created = time.Now().UTC()
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO logs (telegram_id, question, action, internal_sources, retrieval_scores, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		rec.TelegramID, rec.Question, string(rec.Action),
		rec.InternalSources, rec.RetrievalScores, created.Format(time.RFC3339))
	if err != nil {
		return 0, fmt.Errorf("appending log: %w", err)
	}
	return res.LastInsertId()
}

// Latest returns the most recent record for a user, or nil when none
// exists. Administrative use only.
func (s *Store) Latest(ctx context.Context, telegramID int64) (*entities.InteractionRecord, error) {
	var rec entities.InteractionRecord
	var action, created string
	var sources, scores sql.NullString

	err := s.db.QueryRowContext(ctx, `
		SELECT id, telegram_id, question, action, internal_sources, retrieval_scores, created_at
		FROM logs WHERE telegram_id = ? ORDER BY id DESC LIMIT 1`,
		telegramID).Scan(&rec.ID, &rec.TelegramID, &rec.Question, &action, &sources, &scores, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying latest log: %w", err)
	}

	rec.Action = entities.Action(action)
	rec.InternalSources = sources.String
	rec.RetrievalScores = scores.String
	rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
	return &rec, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
