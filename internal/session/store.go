package session

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/jaekwang-park/todo-console/internal/model"
)

const (
	keyToken        = "token"
	keyRefreshToken = "refreshToken"
)

// SQLiteStore keeps the session in a single-file SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create session dir: %w", err)
		}
	}

	// modernc.org/sqlite registers itself as "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open session db: %w", err)
	}

	stmts := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
		`CREATE TABLE IF NOT EXISTS session (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to prepare session db: %w", err)
		}
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (model.Tokens, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM session WHERE key IN (?, ?)`, keyToken, keyRefreshToken)
	if err != nil {
		return model.Tokens{}, fmt.Errorf("failed to read session: %w", err)
	}
	defer rows.Close()

	var tokens model.Tokens
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return model.Tokens{}, fmt.Errorf("failed to scan session row: %w", err)
		}
		switch k {
		case keyToken:
			tokens.AccessToken = v
		case keyRefreshToken:
			tokens.RefreshToken = v
		}
	}
	if err := rows.Err(); err != nil {
		return model.Tokens{}, fmt.Errorf("failed to iterate session: %w", err)
	}
	return tokens, nil
}

func (s *SQLiteStore) Save(ctx context.Context, tokens model.Tokens) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin session tx: %w", err)
	}
	defer tx.Rollback()

	for k, v := range map[string]string{keyToken: tokens.AccessToken, keyRefreshToken: tokens.RefreshToken} {
		if v == "" {
			_, err = tx.ExecContext(ctx, `DELETE FROM session WHERE key = ?`, k)
		} else {
			_, err = tx.ExecContext(ctx,
				`INSERT INTO session (key, value) VALUES (?, ?)
				 ON CONFLICT(key) DO UPDATE SET value = excluded.value`, k, v)
		}
		if err != nil {
			return fmt.Errorf("failed to write %s: %w", k, err)
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MemoryStore keeps the session for the lifetime of the process.
type MemoryStore struct {
	mu     sync.Mutex
	tokens model.Tokens
	err    error
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// FailWith makes every subsequent call return err. Tests use it to simulate
// an unwritable store.
func (m *MemoryStore) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

func (m *MemoryStore) Load(context.Context) (model.Tokens, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens, m.err
}

func (m *MemoryStore) Save(_ context.Context, tokens model.Tokens) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tokens = tokens
	return nil
}

func (m *MemoryStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.tokens = model.Tokens{}
	return nil
}

var (
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
