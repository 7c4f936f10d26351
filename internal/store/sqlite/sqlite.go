package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/wirechat-widget/internal/store"
)

// Schema creates every table the store needs. It is idempotent.
const Schema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS messages (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id TEXT NOT NULL,
	direction  TEXT NOT NULL,
	body       TEXT NOT NULL,
	delivered  BOOLEAN NOT NULL DEFAULT 0,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id, id);
CREATE INDEX IF NOT EXISTS idx_messages_pending ON messages(session_id, direction, delivered);

CREATE TABLE IF NOT EXISTS presence (
	id         INTEGER PRIMARY KEY CHECK (id = 1),
	online     BOOLEAN NOT NULL,
	expires_at INTEGER NOT NULL
);
`

// SQLiteStore implements store.Store for SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ store.Store = (*SQLiteStore)(nil)

// New creates a new SQLite store and applies the schema.
// dbPath is the path to the SQLite database file.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// Migrate applies Schema to db.
func Migrate(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to apply schema without migrations.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with single connection; :memory: databases need it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db, now: time.Now}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// ==== KVStore implementation ====

// Get returns the value stored under key.
func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("query kv: %w", err)
	}
	return value, true, nil
}

// Set inserts or replaces the value stored under key.
func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	if _, err := s.db.ExecContext(ctx, query, key, value, s.now().UnixMilli()); err != nil {
		return fmt.Errorf("upsert kv: %w", err)
	}
	return nil
}

// ==== MessageStore implementation ====

// SaveMessage persists a message to storage.
func (s *SQLiteStore) SaveMessage(ctx context.Context, msg *store.Message) error {
	if msg == nil {
		return errors.New("nil message")
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now()
	}

	query := `
		INSERT INTO messages (session_id, direction, body, delivered, created_at)
		VALUES (?, ?, ?, ?, ?)
	`
	result, err := s.db.ExecContext(ctx, query, msg.SessionID, string(msg.Direction), msg.Body, msg.Delivered, msg.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	msg.ID = id
	return nil
}

// TakeReplies returns pending operator replies and marks them delivered.
func (s *SQLiteStore) TakeReplies(ctx context.Context, sessionID string) ([]*store.Message, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		SELECT id, session_id, direction, body, delivered, created_at
		FROM messages
		WHERE session_id = ? AND direction = ? AND delivered = 0
		ORDER BY id ASC
	`
	rows, err := tx.QueryContext(ctx, query, sessionID, string(store.DirectionOperator))
	if err != nil {
		return nil, fmt.Errorf("query replies: %w", err)
	}
	replies, err := scanMessages(rows)
	if err != nil {
		return nil, err
	}
	if len(replies) == 0 {
		return replies, tx.Commit()
	}

	ids := make([]any, 0, len(replies))
	placeholders := make([]string, 0, len(replies))
	for _, m := range replies {
		ids = append(ids, m.ID)
		placeholders = append(placeholders, "?")
	}
	update := `UPDATE messages SET delivered = 1 WHERE id IN (` + strings.Join(placeholders, ",") + `)`
	if _, err := tx.ExecContext(ctx, update, ids...); err != nil {
		return nil, fmt.Errorf("mark delivered: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	for _, m := range replies {
		m.Delivered = true
	}
	return replies, nil
}

// ListMessages retrieves the transcript of a session, oldest first.
func (s *SQLiteStore) ListMessages(ctx context.Context, sessionID string, limit int) ([]*store.Message, error) {
	query := `
		SELECT id, session_id, direction, body, delivered, created_at
		FROM (
			SELECT id, session_id, direction, body, delivered, created_at
			FROM messages
			WHERE session_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`
	if limit <= 0 {
		limit = -1 // no limit in SQLite
	}
	rows, err := s.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	return scanMessages(rows)
}

// ListSessions returns sessions ordered by most recent activity.
func (s *SQLiteStore) ListSessions(ctx context.Context) ([]*store.Session, error) {
	query := `
		SELECT session_id,
		       COUNT(*),
		       COALESCE(SUM(CASE WHEN direction = ? AND delivered = 0 THEN 1 ELSE 0 END), 0),
		       MAX(created_at)
		FROM messages
		GROUP BY session_id
		ORDER BY MAX(created_at) DESC, MAX(id) DESC
	`
	rows, err := s.db.QueryContext(ctx, query, string(store.DirectionOperator))
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*store.Session
	for rows.Next() {
		var (
			sess   store.Session
			lastMs int64
		)
		if err := rows.Scan(&sess.ID, &sess.MessageCount, &sess.PendingCount, &lastMs); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		sess.LastActivity = time.UnixMilli(lastMs)
		sessions = append(sessions, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return sessions, nil
}

func scanMessages(rows *sql.Rows) ([]*store.Message, error) {
	defer rows.Close()

	messages := make([]*store.Message, 0)
	for rows.Next() {
		var (
			msg       store.Message
			direction string
			createdMs int64
		)
		if err := rows.Scan(&msg.ID, &msg.SessionID, &direction, &msg.Body, &msg.Delivered, &createdMs); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Direction = store.Direction(direction)
		msg.CreatedAt = time.UnixMilli(createdMs)
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return messages, nil
}

// ==== PresenceStore implementation ====

// SetPresence records the operator presence flag.
func (s *SQLiteStore) SetPresence(ctx context.Context, online bool, ttl time.Duration) error {
	expires := s.now().Add(ttl).UnixMilli()
	query := `
		INSERT INTO presence (id, online, expires_at)
		VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET online = excluded.online, expires_at = excluded.expires_at
	`
	if _, err := s.db.ExecContext(ctx, query, online, expires); err != nil {
		return fmt.Errorf("upsert presence: %w", err)
	}
	return nil
}

// Presence reports whether the operator flagged themselves online and the flag has not lapsed.
func (s *SQLiteStore) Presence(ctx context.Context) (bool, error) {
	var (
		online    bool
		expiresMs int64
	)
	err := s.db.QueryRowContext(ctx, `SELECT online, expires_at FROM presence WHERE id = 1`).Scan(&online, &expiresMs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("query presence: %w", err)
	}
	return online && s.now().UnixMilli() < expiresMs, nil
}
