// Package sqlite provides a core.ConversationStore backed by SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/justanuragmaurya/chat-app/core"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store persists conversations in a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens a connection to the SQLite database at path and runs migrations.
// Use ":memory:" for a private in-memory database.
func Open(path string) (*Store, error) {
	dsn := path + "?_foreign_keys=on&_busy_timeout=5000"
	if path == ":memory:" {
		dsn = "file::memory:?_foreign_keys=on"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if path == ":memory:" {
		// Every connection would see its own empty database.
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// runMigrations applies every embedded migration not yet recorded.
func runMigrations(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version TEXT PRIMARY KEY,
			applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	files, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, file := range files {
		version := strings.TrimSuffix(strings.TrimPrefix(file, "migrations/"), ".sql")

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations WHERE version = ?", version).Scan(&count); err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			continue
		}

		migrationSQL, err := migrations.ReadFile(file)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", version, err)
		}
		if _, err := db.Exec(string(migrationSQL)); err != nil {
			return fmt.Errorf("failed to execute migration %s: %w", version, err)
		}
		if _, err := db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", version, err)
		}
	}

	return nil
}

// CreateConversation implements core.ConversationStore.
func (s *Store) CreateConversation(ctx context.Context, userID string) (core.Conversation, error) {
	c := core.Conversation{ID: core.NewID(), UserID: userID, CreatedAt: s.now().UTC()}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO conversations (id, user_id, created_at) VALUES (?, ?, ?)",
		c.ID, c.UserID, c.CreatedAt,
	)
	if err != nil {
		return core.Conversation{}, fmt.Errorf("create conversation: %w", err)
	}
	return c, nil
}

// GetConversation implements core.ConversationStore.
func (s *Store) GetConversation(ctx context.Context, id string) (core.Conversation, error) {
	var c core.Conversation
	err := s.db.QueryRowContext(ctx,
		"SELECT id, user_id, created_at FROM conversations WHERE id = ?", id,
	).Scan(&c.ID, &c.UserID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Conversation{}, fmt.Errorf("conversation %s: %w", id, core.ErrNotFound)
	}
	if err != nil {
		return core.Conversation{}, fmt.Errorf("get conversation: %w", err)
	}
	return c, nil
}

// ListConversations implements core.ConversationStore.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]core.ConversationSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.created_at,
		       COALESCE((SELECT m.content FROM messages m
		                 WHERE m.conversation_id = c.id
		                 ORDER BY m.seq LIMIT 1), '')
		FROM conversations c
		WHERE c.user_id = ?
		ORDER BY c.seq DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list conversations: %w", err)
	}
	defer rows.Close()

	out := []core.ConversationSummary{}
	for rows.Next() {
		var (
			sum   core.ConversationSummary
			first string
		)
		if err := rows.Scan(&sum.ID, &sum.CreatedAt, &first); err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		sum.Title = core.Title(first)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// AppendMessage implements core.ConversationStore.
func (s *Store) AppendMessage(ctx context.Context, conversationID string, role core.Role, content string) (core.Message, error) {
	m := core.Message{
		ID:             core.NewID(),
		ConversationID: conversationID,
		Role:           role,
		Content:        content,
		CreatedAt:      s.now().UTC(),
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, created_at)
		SELECT ?, id, ?, ?, ? FROM conversations WHERE id = ?`,
		m.ID, string(m.Role), m.Content, m.CreatedAt, conversationID,
	)
	if err != nil {
		return core.Message{}, fmt.Errorf("append message: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.Message{}, fmt.Errorf("conversation %s: %w", conversationID, core.ErrNotFound)
	}
	return m, nil
}

// Messages implements core.ConversationStore.
func (s *Store) Messages(ctx context.Context, conversationID string) ([]core.Message, error) {
	if _, err := s.GetConversation(ctx, conversationID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, conversation_id, role, content, created_at
		FROM messages WHERE conversation_id = ? ORDER BY seq`, conversationID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := []core.Message{}
	for rows.Next() {
		var (
			m    core.Message
			role string
		)
		if err := rows.Scan(&m.ID, &m.ConversationID, &role, &m.Content, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		if m.Role, err = core.ParseRole(role); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// CreateWorkspace implements core.ConversationStore.
func (s *Store) CreateWorkspace(ctx context.Context, userID, name string) (core.Workspace, error) {
	w := core.Workspace{ID: core.NewID(), Name: name, UserID: userID, CreatedAt: s.now().UTC()}
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO workspaces (id, name, user_id, created_at) VALUES (?, ?, ?, ?)",
		w.ID, w.Name, w.UserID, w.CreatedAt,
	)
	if err != nil {
		return core.Workspace{}, fmt.Errorf("create workspace: %w", err)
	}
	return w, nil
}

// ListWorkspaces implements core.ConversationStore.
func (s *Store) ListWorkspaces(ctx context.Context, userID string) ([]core.Workspace, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, user_id, created_at FROM workspaces WHERE user_id = ? ORDER BY seq", userID)
	if err != nil {
		return nil, fmt.Errorf("list workspaces: %w", err)
	}
	defer rows.Close()

	out := []core.Workspace{}
	for rows.Next() {
		var w core.Workspace
		if err := rows.Scan(&w.ID, &w.Name, &w.UserID, &w.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
