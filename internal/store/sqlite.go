package store

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"

	"github.com/mattn/go-sqlite3"

	"github.com/Katebsaber/IFSGuideTask/internal/models"
)

// SQLiteStore handles SQLite database operations. It is the development
// fallback when no DATABASE_URL is configured.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store.
// If dbPath is empty, defaults to "./data/dialogue.db"
func NewSQLiteStore(ctx context.Context, dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = "./data/dialogue.db"
	}

	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}

	store := &SQLiteStore{db: db}

	if err := store.initSchema(ctx); err != nil {
		return nil, err
	}

	return store, nil
}

// initSchema creates the messages table if it does not exist. Same
// reply-chain guard indexes as the PostgreSQL schema.
func (s *SQLiteStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		dialogue_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		message_type TEXT NOT NULL,
		in_response_to TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_messages_user ON messages(user_id);
	CREATE INDEX IF NOT EXISTS idx_messages_dialogue ON messages(dialogue_id);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_parent
		ON messages(dialogue_id, in_response_to) WHERE in_response_to IS NOT NULL;
	CREATE UNIQUE INDEX IF NOT EXISTS idx_messages_root
		ON messages(dialogue_id) WHERE in_response_to IS NULL;
	`

	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() {
	s.db.Close()
}

// Ping checks the database connection.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// CreateMessage persists a new message.
func (s *SQLiteStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO messages (id, user_id, dialogue_id, created_at, content, message_type, in_response_to)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, msg.ID, msg.UserID, msg.DialogueID, msg.CreatedAt, msg.Content, string(msg.Role), msg.InResponseTo)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return ErrDuplicateMessage
		}
		return err
	}
	return nil
}

// GetMessage retrieves a message by id, filtered by owner.
func (s *SQLiteStore) GetMessage(ctx context.Context, id, userID string) (*models.Message, error) {
	msg := &models.Message{}
	var role string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, dialogue_id, created_at, content, message_type, in_response_to
		FROM messages WHERE id = ? AND user_id = ?
	`, id, userID).Scan(
		&msg.ID,
		&msg.UserID,
		&msg.DialogueID,
		&msg.CreatedAt,
		&msg.Content,
		&role,
		&msg.InResponseTo,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	msg.Role = models.Role(role)
	return msg, nil
}

// ListDialogueIDs retrieves distinct dialogue ids owned by a user.
// Ordered by first activity so pagination stays stable absent writes.
func (s *SQLiteStore) ListDialogueIDs(ctx context.Context, userID string, offset, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT dialogue_id
		FROM messages
		WHERE user_id = ?
		GROUP BY dialogue_id
		ORDER BY MIN(created_at), dialogue_id
		LIMIT ? OFFSET ?
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListDialogueMessages retrieves every message of a dialogue owned by a user.
func (s *SQLiteStore) ListDialogueMessages(ctx context.Context, dialogueID, userID string) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, dialogue_id, created_at, content, message_type, in_response_to
		FROM messages
		WHERE dialogue_id = ? AND user_id = ?
	`, dialogueID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSQLiteMessages(rows)
}

// ListDialogueMessagesPage retrieves a created_at-ordered page of a dialogue.
func (s *SQLiteStore) ListDialogueMessagesPage(ctx context.Context, dialogueID, userID string, offset, limit int) ([]models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, dialogue_id, created_at, content, message_type, in_response_to
		FROM messages
		WHERE dialogue_id = ? AND user_id = ?
		ORDER BY created_at, id
		LIMIT ? OFFSET ?
	`, dialogueID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanSQLiteMessages(rows)
}

func scanSQLiteMessages(rows *sql.Rows) ([]models.Message, error) {
	msgs := []models.Message{}
	for rows.Next() {
		var msg models.Message
		var role string
		err := rows.Scan(
			&msg.ID,
			&msg.UserID,
			&msg.DialogueID,
			&msg.CreatedAt,
			&msg.Content,
			&role,
			&msg.InResponseTo,
		)
		if err != nil {
			return nil, err
		}
		msg.Role = models.Role(role)
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
