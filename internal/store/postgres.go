package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Katebsaber/IFSGuideTask/internal/models"
)

const pgUniqueViolation = "23505"

// PostgresStore handles PostgreSQL database operations.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgreSQL store with a connection pool
// and initializes the schema.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, err
	}

	s := &PostgresStore{pool: pool}
	if err := s.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// initSchema creates the messages table if it does not exist.
// The two partial unique indexes guard the reply-chain invariants: one
// root per dialogue, and at most one reply to any message.
func (s *PostgresStore) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		dialogue_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
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
	_, err := s.pool.Exec(ctx, schema)
	return err
}

// Close closes the database connection pool.
func (s *PostgresStore) Close() {
	s.pool.Close()
}

// Ping checks the database connection.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// CreateMessage persists a new message.
func (s *PostgresStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO messages (id, user_id, dialogue_id, created_at, content, message_type, in_response_to)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, msg.ID, msg.UserID, msg.DialogueID, msg.CreatedAt, msg.Content, msg.Role, msg.InResponseTo)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return ErrDuplicateMessage
		}
		return err
	}
	return nil
}

// GetMessage retrieves a message by id, filtered by owner.
func (s *PostgresStore) GetMessage(ctx context.Context, id, userID string) (*models.Message, error) {
	msg := &models.Message{}
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, dialogue_id, created_at, content, message_type, in_response_to
		FROM messages WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(
		&msg.ID,
		&msg.UserID,
		&msg.DialogueID,
		&msg.CreatedAt,
		&msg.Content,
		&msg.Role,
		&msg.InResponseTo,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return msg, nil
}

// ListDialogueIDs retrieves distinct dialogue ids owned by a user.
// Ordered by first activity so pagination stays stable absent writes.
func (s *PostgresStore) ListDialogueIDs(ctx context.Context, userID string, offset, limit int) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT dialogue_id
		FROM messages
		WHERE user_id = $1
		GROUP BY dialogue_id
		ORDER BY MIN(created_at), dialogue_id
		LIMIT $2 OFFSET $3
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
func (s *PostgresStore) ListDialogueMessages(ctx context.Context, dialogueID, userID string) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, dialogue_id, created_at, content, message_type, in_response_to
		FROM messages
		WHERE dialogue_id = $1 AND user_id = $2
	`, dialogueID, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPgMessages(rows)
}

// ListDialogueMessagesPage retrieves a created_at-ordered page of a dialogue.
func (s *PostgresStore) ListDialogueMessagesPage(ctx context.Context, dialogueID, userID string, offset, limit int) ([]models.Message, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, dialogue_id, created_at, content, message_type, in_response_to
		FROM messages
		WHERE dialogue_id = $1 AND user_id = $2
		ORDER BY created_at, id
		LIMIT $3 OFFSET $4
	`, dialogueID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanPgMessages(rows)
}

func scanPgMessages(rows pgx.Rows) ([]models.Message, error) {
	msgs := []models.Message{}
	for rows.Next() {
		var msg models.Message
		err := rows.Scan(
			&msg.ID,
			&msg.UserID,
			&msg.DialogueID,
			&msg.CreatedAt,
			&msg.Content,
			&msg.Role,
			&msg.InResponseTo,
		)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}
