package store

import (
	"context"
	"errors"

	"github.com/Katebsaber/IFSGuideTask/internal/models"
)

// ErrDuplicateMessage is returned when a write collides with an existing
// message: either the id is already taken, or another message in the
// same dialogue already answers the same parent. The latter catches two
// concurrent continuations of one dialogue before they can fork the
// reply chain.
var ErrDuplicateMessage = errors.New("store: duplicate message")

// MessageStore defines the interface for durable message storage.
// Both PostgresStore and SQLiteStore implement this interface.
type MessageStore interface {
	// Connection management
	Close()
	Ping(ctx context.Context) error

	// CreateMessage persists a new message. Messages are immutable;
	// there is no update or delete.
	CreateMessage(ctx context.Context, msg *models.Message) error

	// GetMessage returns the message with the given id if it is owned
	// by userID, or nil when absent or owned by someone else.
	GetMessage(ctx context.Context, id, userID string) (*models.Message, error)

	// ListDialogueIDs returns distinct dialogue identifiers owned by
	// userID. Order is stable across calls absent writes.
	ListDialogueIDs(ctx context.Context, userID string, offset, limit int) ([]string, error)

	// ListDialogueMessages returns every message of a dialogue owned by
	// userID, in no contractual order. An unknown or foreign dialogue
	// yields an empty slice, not an error.
	ListDialogueMessages(ctx context.Context, dialogueID, userID string) ([]models.Message, error)

	// ListDialogueMessagesPage returns a created_at-ordered page of a
	// dialogue's messages. Display only: created_at precision varies by
	// backend, so this order must never feed transcript reconstruction.
	ListDialogueMessagesPage(ctx context.Context, dialogueID, userID string, offset, limit int) ([]models.Message, error)
}
