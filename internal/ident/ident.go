package ident

import (
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewDialogueID generates a time-ordered UUID v7 for a new dialogue.
func NewDialogueID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewMessageID generates a ULID for a new message.
func NewMessageID() string {
	return ulid.Make().String()
}
