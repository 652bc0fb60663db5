package models

import "time"

// Role identifies the author of a message.
type Role string

const (
	RoleHuman   Role = "HUMAN"
	RoleChatbot Role = "CHATBOT"
)

// Message represents one utterance in a dialogue.
//
// Messages form a reply chain: each one carries a back-reference to the
// message it answers, and the opening message of a dialogue has none.
// CreatedAt is advisory only; ordering is always derived from the reply
// chain, never from timestamps.
type Message struct {
	ID           string    `json:"id"` // ULID
	UserID       string    `json:"user_id"`
	DialogueID   string    `json:"dialogue_id"`
	CreatedAt    time.Time `json:"created_at"`
	Content      string    `json:"content"`
	Role         Role      `json:"message_type"`
	InResponseTo *string   `json:"in_response_to,omitempty"`
}
