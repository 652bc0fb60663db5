// Package memory recovers the linear transcript of a dialogue from the
// reply chain of its messages.
//
// Ordering by created_at is deliberately not done: timestamp precision
// varies across storage backends, so two adjacent messages can carry
// equal or even inverted timestamps. Each message instead stores a
// back-reference to the one it answers, which makes the true order
// recoverable regardless of what the clock said.
package memory

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Katebsaber/IFSGuideTask/internal/models"
)

// ErrMalformedDialogue reports a dialogue whose reply chain cannot be
// linearized: no unique terminal message, a back-reference to a message
// outside the dialogue, or a cycle.
var ErrMalformedDialogue = errors.New("memory: malformed dialogue")

// Transcript is the rendered, ordered form of a dialogue.
type Transcript struct {
	// Memory is the transcript text, used verbatim as the inference prompt.
	Memory string
	// LastMessageID identifies the terminal message; the next human turn
	// answers it.
	LastMessageID string
}

// Rebuild recovers the transcript from the unordered messages of one
// dialogue.
//
// The terminal message is the single id that no other message references
// (set difference of ids and back-references). Walking back-references
// from there to the root and reversing yields creation order. Pure
// function: the result does not depend on input order. O(n).
func Rebuild(msgs []models.Message) (Transcript, error) {
	if len(msgs) == 0 {
		return Transcript{}, fmt.Errorf("%w: no messages", ErrMalformedDialogue)
	}

	byID := make(map[string]*models.Message, len(msgs))
	answered := make(map[string]bool, len(msgs))
	for i := range msgs {
		byID[msgs[i].ID] = &msgs[i]
		if p := msgs[i].InResponseTo; p != nil {
			answered[*p] = true
		}
	}

	var terminal *models.Message
	for i := range msgs {
		if answered[msgs[i].ID] {
			continue
		}
		if terminal != nil {
			return Transcript{}, fmt.Errorf("%w: multiple terminal messages", ErrMalformedDialogue)
		}
		terminal = &msgs[i]
	}
	if terminal == nil {
		// Every id is referenced by some other message: the chain loops.
		return Transcript{}, fmt.Errorf("%w: reply chain has a cycle", ErrMalformedDialogue)
	}

	// Walk terminal → root. The length bound catches cycles reachable
	// from the terminal.
	chain := make([]*models.Message, 0, len(msgs))
	for cur := terminal; ; {
		if len(chain) == len(msgs) {
			return Transcript{}, fmt.Errorf("%w: reply chain has a cycle", ErrMalformedDialogue)
		}
		chain = append(chain, cur)
		if cur.InResponseTo == nil {
			break
		}
		next, ok := byID[*cur.InResponseTo]
		if !ok {
			return Transcript{}, fmt.Errorf("%w: back-reference to unknown message %s", ErrMalformedDialogue, *cur.InResponseTo)
		}
		cur = next
	}
	if len(chain) != len(msgs) {
		// Root reached without visiting everything: a side branch exists.
		return Transcript{}, fmt.Errorf("%w: messages outside the reply chain", ErrMalformedDialogue)
	}

	// Render root → terminal. The root goes unlabeled: it holds the
	// composed opening prompt, which already embeds the first human turn.
	lines := make([]string, len(chain))
	for i := range chain {
		m := chain[len(chain)-1-i]
		if m.InResponseTo == nil {
			lines[i] = m.Content
		} else {
			lines[i] = fmt.Sprintf("%s : %s", m.Role, m.Content)
		}
	}

	return Transcript{
		Memory:        strings.TrimSpace(strings.Join(lines, " \n ")),
		LastMessageID: terminal.ID,
	}, nil
}
