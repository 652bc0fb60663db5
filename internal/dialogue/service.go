package dialogue

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/Katebsaber/IFSGuideTask/internal/ident"
	"github.com/Katebsaber/IFSGuideTask/internal/memory"
	"github.com/Katebsaber/IFSGuideTask/internal/metrics"
	"github.com/Katebsaber/IFSGuideTask/internal/models"
	"github.com/Katebsaber/IFSGuideTask/internal/store"
)

// Generator produces the agent's reply for a rendered transcript.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Service orchestrates dialogue turns: it decides between opening a new
// dialogue and continuing an existing one, rebuilds the transcript from
// the reply chain, calls the inference service, and persists both sides
// of the turn. Persistence happens only after generation succeeds, so a
// failed turn leaves no partial writes.
type Service struct {
	store    store.MessageStore
	agent    Generator
	preamble string
	logger   zerolog.Logger
}

// NewService creates a dialogue service. preamble is the fixed system
// text prepended to the first message of every new dialogue.
func NewService(st store.MessageStore, agent Generator, preamble string, logger zerolog.Logger) *Service {
	return &Service{
		store:    st,
		agent:    agent,
		preamble: preamble,
		logger:   logger,
	}
}

// ConverseInput is one inbound turn.
type ConverseInput struct {
	UserID     string
	DialogueID string // empty opens a new dialogue
	Message    string
}

// ConverseOutput is the result of a completed turn.
type ConverseOutput struct {
	Memory string         `json:"memory"`
	Reply  models.Message `json:"reply"`
}

// Converse handles one turn for an authenticated user.
func (s *Service) Converse(ctx context.Context, in ConverseInput) (ConverseOutput, error) {
	text := strings.TrimSpace(in.Message)
	if text == "" {
		return ConverseOutput{}, newError(ErrorInvalidInput, "empty_message", nil)
	}

	if in.DialogueID == "" {
		return s.open(ctx, in.UserID, text)
	}
	return s.resume(ctx, in.UserID, in.DialogueID, text)
}

// open starts a new dialogue. The opening prompt embeds the preamble
// and the first human turn, and is stored as the root message's content
// so later reconstructions reproduce it verbatim.
func (s *Service) open(ctx context.Context, userID, text string) (ConverseOutput, error) {
	dialogueID := ident.NewDialogueID()
	prompt := fmt.Sprintf("%s \n\n HUMAN : %s", s.preamble, text)

	human := models.Message{
		ID:         ident.NewMessageID(),
		UserID:     userID,
		DialogueID: dialogueID,
		CreatedAt:  time.Now().UTC(),
		Content:    prompt,
		Role:       models.RoleHuman,
	}

	reply, err := s.generateReply(ctx, prompt, &human)
	if err != nil {
		return ConverseOutput{}, err
	}
	if err := s.persistTurn(ctx, &human, &reply); err != nil {
		return ConverseOutput{}, err
	}

	metrics.DialoguesStarted.Inc()
	metrics.TurnsCompleted.Inc()
	s.logger.Info().
		Str("user_id", userID).
		Str("dialogue_id", dialogueID).
		Msg("dialogue opened")

	return ConverseOutput{Memory: prompt, Reply: reply}, nil
}

// resume continues an existing dialogue.
func (s *Service) resume(ctx context.Context, userID, dialogueID, text string) (ConverseOutput, error) {
	msgs, err := s.store.ListDialogueMessages(ctx, dialogueID, userID)
	if err != nil {
		return ConverseOutput{}, newError(ErrorInternal, "store_read_error", err)
	}
	// Absent and not-owned are deliberately indistinguishable: a 404
	// must not leak whether the dialogue exists.
	if len(msgs) == 0 {
		return ConverseOutput{}, newError(ErrorNotFound, "dialogue_not_found", nil)
	}

	transcript, err := memory.Rebuild(msgs)
	if err != nil {
		metrics.MalformedDialogues.Inc()
		s.logger.Error().
			Err(err).
			Str("dialogue_id", dialogueID).
			Int("messages", len(msgs)).
			Msg("reply chain failed reconstruction")
		return ConverseOutput{}, newError(ErrorMalformed, "reply_chain_broken", err)
	}

	mem := fmt.Sprintf("%s \n HUMAN : %s", transcript.Memory, text)
	lastID := transcript.LastMessageID

	human := models.Message{
		ID:           ident.NewMessageID(),
		UserID:       userID,
		DialogueID:   dialogueID,
		CreatedAt:    time.Now().UTC(),
		Content:      text,
		Role:         models.RoleHuman,
		InResponseTo: &lastID,
	}

	reply, err := s.generateReply(ctx, mem, &human)
	if err != nil {
		return ConverseOutput{}, err
	}
	if err := s.persistTurn(ctx, &human, &reply); err != nil {
		return ConverseOutput{}, err
	}

	metrics.TurnsCompleted.Inc()
	s.logger.Info().
		Str("user_id", userID).
		Str("dialogue_id", dialogueID).
		Int("turns", len(msgs)/2+1).
		Msg("dialogue continued")

	return ConverseOutput{Memory: mem, Reply: reply}, nil
}

// generateReply calls the inference service and shapes its answer as
// the child message of the given human turn. No writes happen here.
func (s *Service) generateReply(ctx context.Context, prompt string, parent *models.Message) (models.Message, error) {
	text, err := s.agent.Generate(ctx, prompt)
	if err != nil {
		metrics.UpstreamErrors.WithLabelValues("inference").Inc()
		return models.Message{}, newError(ErrorUpstream, "inference_error", err)
	}

	parentID := parent.ID
	return models.Message{
		ID:           ident.NewMessageID(),
		UserID:       parent.UserID,
		DialogueID:   parent.DialogueID,
		CreatedAt:    time.Now().UTC(),
		Content:      text,
		Role:         models.RoleChatbot,
		InResponseTo: &parentID,
	}, nil
}

// persistTurn writes the human message and the reply. A duplicate on
// the human write means another continuation answered the same terminal
// first; surfacing it as a conflict keeps the reply chain a single path.
func (s *Service) persistTurn(ctx context.Context, human, reply *models.Message) error {
	if err := s.store.CreateMessage(ctx, human); err != nil {
		if errors.Is(err, store.ErrDuplicateMessage) {
			return newError(ErrorConflict, "concurrent_append", err)
		}
		return newError(ErrorInternal, "store_write_error", err)
	}
	if err := s.store.CreateMessage(ctx, reply); err != nil {
		return newError(ErrorInternal, "store_write_error", err)
	}
	return nil
}

// ListDialogues returns the ids of the user's dialogues, paginated.
func (s *Service) ListDialogues(ctx context.Context, userID string, skip, limit int) ([]string, error) {
	ids, err := s.store.ListDialogueIDs(ctx, userID, skip, limit)
	if err != nil {
		return nil, newError(ErrorInternal, "store_read_error", err)
	}
	return ids, nil
}

// ListMessages returns a created_at-ordered page of a dialogue's
// messages, for display only.
func (s *Service) ListMessages(ctx context.Context, dialogueID, userID string, skip, limit int) ([]models.Message, error) {
	msgs, err := s.store.ListDialogueMessagesPage(ctx, dialogueID, userID, skip, limit)
	if err != nil {
		return nil, newError(ErrorInternal, "store_read_error", err)
	}
	return msgs, nil
}
