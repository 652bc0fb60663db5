package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/Katebsaber/IFSGuideTask/internal/api/middleware"
	"github.com/Katebsaber/IFSGuideTask/internal/dialogue"
	"github.com/Katebsaber/IFSGuideTask/internal/models"
)

// ConverseRequest represents one inbound dialogue turn.
type ConverseRequest struct {
	Message    string `json:"message"`
	DialogueID string `json:"dialogue_id,omitempty"`
}

// ConverseResponse represents a completed turn: the full rendered
// transcript and the newly created reply record.
type ConverseResponse struct {
	Memory string         `json:"memory"`
	Reply  models.Message `json:"reply"`
}

// Converse handles one dialogue turn (authenticated). An absent
// dialogue_id opens a new dialogue; otherwise the turn continues the
// identified one.
func (h *Handler) Converse(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req ConverseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.Error(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	out, err := h.svc.Converse(r.Context(), dialogue.ConverseInput{
		UserID:     principal.ID,
		DialogueID: req.DialogueID,
		Message:    req.Message,
	})
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, ConverseResponse(out))
}
