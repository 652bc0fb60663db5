package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Katebsaber/IFSGuideTask/internal/api/middleware"
	"github.com/Katebsaber/IFSGuideTask/internal/models"
)

// DialogueListResponse represents the dialogue listing response.
type DialogueListResponse struct {
	DialogueIDs []string `json:"dialogue_ids"`
}

// ListDialogues handles listing the caller's dialogue ids (authenticated).
func (h *Handler) ListDialogues(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	skip, limit := pageParams(r, 10, 100)

	ids, err := h.svc.ListDialogues(r.Context(), principal.ID, skip, limit)
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, DialogueListResponse{DialogueIDs: ids})
}

// MessageListResponse represents one page of a dialogue's messages,
// ordered by created_at for display.
type MessageListResponse struct {
	Messages []models.Message `json:"messages"`
}

// ListMessages handles listing the messages of one dialogue
// (authenticated). An unknown or foreign dialogue yields an empty page,
// indistinguishable from an empty one.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	principal := middleware.GetPrincipalFromContext(r.Context())
	if principal == nil {
		h.Error(w, http.StatusUnauthorized, "authentication required")
		return
	}

	dialogueID := chi.URLParam(r, "dialogueID")
	skip, limit := pageParams(r, 10, 100)

	msgs, err := h.svc.ListMessages(r.Context(), dialogueID, principal.ID, skip, limit)
	if err != nil {
		h.ServiceError(w, err)
		return
	}

	h.JSON(w, http.StatusOK, MessageListResponse{Messages: msgs})
}
