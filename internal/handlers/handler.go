package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/Katebsaber/IFSGuideTask/internal/dialogue"
	"github.com/Katebsaber/IFSGuideTask/internal/store"
)

// Handler contains shared dependencies for all HTTP handlers.
type Handler struct {
	svc   *dialogue.Service
	db    store.MessageStore
	redis *store.RedisStore
}

// NewHandler creates a new Handler with the given service and stores.
func NewHandler(svc *dialogue.Service, db store.MessageStore, redis *store.RedisStore) *Handler {
	return &Handler{svc: svc, db: db, redis: redis}
}

// JSON sends a JSON response with the given status code.
func (h *Handler) JSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// Error sends a JSON error response with the given status code.
func (h *Handler) Error(w http.ResponseWriter, status int, message string) {
	h.JSON(w, status, map[string]string{"error": message})
}

// ServiceError maps a dialogue service error onto the HTTP response.
// Server-side failures stay opaque: the client sees a short diagnostic,
// never internal detail.
func (h *Handler) ServiceError(w http.ResponseWriter, err error) {
	var de *dialogue.Error
	if !errors.As(err, &de) {
		h.Error(w, http.StatusInternalServerError, "internal error")
		return
	}

	switch de.Code {
	case dialogue.ErrorInvalidInput:
		h.Error(w, http.StatusBadRequest, de.Reason)
	case dialogue.ErrorNotFound:
		// Absent and not-owned share one answer to avoid leaking
		// dialogue existence to non-owners.
		h.Error(w, http.StatusNotFound, "dialogue not found or user is not permitted to read")
	case dialogue.ErrorConflict:
		h.Error(w, http.StatusConflict, "dialogue was updated concurrently")
	case dialogue.ErrorUpstream:
		h.Error(w, http.StatusInternalServerError, "upstream service error")
	case dialogue.ErrorMalformed:
		h.Error(w, http.StatusInternalServerError, "dialogue state is inconsistent")
	default:
		h.Error(w, http.StatusInternalServerError, "internal error")
	}
}

// pageParams reads skip/limit query parameters with the given defaults,
// clamping limit to maxLimit.
func pageParams(r *http.Request, defaultLimit, maxLimit int) (skip, limit int) {
	skip = 0
	limit = defaultLimit

	if s := r.URL.Query().Get("skip"); s != "" {
		if v, err := strconv.Atoi(s); err == nil && v >= 0 {
			skip = v
		}
	}
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 {
			limit = v
		}
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return skip, limit
}
