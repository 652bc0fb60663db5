package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/Katebsaber/IFSGuideTask/internal/api"
	"github.com/Katebsaber/IFSGuideTask/internal/auth"
	"github.com/Katebsaber/IFSGuideTask/internal/config"
	"github.com/Katebsaber/IFSGuideTask/internal/dialogue"
	"github.com/Katebsaber/IFSGuideTask/internal/handlers"
	"github.com/Katebsaber/IFSGuideTask/internal/models"
	"github.com/Katebsaber/IFSGuideTask/internal/store"
)

const (
	testToken    = "Bearer alice-token"
	testPreamble = "You are a helpful counselor."
)

// memStore is an in-memory MessageStore for router-level tests.
type memStore struct {
	msgs []models.Message
}

func (m *memStore) Close()                         {}
func (m *memStore) Ping(ctx context.Context) error { return nil }

func (m *memStore) CreateMessage(ctx context.Context, msg *models.Message) error {
	for _, e := range m.msgs {
		if e.ID == msg.ID {
			return store.ErrDuplicateMessage
		}
		if e.DialogueID == msg.DialogueID {
			if e.InResponseTo == nil && msg.InResponseTo == nil {
				return store.ErrDuplicateMessage
			}
			if e.InResponseTo != nil && msg.InResponseTo != nil && *e.InResponseTo == *msg.InResponseTo {
				return store.ErrDuplicateMessage
			}
		}
	}
	m.msgs = append(m.msgs, *msg)
	return nil
}

func (m *memStore) GetMessage(ctx context.Context, id, userID string) (*models.Message, error) {
	for _, e := range m.msgs {
		if e.ID == id && e.UserID == userID {
			cp := e
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListDialogueIDs(ctx context.Context, userID string, offset, limit int) ([]string, error) {
	seen := map[string]bool{}
	ids := []string{}
	for _, e := range m.msgs {
		if e.UserID == userID && !seen[e.DialogueID] {
			seen[e.DialogueID] = true
			ids = append(ids, e.DialogueID)
		}
	}
	if offset > len(ids) {
		offset = len(ids)
	}
	ids = ids[offset:]
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

func (m *memStore) ListDialogueMessages(ctx context.Context, dialogueID, userID string) ([]models.Message, error) {
	out := []models.Message{}
	for _, e := range m.msgs {
		if e.DialogueID == dialogueID && e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) ListDialogueMessagesPage(ctx context.Context, dialogueID, userID string, offset, limit int) ([]models.Message, error) {
	all, _ := m.ListDialogueMessages(ctx, dialogueID, userID)
	if offset > len(all) {
		offset = len(all)
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

type staticGenerator struct {
	reply string
}

func (g *staticGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	return g.reply, nil
}

// staticResolver accepts a single known credential.
type staticResolver struct{}

func (staticResolver) ResolvePrincipal(ctx context.Context, credential string) (*models.Principal, error) {
	if credential != testToken {
		return nil, auth.ErrUnauthorized
	}
	return &models.Principal{ID: "alice", Email: "alice@example.com", Role: "user"}, nil
}

func newTestServer(t *testing.T, reply string) *httptest.Server {
	t.Helper()
	st := &memStore{}
	svc := dialogue.NewService(st, &staticGenerator{reply: reply}, testPreamble, zerolog.Nop())
	r := api.NewRouter(zerolog.Nop(), &config.Config{}, svc, st, nil, staticResolver{})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, srv *httptest.Server, method, path, token string, body interface{}) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, out interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

func TestConverseRequiresAuth(t *testing.T) {
	srv := newTestServer(t, "hello")

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/dialogue", "", handlers.ConverseRequest{Message: "hi"})
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = doJSON(t, srv, http.MethodPost, "/api/v1/dialogue", "Bearer wrong", handlers.ConverseRequest{Message: "hi"})
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestConverseOpensDialogue(t *testing.T) {
	srv := newTestServer(t, "Tell me more about that.")

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/dialogue", testToken, handlers.ConverseRequest{Message: "I feel anxious"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out handlers.ConverseResponse
	decode(t, resp, &out)

	require.Equal(t, testPreamble+" \n\n HUMAN : I feel anxious", out.Memory)
	require.Equal(t, models.RoleChatbot, out.Reply.Role)
	require.Equal(t, "Tell me more about that.", out.Reply.Content)
	require.NotEmpty(t, out.Reply.DialogueID)
	require.NotNil(t, out.Reply.InResponseTo)
}

func TestConverseContinuation(t *testing.T) {
	srv := newTestServer(t, "And how does that feel?")

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/dialogue", testToken, handlers.ConverseRequest{Message: "I feel anxious"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var first handlers.ConverseResponse
	decode(t, resp, &first)

	resp = doJSON(t, srv, http.MethodPost, "/api/v1/dialogue", testToken, handlers.ConverseRequest{
		Message:    "Mostly at night",
		DialogueID: first.Reply.DialogueID,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var second handlers.ConverseResponse
	decode(t, resp, &second)

	want := fmt.Sprintf("%s \n\n HUMAN : I feel anxious \n CHATBOT : And how does that feel? \n HUMAN : Mostly at night", testPreamble)
	require.Equal(t, want, second.Memory)
	require.Equal(t, first.Reply.DialogueID, second.Reply.DialogueID)
}

func TestConverseEmptyMessage(t *testing.T) {
	srv := newTestServer(t, "hello")

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/dialogue", testToken, handlers.ConverseRequest{Message: "   "})
	resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConverseUnknownDialogue(t *testing.T) {
	srv := newTestServer(t, "hello")

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/dialogue", testToken, handlers.ConverseRequest{
		Message:    "hi",
		DialogueID: "no-such-dialogue",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	var body map[string]string
	decode(t, resp, &body)
	require.Equal(t, "dialogue not found or user is not permitted to read", body["error"])
}

func TestConverseRejectsNonJSON(t *testing.T) {
	srv := newTestServer(t, "hello")

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/v1/dialogue", bytes.NewBufferString("message=hi"))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", testToken)

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnsupportedMediaType, resp.StatusCode)
}

func TestListDialogues(t *testing.T) {
	srv := newTestServer(t, "hello")

	for _, msg := range []string{"first dialogue", "second dialogue"} {
		resp := doJSON(t, srv, http.MethodPost, "/api/v1/dialogue", testToken, handlers.ConverseRequest{Message: msg})
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := doJSON(t, srv, http.MethodGet, "/api/v1/dialogues", testToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out handlers.DialogueListResponse
	decode(t, resp, &out)
	require.Len(t, out.DialogueIDs, 2)
}

func TestListMessages(t *testing.T) {
	srv := newTestServer(t, "hello")

	resp := doJSON(t, srv, http.MethodPost, "/api/v1/dialogue", testToken, handlers.ConverseRequest{Message: "hi"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var opened handlers.ConverseResponse
	decode(t, resp, &opened)

	path := "/api/v1/dialogues/" + opened.Reply.DialogueID + "/messages"
	resp = doJSON(t, srv, http.MethodGet, path, testToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out handlers.MessageListResponse
	decode(t, resp, &out)
	require.Len(t, out.Messages, 2)

	// Listing is gated on the credential like every other route.
	resp = doJSON(t, srv, http.MethodGet, path, "", nil)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthIsPublic(t *testing.T) {
	srv := newTestServer(t, "hello")

	resp, err := srv.Client().Get(srv.URL + "/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out handlers.HealthResponse
	decode(t, resp, &out)
	require.Equal(t, "healthy", out.Status)
	require.Equal(t, "pass", out.Checks["database"].Status)
}
