package agent

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateAppendsRoleCue(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPrompt = r.URL.Query().Get("prompt")
		w.Write([]byte(`"Take a deep breath."`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	text, err := c.Generate(context.Background(), "HUMAN : I feel anxious")
	require.NoError(t, err)
	require.Equal(t, "HUMAN : I feel anxious \n CHATBOT : ", gotPrompt, "prompt carries the chatbot cue")
	require.Equal(t, "Take a deep breath.", text, "JSON string body is unquoted")
}

func TestGenerateNoCompletion(t *testing.T) {
	for _, body := range []string{"", "{}", "  {}  "} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(body))
		}))

		c := NewClient(srv.URL)
		text, err := c.Generate(context.Background(), "prompt")
		require.NoError(t, err, "body %q", body)
		require.Empty(t, text, "body %q", body)
		srv.Close()
	}
}

func TestGeneratePlainTextPassthrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("plain text reply"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	text, err := c.Generate(context.Background(), "prompt")
	require.NoError(t, err)
	require.Equal(t, "plain text reply", text)
}

func TestGenerateUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Generate(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrUpstream)
}

func TestGenerateUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Generate(context.Background(), "prompt")
	require.ErrorIs(t, err, ErrUpstream)
}
