package moderation

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Classify(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/classify", r.URL.Path)

		var req classifyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "buy cheap pills", req.Text)

		json.NewEncoder(w).Encode(Verdict{Spam: true})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, slog.Default())

	v, err := c.Classify(context.Background(), "buy cheap pills", "")
	require.NoError(t, err)
	assert.True(t, v.Spam)
	assert.False(t, v.Toxic)
}

func TestClient_Classify_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, slog.Default())

	_, err := c.Classify(context.Background(), "hello", "")
	require.Error(t, err)
}

func TestStub_ApprovesEverything(t *testing.T) {
	v, err := NewStub().Classify(context.Background(), "anything at all", "")
	require.NoError(t, err)
	assert.Equal(t, Verdict{}, v)
}
