package mathengine

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_FetchSnapshot(t *testing.T) {
	conv := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/conversations/"+conv.String()+"/snapshot", r.URL.Path)
		require.Equal(t, "3", r.URL.Query().Get("since"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"version":7,"priorities":{"10":2.5,"11":0},"groups":{"1":0,"2":1},"computedAt":"2026-08-25T10:00:00Z"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, slog.Default())

	snap, err := c.FetchSnapshot(context.Background(), conv, 3)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, int64(7), snap.Version)
	assert.Equal(t, 2.5, snap.Priorities[10])
	assert.Equal(t, float64(0), snap.Priorities[11])
	assert.Equal(t, int32(1), snap.Groups[2])
}

func TestClient_FetchSnapshot_NothingNewer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, slog.Default())

	snap, err := c.FetchSnapshot(context.Background(), uuid.New(), 7)
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestClient_ItemsForTopics(t *testing.T) {
	conv := uuid.New()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/conversations/"+conv.String()+"/topics/items", r.URL.Path)
		require.Equal(t, "housing,transit", r.URL.Query().Get("keys"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"itemIds":[4,8,15]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, slog.Default())

	ids, err := c.ItemsForTopics(context.Background(), conv, []string{"housing", "transit"})
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 8, 15}, ids)
}

func TestClient_ItemsForTopics_NoKeys(t *testing.T) {
	c := NewClient("http://unused", time.Second, slog.Default())

	ids, err := c.ItemsForTopics(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Nil(t, ids)
}
