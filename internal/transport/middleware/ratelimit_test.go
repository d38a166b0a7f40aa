package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func limited(t *testing.T, maxPerMinute int) (http.Handler, func()) {
	t.Helper()
	rl := NewRateLimiter(time.Minute)
	h := rl.Limit(maxPerMinute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	return h, rl.Stop
}

func hit(handler http.Handler, remoteAddr string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/api/votes", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	handler, stop := limited(t, 5)
	defer stop()

	for i := 0; i < 5; i++ {
		require.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:1234").Code, "request %d", i)
	}

	rec := hit(handler, "1.2.3.4:1234")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestRateLimiter_SameClientDifferentPortsShareBucket(t *testing.T) {
	handler, stop := limited(t, 2)
	defer stop()

	require.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:1111").Code)
	require.Equal(t, http.StatusOK, hit(handler, "1.2.3.4:2222").Code)

	assert.Equal(t, http.StatusTooManyRequests, hit(handler, "1.2.3.4:3333").Code)
}

func TestRateLimiter_DifferentIPsIndependent(t *testing.T) {
	handler, stop := limited(t, 2)
	defer stop()

	for i := 0; i < 2; i++ {
		hit(handler, "1.1.1.1:1234")
	}

	assert.Equal(t, http.StatusOK, hit(handler, "2.2.2.2:5678").Code)
}

func TestRateLimiter_TokenRefill(t *testing.T) {
	// 60 per minute = 1 per second
	handler, stop := limited(t, 60)
	defer stop()

	for i := 0; i < 60; i++ {
		hit(handler, "3.3.3.3:1234")
	}
	require.Equal(t, http.StatusTooManyRequests, hit(handler, "3.3.3.3:1234").Code)

	time.Sleep(1100 * time.Millisecond)

	assert.Equal(t, http.StatusOK, hit(handler, "3.3.3.3:1234").Code)
}
