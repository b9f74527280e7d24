package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taxengine-api/internal/guard"
)

// localGuard permits the httptest server's loopback address.
func localGuard() *guard.OutboundGuard {
	return guard.NewOutboundGuard(guard.Config{
		AllowedHosts:  []string{"127.0.0.1"},
		AllowLoopback: true,
	})
}

func TestGetSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(localGuard(), WithBaseURL(server.URL))

	resp, err := client.Get(context.Background(), "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPostRetriesRetryableStatus(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(localGuard(),
		WithBaseURL(server.URL),
		WithRetryConfig(&RetryConfig{
			MaxRetries:           3,
			InitialInterval:      time.Millisecond,
			MaxInterval:          5 * time.Millisecond,
			Multiplier:           2.0,
			MaxElapsedTime:       time.Second,
			RetryableStatusCodes: []int{503},
		}))

	resp, err := client.Post(context.Background(), "/hook", map[string]string{"k": "v"})
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "body must be rebuilt per attempt")
}

func TestNonRetryableErrorReturned(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error":"bad payload"}`))
	}))
	defer server.Close()

	client := NewHTTPClient(localGuard(), WithBaseURL(server.URL))

	resp, err := client.Post(context.Background(), "/hook", nil)
	require.Error(t, err)
	defer resp.Body.Close()

	var httpErr *HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusUnprocessableEntity, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "bad payload")
}

func TestGuardBlocksBeforeNetwork(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer server.Close()

	// Loopback not permitted: guard must reject without a single request.
	blocked := guard.NewOutboundGuard(guard.Config{AllowedHosts: []string{"example.com"}})
	client := NewHTTPClient(blocked, WithBaseURL(server.URL))

	_, err := client.Get(context.Background(), "/secret")
	require.Error(t, err)

	var blockedErr *guard.BlockedError
	assert.ErrorAs(t, err, &blockedErr)
	assert.Zero(t, atomic.LoadInt32(&calls), "blocked request must never reach the network")
}

func TestDefaultHeadersApplied(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "token-1", r.Header.Get("x-api-key"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewHTTPClient(localGuard(), WithBaseURL(server.URL))

	resp, err := client.Post(context.Background(), "/v1/validate", nil, WithHeader("x-api-key", "token-1"))
	require.NoError(t, err)
	resp.Body.Close()
}
