package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpclient "taxengine-api/internal/client/http"
	"taxengine-api/internal/guard"
	"taxengine-api/internal/types/responses"
)

func dispatcherClient(t *testing.T) *httpclient.HTTPClient {
	t.Helper()
	g := guard.NewOutboundGuard(guard.Config{AllowLoopback: true})
	return httpclient.NewHTTPClient(g,
		httpclient.WithRetryConfig(&httpclient.RetryConfig{}))
}

func TestDispatcherDeliversEvents(t *testing.T) {
	var delivered int32
	var lastType atomic.Value

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var event WebhookEvent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&event))
		lastType.Store(event.Type)
		atomic.AddInt32(&delivered, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	d := NewWebhookDispatcher(dispatcherClient(t), []string{server.URL}, 2, 10)
	d.Start()
	defer d.Stop()

	d.Enqueue(WebhookEvent{
		Type: EventTransactionCommitted,
		Transaction: responses.TransactionResponse{
			ID:          uuid.New(),
			AmountCents: 10000,
			Currency:    "USD",
		},
	})

	assert.Eventually(t, func() bool {
		return atomic.LoadInt32(&delivered) == 1
	}, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, EventTransactionCommitted, lastType.Load())
}

func TestDispatcherWithoutEndpointsDropsSilently(t *testing.T) {
	d := NewWebhookDispatcher(dispatcherClient(t), nil, 1, 1)
	d.Start()
	defer d.Stop()

	// Must not block or panic regardless of volume.
	for i := 0; i < 10; i++ {
		d.Enqueue(WebhookEvent{Type: EventTransactionVoided})
	}
}

func TestDispatcherOpensCircuitAfterConsecutiveFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	d := NewWebhookDispatcher(dispatcherClient(t), []string{server.URL}, 1, 10)
	d.Start()
	defer d.Stop()

	for i := 0; i < 3; i++ {
		d.Enqueue(WebhookEvent{Type: EventTransactionCommitted})
	}

	assert.Eventually(t, func() bool {
		d.mu.Lock()
		defer d.mu.Unlock()
		return d.circuitOpen
	}, 5*time.Second, 10*time.Millisecond)

	// Buffered, not dropped: the failed deliveries wait for the reset.
	d.mu.Lock()
	pending := len(d.pendingEvents)
	d.mu.Unlock()
	assert.GreaterOrEqual(t, pending, 3)
}
