package services

import (
	"context"
	"io"
	"sync"
	"time"

	"go.uber.org/zap"

	httpclient "taxengine-api/internal/client/http"
	"taxengine-api/internal/logger"
	"taxengine-api/internal/types/responses"
)

// Lifecycle event types delivered to webhook endpoints.
const (
	EventTransactionCommitted = "transaction.committed"
	EventTransactionVoided    = "transaction.voided"
	EventTransactionRefunded  = "transaction.refunded"
)

// WebhookEvent is one lifecycle notification.
type WebhookEvent struct {
	Type        string                        `json:"event_type"`
	Transaction responses.TransactionResponse `json:"transaction"`
	SentAt      time.Time                     `json:"sent_at"`
}

// WebhookDispatcher delivers lifecycle events to configured endpoints from
// a bounded worker pool. Every outbound request goes through the guarded
// HTTP client. A circuit breaker buffers events while endpoints are down
// and flushes them once delivery recovers.
type WebhookDispatcher struct {
	events      chan WebhookEvent
	client      *httpclient.HTTPClient
	endpoints   []string
	workerCount int
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc

	// Circuit breaker state for endpoint downtime.
	mu                  sync.Mutex
	circuitOpen         bool
	consecutiveFailures int
	failureThreshold    int
	resetTimeout        time.Duration
	lastFailureTime     time.Time
	pendingEvents       []WebhookEvent
}

// NewWebhookDispatcher creates a dispatcher for the given endpoints with
// the given number of workers and queue buffer size.
func NewWebhookDispatcher(client *httpclient.HTTPClient, endpoints []string, workerCount, bufferSize int) *WebhookDispatcher {
	ctx, cancel := context.WithCancel(context.Background())

	return &WebhookDispatcher{
		events:           make(chan WebhookEvent, bufferSize),
		client:           client,
		endpoints:        endpoints,
		workerCount:      workerCount,
		ctx:              ctx,
		cancel:           cancel,
		failureThreshold: 3,
		resetTimeout:     time.Minute,
		pendingEvents:    make([]WebhookEvent, 0),
	}
}

// Start launches the worker pool and the circuit breaker monitor.
func (d *WebhookDispatcher) Start() {
	logger.Info("Starting webhook dispatcher",
		zap.Int("worker_count", d.workerCount),
		zap.Int("endpoints", len(d.endpoints)))

	go d.monitorCircuit()

	for i := 0; i < d.workerCount; i++ {
		workerID := i
		d.wg.Add(1)

		go func() {
			defer d.wg.Done()
			logger.Debug("Webhook worker started", zap.Int("worker_id", workerID))

			for {
				select {
				case <-d.ctx.Done():
					logger.Debug("Webhook worker stopped", zap.Int("worker_id", workerID))
					return
				case event := <-d.events:
					d.deliver(event)
				}
			}
		}()
	}
}

// Stop drains the workers and shuts the dispatcher down.
func (d *WebhookDispatcher) Stop() {
	logger.Info("Stopping webhook dispatcher")
	d.cancel()
	d.wg.Wait()
	logger.Info("Webhook dispatcher stopped")
}

// Enqueue queues an event for delivery. It never blocks the caller: when
// the circuit is open the event is buffered, and when the queue is full the
// event is dropped with an error log rather than stalling a commit.
func (d *WebhookDispatcher) Enqueue(event WebhookEvent) {
	if len(d.endpoints) == 0 {
		return
	}
	event.SentAt = time.Now()

	d.mu.Lock()
	if d.circuitOpen {
		d.pendingEvents = append(d.pendingEvents, event)
		d.mu.Unlock()
		logger.Info("Circuit open, buffering webhook event",
			zap.String("event_type", event.Type),
			zap.String("transaction_id", event.Transaction.ID.String()))
		return
	}
	d.mu.Unlock()

	select {
	case d.events <- event:
	default:
		logger.Error("Webhook queue full, dropping event",
			zap.String("event_type", event.Type),
			zap.String("transaction_id", event.Transaction.ID.String()))
	}
}

// deliver posts the event to every configured endpoint.
func (d *WebhookDispatcher) deliver(event WebhookEvent) {
	ctx, cancel := context.WithTimeout(d.ctx, 30*time.Second)
	defer cancel()

	allFailed := len(d.endpoints) > 0
	for _, endpoint := range d.endpoints {
		resp, err := d.client.Post(ctx, endpoint, event)
		if err != nil {
			if resp != nil && resp.Body != nil {
				_, _ = io.Copy(io.Discard, resp.Body)
				_ = resp.Body.Close()
			}
			logger.Warn("Webhook delivery failed",
				zap.String("endpoint", endpoint),
				zap.String("event_type", event.Type),
				zap.Error(err))
			continue
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
		allFailed = false
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if allFailed {
		d.consecutiveFailures++
		d.lastFailureTime = time.Now()
		d.pendingEvents = append(d.pendingEvents, event)

		if d.consecutiveFailures >= d.failureThreshold && !d.circuitOpen {
			logger.Warn("Opening webhook circuit breaker",
				zap.Int("failure_count", d.consecutiveFailures),
				zap.Int("threshold", d.failureThreshold))
			d.circuitOpen = true
		}
		return
	}
	if d.consecutiveFailures > 0 {
		d.consecutiveFailures = 0
		logger.Info("Webhook delivery recovered, failure counter reset")
	}
}

// monitorCircuit half-opens the breaker after the reset timeout and
// re-queues any buffered events.
func (d *WebhookDispatcher) monitorCircuit() {
	ticker := time.NewTicker(10 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-d.ctx.Done():
			return
		case <-ticker.C:
			d.mu.Lock()
			if !d.circuitOpen || time.Since(d.lastFailureTime) < d.resetTimeout {
				d.mu.Unlock()
				continue
			}
			logger.Info("Resetting webhook circuit breaker",
				zap.Int("pending_events", len(d.pendingEvents)))
			d.circuitOpen = false
			d.consecutiveFailures = 0
			pending := d.pendingEvents
			d.pendingEvents = make([]WebhookEvent, 0)
			d.mu.Unlock()

			for _, event := range pending {
				select {
				case d.events <- event:
				default:
					logger.Error("Webhook queue full while flushing buffered events",
						zap.String("event_type", event.Type))
				}
			}
		}
	}
}

var _ Notifier = (*WebhookDispatcher)(nil)
