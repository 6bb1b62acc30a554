// Package pushsender delivers the folded Task to every push-notification
// config registered for it whenever the engine folds an event, the way
// server/transport POSTs responses to session listeners. Delivery is
// fire-and-forget from the handler's point of view: send failures are
// logged, never returned to the caller.
package pushsender

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gate4ai/a2a/a2a"
	"github.com/gate4ai/a2a/server/pushstore"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	backoff "gopkg.in/cenkalti/backoff.v1"
)

// DefaultTokenHeader is the header carrying the bearer token configured
// on a PushNotificationConfig.
const DefaultTokenHeader = a2a.DefaultPushNotificationTokenHeader

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Sender posts the current Task to every config stored for its task id
// whenever the engine folds an event. One Sender serializes delivery
// per (task id, config id) pair so notifications for a single config
// arrive in fold order; different configs are delivered concurrently.
type Sender struct {
	store       pushstore.Store
	client      HTTPDoer
	logger      *zap.Logger
	tokenHeader string
	limiter     *rate.Limiter

	mu     sync.Mutex
	queues map[string]*configQueue
}

// Option configures a Sender.
type Option func(*Sender)

// WithLogger attaches a logger. The zero value is a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Sender) { s.logger = logger }
}

// WithHTTPClient overrides the HTTP client used to deliver notifications.
func WithHTTPClient(client HTTPDoer) Option {
	return func(s *Sender) { s.client = client }
}

// WithTokenHeader overrides the header name carrying the bearer token.
func WithTokenHeader(header string) Option {
	return func(s *Sender) { s.tokenHeader = header }
}

// WithRateLimit caps outbound webhook POSTs per second across all
// configs, protecting a slow or hostile webhook target from starving
// delivery to everyone else.
func WithRateLimit(rps rate.Limit, burst int) Option {
	return func(s *Sender) { s.limiter = rate.NewLimiter(rps, burst) }
}

// New creates a Sender backed by store.
func New(store pushstore.Store, opts ...Option) *Sender {
	s := &Sender{
		store:       store,
		client:      &http.Client{Timeout: 10 * time.Second},
		logger:      zap.NewNop(),
		tokenHeader: DefaultTokenHeader,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// configQueue serializes deliveries for a single (task, config) pair on
// its own goroutine so a slow webhook only delays its own notifications.
type configQueue struct {
	mu   sync.Mutex
	last chan struct{}
}

// Notify schedules delivery of task to every config registered for
// task.ID. It returns immediately; delivery and its failures happen on
// background goroutines bound by ctx.
func (s *Sender) Notify(ctx context.Context, task *a2a.Task) {
	configs, err := s.store.List(ctx, task.ID)
	if err != nil {
		s.logger.Warn("failed to list push configs", zap.String("taskId", task.ID), zap.Error(err))
		return
	}
	if len(configs) == 0 {
		return
	}

	body, err := json.Marshal(task)
	if err != nil {
		s.logger.Error("failed to marshal task for push notification", zap.String("taskId", task.ID), zap.Error(err))
		return
	}

	for _, config := range configs {
		s.enqueue(ctx, config, body)
	}
}

// enqueue hands one delivery to the per-config serial queue, creating
// the queue's goroutine chain on first use.
func (s *Sender) enqueue(ctx context.Context, config a2a.PushNotificationConfig, body []byte) {
	key := config.ID
	s.mu.Lock()
	if s.queues == nil {
		s.queues = make(map[string]*configQueue)
	}
	q, ok := s.queues[key]
	if !ok {
		q = &configQueue{}
		s.queues[key] = q
	}
	s.mu.Unlock()

	q.mu.Lock()
	prev := q.last
	done := make(chan struct{})
	q.last = done
	q.mu.Unlock()

	go func() {
		defer close(done)
		if prev != nil {
			<-prev
		}
		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return
			}
		}
		s.deliver(ctx, config, body)
	}()
}

// deliver performs one POST with a single retry-with-backoff before
// giving up; every outcome is logged, never surfaced to a caller.
func (s *Sender) deliver(ctx context.Context, config a2a.PushNotificationConfig, body []byte) {
	policy := backoff.NewExponentialBackOff()
	policy.MaxElapsedTime = 5 * time.Second
	attempt := 0

	op := func() error {
		attempt++
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, config.URL, bytes.NewReader(body))
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Content-Type", "application/json")
		if config.Token != nil && *config.Token != "" {
			req.Header.Set(s.tokenHeader, *config.Token)
		}

		resp, err := s.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 500 {
			return fmt.Errorf("push notification webhook returned %d", resp.StatusCode)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("push notification webhook returned %d", resp.StatusCode))
		}
		return nil
	}

	if err := backoff.Retry(op, policy); err != nil {
		s.logger.Warn("push notification delivery failed",
			zap.String("configId", config.ID), zap.String("url", config.URL),
			zap.Int("attempts", attempt), zap.Error(err))
		return
	}
	s.logger.Debug("push notification delivered", zap.String("configId", config.ID), zap.Int("attempts", attempt))
}
