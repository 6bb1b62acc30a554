// Package eventbus implements the per-task multicast channel from a
// single AgentExecutor to zero-or-more consumers (the result manager, a
// streaming HTTP response, one or more resubscribers), plus the one-shot
// "finished" signal that marks the end of the logical interaction.
//
// The design follows the re-architecture guidance in the engine's
// specification: the original EventEmitter-style bus is recast as a
// typed channel per subscriber, with "finished" modeled as a distinct
// close rather than another event value, and consumers represented as
// opaque handles (Queue) that unsubscribe on Stop rather than closures
// captured in a listener map.
package eventbus

import (
	"context"
	"sync"

	"github.com/gate4ai/a2a/a2a"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// QueueCapacity is the default per-consumer buffer depth. A publisher
// blocks once a slow consumer's queue is full, which is the bus's only
// back-pressure mechanism; events are never dropped.
const QueueCapacity = 64

// Queue is a single consumer's view of a Bus: a FIFO of events ending in
// an end-of-stream sentinel once the bus finishes and the queue drains.
type Queue interface {
	// Next blocks until an event is available, the bus finishes and the
	// queue drains (ok=false), or ctx is done (err set).
	Next(ctx context.Context) (event a2a.Event, ok bool, err error)
	// Stop unsubscribes this queue. Events still buffered for it are
	// discarded; the publisher is never blocked by a stopped queue.
	Stop()
}

// Bus multicasts events from a single producer to every attached Queue
// in publication order, and lets any number of listeners learn when the
// stream is finished.
type Bus interface {
	// Publish delivers event to every currently attached queue, in the
	// order it is called. It blocks only if some attached queue's buffer
	// is full; it never drops events and never fails because one
	// listener is slow.
	Publish(event a2a.Event)
	// Finished marks the end of the stream. Idempotent. Every attached
	// queue observes an end-of-stream sentinel once its buffered events
	// are drained. Publish after Finished panics, since that would be an
	// engine bug, not a recoverable runtime condition.
	Finished()
	// IsFinished reports whether Finished has been called.
	IsFinished() bool
	// Attach returns a new Queue. A Queue attached before any Publish
	// call observes the full stream; one attached after some events have
	// already been published observes only subsequent events
	// (resubscribe semantics).
	Attach() Queue
	// Await blocks until Finished has been called.
	Await(ctx context.Context) error
}

type subscriber struct {
	ch     chan a2a.Event
	stopCh chan struct{}
	once   sync.Once
}

func newSubscriber() *subscriber {
	return &subscriber{
		ch:     make(chan a2a.Event, QueueCapacity),
		stopCh: make(chan struct{}),
	}
}

func (s *subscriber) stop() {
	s.once.Do(func() { close(s.stopCh) })
}

// bus is the default Bus implementation: a fan-out over a set of
// per-subscriber buffered channels guarded by a mutex, plus a
// close-once "finished" channel that every Queue selects on.
type bus struct {
	logger *zap.Logger
	limiter *rate.Limiter

	mu          sync.Mutex
	subscribers map[*subscriber]struct{}
	finished    bool
	finishedCh  chan struct{}
}

// Option configures a Bus.
type Option func(*bus)

// WithLogger attaches a logger used to report (never to stop delivery
// on) per-listener failures, per the engine's failure-isolation
// contract.
func WithLogger(logger *zap.Logger) Option {
	return func(b *bus) { b.logger = logger }
}

// WithRateLimit paces how fast Publish can push events through the bus,
// using a token-bucket limiter. It is an additional throttle on top of
// the channel-depth back-pressure, useful for capping the rate at which
// a runaway executor can flood slow consumers. nil/zero disables it.
func WithRateLimit(limiter *rate.Limiter) Option {
	return func(b *bus) { b.limiter = limiter }
}

// New creates an empty Bus with no subscribers.
func New(opts ...Option) Bus {
	b := &bus{
		logger:      zap.NewNop(),
		subscribers: make(map[*subscriber]struct{}),
		finishedCh:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *bus) Publish(event a2a.Event) {
	if b.limiter != nil {
		_ = b.limiter.Wait(context.Background())
	}

	b.mu.Lock()
	if b.finished {
		b.mu.Unlock()
		panic("eventbus: Publish called after Finished")
	}
	subs := make([]*subscriber, 0, len(b.subscribers))
	for s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- event:
		case <-s.stopCh:
			// Listener unsubscribed concurrently; dropping this event for
			// it is correct, not a lossiness violation, since it no
			// longer wants the stream.
		}
	}
}

func (b *bus) Finished() {
	b.mu.Lock()
	if b.finished {
		b.mu.Unlock()
		return
	}
	b.finished = true
	close(b.finishedCh)
	subs := make([]*subscriber, 0, len(b.subscribers))
	for s := range b.subscribers {
		subs = append(subs, s)
	}
	b.mu.Unlock()

	for _, s := range subs {
		close(s.ch)
	}
}

func (b *bus) IsFinished() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.finished
}

func (b *bus) Await(ctx context.Context) error {
	select {
	case <-b.finishedCh:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (b *bus) Attach() Queue {
	s := newSubscriber()

	b.mu.Lock()
	if b.finished {
		// Finished already: give the new subscriber a closed channel so
		// Next immediately reports end-of-stream, matching "attach after
		// the full stream has already completed observes nothing".
		close(s.ch)
		b.mu.Unlock()
		return &queue{bus: b, sub: s}
	}
	b.subscribers[s] = struct{}{}
	b.mu.Unlock()

	return &queue{bus: b, sub: s}
}

func (b *bus) detach(s *subscriber) {
	b.mu.Lock()
	delete(b.subscribers, s)
	b.mu.Unlock()
}

type queue struct {
	bus  *bus
	sub  *subscriber
}

func (q *queue) Next(ctx context.Context) (a2a.Event, bool, error) {
	select {
	case event, ok := <-q.sub.ch:
		if !ok {
			return nil, false, nil
		}
		return event, true, nil
	case <-q.sub.stopCh:
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	}
}

func (q *queue) Stop() {
	q.sub.stop()
	q.bus.detach(q.sub)
}
