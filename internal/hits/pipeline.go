// Package hits records slug resolutions asynchronously.
//
// A Pipeline owns a bounded FIFO buffer and exactly one consumer goroutine
// (Run). Producers call Enqueue, which never blocks: when the buffer is full
// the hit is dropped and ErrQueueFull is returned. Delivery is at most once;
// a hit that fails to persist is logged and discarded.
//
// Shutdown is two-phase. Shutdown() requests a stop and makes every later
// Enqueue fail with ErrClosed. The consumer then persists everything still
// buffered and closes Done(). Callers wait for that confirmation with Wait.
package hits

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tbourn/go-redirect-service/internal/domain"
	"github.com/tbourn/go-redirect-service/internal/observability"
)

// DefaultCapacity is used when Options.Capacity is not positive.
const DefaultCapacity = 10_000

// DefaultWriteTimeout bounds one store write when Options.WriteTimeout is
// not positive.
const DefaultWriteTimeout = 5 * time.Second

// ErrAlreadyRunning is returned by Run when a consumer is already active.
var ErrAlreadyRunning = errors.New("hit pipeline already running")

// Recorder persists a single hit.
type Recorder interface {
	RecordHit(ctx context.Context, h *domain.Hit) error
}

// Publisher receives every hit after it was persisted. Publish failures are
// logged and never retried.
type Publisher interface {
	PublishHit(ctx context.Context, h domain.Hit) error
}

// Options configures a Pipeline.
type Options struct {
	Capacity     int
	WriteTimeout time.Duration
	Logger       zerolog.Logger
	// Publisher is optional.
	Publisher Publisher
}

// Pipeline is safe for concurrent use by any number of producers.
type Pipeline struct {
	rec     Recorder
	pub     Publisher
	timeout time.Duration
	log     zerolog.Logger

	queue chan domain.Hit

	// mu guards closed. Enqueue holds it shared across the send so that no
	// send can land after Shutdown has flipped closed.
	mu     sync.RWMutex
	closed bool

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}
	running  atomic.Bool

	dropped atomic.Uint64
	dropLog rate.Sometimes
}

// New constructs a Pipeline writing through rec. Run must be started for
// hits to be persisted.
func New(rec Recorder, opts Options) *Pipeline {
	capacity := opts.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	timeout := opts.WriteTimeout
	if timeout <= 0 {
		timeout = DefaultWriteTimeout
	}
	return &Pipeline{
		rec:     rec,
		pub:     opts.Publisher,
		timeout: timeout,
		log:     opts.Logger,
		queue:   make(chan domain.Hit, capacity),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		dropLog: rate.Sometimes{First: 1, Interval: 10 * time.Second},
	}
}

// Enqueue hands h to the consumer without blocking. It returns ErrQueueFull
// when the buffer is at capacity and ErrClosed after Shutdown.
func (p *Pipeline) Enqueue(h domain.Hit) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		p.drop(h, "closed")
		return ErrClosed
	}
	select {
	case p.queue <- h:
		hitsEnqueued.Inc()
		hitQueueDepth.Set(float64(len(p.queue)))
		return nil
	default:
		p.drop(h, "full")
		return ErrQueueFull
	}
}

func (p *Pipeline) drop(h domain.Hit, reason string) {
	n := p.dropped.Add(1)
	hitsDropped.WithLabelValues(reason).Inc()
	p.dropLog.Do(func() {
		p.log.Warn().
			Str("reason", reason).
			Str("destination_id", h.DestinationID).
			Uint64("dropped_total", n).
			Msg("hit dropped")
	})
}

// Run consumes hits until Shutdown is called or ctx is cancelled, then
// persists every hit still buffered and closes Done. Run must be called at
// most once; a second concurrent call returns ErrAlreadyRunning.
//
// A ready hit always wins over the stop signal.
func (p *Pipeline) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer close(p.done)

	p.log.Info().Int("capacity", cap(p.queue)).Msg("hit pipeline started")
	for {
		select {
		case h := <-p.queue:
			p.persist(ctx, h)
			continue
		default:
		}

		select {
		case h := <-p.queue:
			p.persist(ctx, h)
		case <-p.stop:
			p.drain(ctx)
			return nil
		case <-ctx.Done():
			p.Shutdown()
			p.drain(ctx)
			return nil
		}
	}
}

// drain persists what is left. Shutdown has already closed the gate, so the
// buffer can only shrink.
func (p *Pipeline) drain(ctx context.Context) {
	n := 0
	for {
		select {
		case h := <-p.queue:
			p.persist(ctx, h)
			n++
		default:
			hitQueueDepth.Set(0)
			p.log.Info().Int("drained", n).Uint64("dropped_total", p.dropped.Load()).Msg("hit pipeline stopped")
			return
		}
	}
}

func (p *Pipeline) persist(ctx context.Context, h domain.Hit) {
	hitQueueDepth.Set(float64(len(p.queue)))

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	wctx, span := observability.StartHitWrite(wctx, h.DestinationID, h.AliasID)
	err := p.rec.RecordHit(wctx, &h)
	observability.EndSpan(span, err)
	if err != nil {
		hitsFailed.Inc()
		p.log.Error().Err(err).
			Str("destination_id", h.DestinationID).
			Time("when", h.CreatedAt).
			Msg("failed to save hit")
		return
	}
	hitsPersisted.Inc()

	if p.pub != nil {
		if err := p.pub.PublishHit(wctx, h); err != nil {
			p.log.Warn().Err(err).Str("hit_id", h.ID).Msg("failed to publish hit")
		}
	}
}

// Shutdown requests the consumer to stop. It is idempotent and returns
// immediately; use Done or Wait to observe completion.
func (p *Pipeline) Shutdown() {
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		p.mu.Unlock()
		close(p.stop)
	})
}

// Done is closed once Run has drained the buffer and returned.
func (p *Pipeline) Done() <-chan struct{} { return p.done }

// Wait blocks until Done is closed or ctx ends. It blocks forever when Run
// was never started, unless ctx ends.
func (p *Pipeline) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of buffered hits.
func (p *Pipeline) Len() int { return len(p.queue) }

// Dropped returns the number of hits rejected by Enqueue so far.
func (p *Pipeline) Dropped() uint64 { return p.dropped.Load() }
