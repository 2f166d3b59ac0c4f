package middleware

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lumen-dev/lumen/pkg/store"
)

// Middleware is a side-effect callback invoked with the post-update state
// on every change, regardless of which keys changed. Middlewares run
// concurrently with each other and independently of the update path; a
// returned error is aggregated with the other failures of the same run.
type Middleware func(ctx context.Context, state store.State) error

// Options configures a pipeline.
type Options struct {
	// Logger receives aggregate run failures. Defaults to slog.Default().
	Logger *slog.Logger

	// ErrorHandler is the out-of-band channel for aggregate failures.
	// It runs on the join goroutine, after the originating Set has
	// already returned. Optional.
	ErrorHandler func(error)

	// Timeout bounds each run's context. Zero means no deadline.
	Timeout time.Duration
}

// Pipeline is the internal listener created by Apply.
// It participates in the store's dispatch order like any other listener:
// its synchronous body only snapshots state and launches goroutines.
type Pipeline struct {
	id    uint64
	store *store.Store
	mws   []Middleware

	ctx    context.Context
	cancel context.CancelFunc

	logger  *slog.Logger
	onError func(error)
	timeout time.Duration

	// wg counts in-flight join goroutines.
	wg     sync.WaitGroup
	closed atomic.Bool
}

// Apply registers mws with the store using default options.
func Apply(s *store.Store, mws ...Middleware) *Pipeline {
	return ApplyOptions(s, Options{}, mws...)
}

// ApplyOptions registers mws with the store.
// The returned pipeline is already attached; Close detaches it.
func ApplyOptions(s *store.Store, opts Options, mws ...Middleware) *Pipeline {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pipeline{
		id:      store.NextListenerID(),
		store:   s,
		mws:     mws,
		ctx:     ctx,
		cancel:  cancel,
		logger:  logger,
		onError: opts.ErrorHandler,
		timeout: opts.Timeout,
	}
	s.Subscribe(p)
	return p
}

// OnChange implements store.Listener.
func (p *Pipeline) OnChange(_ store.Diff, _ store.State) {
	if p.closed.Load() || len(p.mws) == 0 {
		return
	}

	// Snapshot the post-update state at dispatch time. A later Set may
	// advance the store before these runs settle; each run keeps the
	// state it was launched with.
	state := p.store.State()
	version := p.store.Version()

	runCtx := p.ctx
	cancel := context.CancelFunc(func() {})
	if p.timeout > 0 {
		runCtx, cancel = context.WithTimeout(p.ctx, p.timeout)
	}

	errs := make([]error, len(p.mws))
	var run sync.WaitGroup
	run.Add(len(p.mws))
	for i, mw := range p.mws {
		go func(i int, mw Middleware) {
			defer run.Done()
			if err := mw(runCtx, state); err != nil {
				errs[i] = fmt.Errorf("lumen: middleware %d: %w", i, err)
			}
		}(i, mw)
	}

	// The join is off the update path: Set returns without waiting.
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		defer cancel()
		run.Wait()
		if err := errors.Join(errs...); err != nil {
			p.logger.Error("middleware run failed", "version", version, "error", err)
			if p.onError != nil {
				p.onError(err)
			}
		}
	}()
}

// ID implements store.Listener.
func (p *Pipeline) ID() uint64 { return p.id }

// Wait blocks until all in-flight middleware runs have settled.
// Intended for tests and shutdown paths.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Close detaches the pipeline from the store and cancels the context of
// in-flight runs. Closing twice is a no-op.
func (p *Pipeline) Close() {
	if p.closed.Swap(true) {
		return
	}
	p.store.Unsubscribe(p)
	p.cancel()
}
