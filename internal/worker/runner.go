package worker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"conti/internal/core"
	"conti/internal/log"
)

// EventSource delivers change events until ctx is done.
type EventSource interface {
	ConsumeTransactionEvents(ctx context.Context, handler func(context.Context, core.TransactionEvent) error) error
}

// RunnerConfig holds configuration for the mirror runner
type RunnerConfig struct {
	// ReconcileInterval is how often the current period is fully reconciled (default: 15m).
	// Zero disables periodic reconciles.
	ReconcileInterval time.Duration

	// ReconcileOnStart runs one reconcile before consuming events (default: true)
	ReconcileOnStart bool

	// Period returns the period to reconcile; nil means the current calendar month.
	Period func() string
}

// DefaultRunnerConfig returns sensible defaults
func DefaultRunnerConfig() RunnerConfig {
	return RunnerConfig{
		ReconcileInterval: 15 * time.Minute,
		ReconcileOnStart:  true,
	}
}

// Runner drives a MirrorWorker from an EventSource and periodic reconciles.
type Runner struct {
	worker *MirrorWorker
	source EventSource
	config RunnerConfig
	logger *log.Logger

	// Lifecycle management
	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	doneCh  chan struct{}
	err     error
}

func NewRunner(worker *MirrorWorker, source EventSource, config RunnerConfig) *Runner {
	if config.Period == nil {
		config.Period = func() string { return core.PeriodOf(time.Now()) }
	}
	return &Runner{
		worker: worker,
		source: source,
		config: config,
		logger: worker.logger,
	}
}

// Start begins consuming. Returns an error if already running.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return errors.New("mirror runner is already running")
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	r.running = true
	r.cancel = cancel
	r.doneCh = done
	r.err = nil
	r.mu.Unlock()

	if r.config.ReconcileOnStart {
		if _, err := r.worker.Reconcile(ctx, r.config.Period()); err != nil {
			r.logger.WarnContext(ctx, "Startup reconcile failed", log.FieldError, err)
		}
	}

	go r.run(ctx, cancel, done)

	r.logger.InfoContext(ctx, "Mirror runner started",
		"reconcile_interval", r.config.ReconcileInterval)
	return nil
}

// run consumes until the source returns, then marks the runner stopped so
// Start can be called again.
func (r *Runner) run(ctx context.Context, cancel context.CancelFunc, done chan struct{}) {
	defer close(done)

	var wg sync.WaitGroup
	if r.config.ReconcileInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.reconcileLoop(ctx)
		}()
	}

	err := r.source.ConsumeTransactionEvents(ctx, r.worker.HandleEvent)
	if err != nil && !errors.Is(err, context.Canceled) {
		r.logger.ErrorContext(ctx, "Event consumption stopped", log.FieldError, err)
	}
	cancel()
	wg.Wait()

	r.mu.Lock()
	r.err = err
	r.running = false
	r.mu.Unlock()
}

func (r *Runner) reconcileLoop(ctx context.Context) {
	ticker := time.NewTicker(r.config.ReconcileInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.worker.Reconcile(ctx, r.config.Period()); err != nil && ctx.Err() == nil {
				r.logger.WarnContext(ctx, "Periodic reconcile failed", log.FieldError, err)
			}
		}
	}
}

// Done is closed once the runner has stopped on its own or via Stop.
func (r *Runner) Done() <-chan struct{} {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.doneCh
}

// Err reports why consumption ended, once Done is closed.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Stop cancels consumption and waits for completion.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return nil
	}
	cancel, done := r.cancel, r.doneCh
	r.mu.Unlock()

	cancel()
	select {
	case <-done:
		r.logger.InfoContext(ctx, "Mirror runner stopped gracefully")
	case <-ctx.Done():
		r.logger.WarnContext(ctx, "Mirror runner stop timed out")
		return fmt.Errorf("stop mirror runner: %w", ctx.Err())
	}
	return nil
}

// IsRunning returns whether the runner is currently running
func (r *Runner) IsRunning() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running
}
