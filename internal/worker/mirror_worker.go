package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/ports"
	"conti/internal/sheets"
)

const (
	defaultPageSize    = 500
	defaultConcurrency = 4
)

// Lister is the read side of a transactions repository.
type Lister interface {
	List(ctx context.Context, f ports.ListFilter) (core.Page, error)
}

// ErrMissingRecord is returned for created/updated events without a payload.
var ErrMissingRecord = errors.New("event carries no record")

// MirrorWorker applies repository change events to a spreadsheet mirror.
type MirrorWorker struct {
	repo        Lister
	mirror      sheets.Mirror
	logger      *log.Logger
	pageSize    int
	concurrency int
}

// ReconcileStats summarizes one reconcile pass.
type ReconcileStats struct {
	Upserted int
	Removed  int
	Failed   int
}

func NewMirrorWorker(repo Lister, mirror sheets.Mirror, logger *log.Logger) *MirrorWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &MirrorWorker{
		repo:        repo,
		mirror:      mirror,
		logger:      logger.WithComponent(log.ComponentWorker),
		pageSize:    defaultPageSize,
		concurrency: defaultConcurrency,
	}
}

// WithConcurrency bounds parallel mirror writes during a reconcile.
func (w *MirrorWorker) WithConcurrency(n int) *MirrorWorker {
	if n > 0 {
		w.concurrency = n
	}
	return w
}

// HandleEvent applies a single change event. A returned error asks the
// broker to redeliver.
func (w *MirrorWorker) HandleEvent(ctx context.Context, ev core.TransactionEvent) error {
	logger := w.logger
	if l, ok := log.Lookup(ctx); ok {
		logger = l.WithComponent(log.ComponentWorker)
	}
	logger.InfoContext(ctx, "Processing transaction event",
		log.FieldEventKind, ev.Kind,
		log.FieldID, ev.ID,
		log.FieldPeriod, ev.Period)

	switch ev.Kind {
	case core.EventCreated, core.EventUpdated:
		if ev.Record == nil {
			return fmt.Errorf("%s %s: %w", ev.Kind, ev.ID, ErrMissingRecord)
		}
		if err := w.mirror.Upsert(ctx, *ev.Record); err != nil {
			return fmt.Errorf("mirror %s: %w", ev.Record.ID, err)
		}
	case core.EventDeleted:
		if err := w.mirror.Remove(ctx, ev.ID); err != nil {
			return fmt.Errorf("remove %s: %w", ev.ID, err)
		}
	case core.EventUploaded:
		stats, err := w.Reconcile(ctx, ev.Period)
		if err != nil {
			return err
		}
		if stats.Failed > 0 {
			return fmt.Errorf("reconcile %s: %d rows failed", ev.Period, stats.Failed)
		}
	default:
		logger.WarnContext(ctx, "Ignoring unknown event kind", log.FieldEventKind, ev.Kind)
	}
	return nil
}

// Reconcile makes the mirror match the repository for period. An empty
// period reconciles everything. Individual row failures are counted, not returned.
func (w *MirrorWorker) Reconcile(ctx context.Context, period string) (ReconcileStats, error) {
	var stats ReconcileStats
	start := time.Now()

	want, err := w.listAll(ctx, period)
	if err != nil {
		return stats, fmt.Errorf("list %q: %w", period, err)
	}
	have, err := w.mirror.List(ctx)
	if err != nil {
		return stats, fmt.Errorf("read mirror: %w", err)
	}

	keep := make(map[string]struct{}, len(want))
	for _, t := range want {
		keep[t.ID] = struct{}{}
	}
	var stale []string
	for _, t := range have {
		if !core.InPeriod(t.TransactionDate, period) {
			continue
		}
		if _, ok := keep[t.ID]; !ok {
			stale = append(stale, t.ID)
		}
	}

	var upserted, removed, failed int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.concurrency)
	for _, t := range want {
		t := t
		g.Go(func() error {
			if err := w.mirror.Upsert(gctx, t); err != nil {
				atomic.AddInt64(&failed, 1)
				w.logger.WarnContext(gctx, "Reconcile upsert failed", log.FieldID, t.ID, log.FieldError, err)
				return nil
			}
			atomic.AddInt64(&upserted, 1)
			return nil
		})
	}
	for _, id := range stale {
		id := id
		g.Go(func() error {
			if err := w.mirror.Remove(gctx, id); err != nil {
				atomic.AddInt64(&failed, 1)
				w.logger.WarnContext(gctx, "Reconcile remove failed", log.FieldID, id, log.FieldError, err)
				return nil
			}
			atomic.AddInt64(&removed, 1)
			return nil
		})
	}
	_ = g.Wait()

	stats = ReconcileStats{Upserted: int(upserted), Removed: int(removed), Failed: int(failed)}
	w.logger.InfoContext(ctx, "Reconcile completed",
		log.FieldPeriod, period,
		"upserted", stats.Upserted,
		"removed", stats.Removed,
		"failed", stats.Failed,
		log.FieldSuccess, stats.Failed == 0,
		log.FieldDuration, time.Since(start).Milliseconds())
	return stats, ctx.Err()
}

func (w *MirrorWorker) listAll(ctx context.Context, period string) ([]core.Transaction, error) {
	var out []core.Transaction
	for offset := 0; ; {
		page, err := w.repo.List(ctx, ports.ListFilter{Period: period, Limit: w.pageSize, Offset: offset})
		if err != nil {
			return nil, err
		}
		out = append(out, page.Records...)
		offset += len(page.Records)
		if len(page.Records) == 0 || offset >= page.Total {
			return out, nil
		}
	}
}
