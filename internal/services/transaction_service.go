package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"conti/internal/core"
	"conti/internal/log"
	"conti/internal/ports"
)

var _ ports.TransactionsRepository = (*TransactionService)(nil)

// TransactionService decorates a repository and announces every successful
// write. Publishing is best-effort: a broker outage never fails the write.
type TransactionService struct {
	repo      ports.TransactionsRepository
	publisher ports.EventPublisher
	logger    *log.Logger
	now       func() time.Time
}

// NewTransactionService wraps repo. A nil publisher disables events.
func NewTransactionService(repo ports.TransactionsRepository, publisher ports.EventPublisher, logger *log.Logger) *TransactionService {
	if logger == nil {
		logger = log.Discard()
	}
	return &TransactionService{
		repo:      repo,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentBackend),
		now:       time.Now,
	}
}

func (s *TransactionService) List(ctx context.Context, f ports.ListFilter) (core.Page, error) {
	return s.repo.List(ctx, f)
}

// Create saves the record first, then publishes a created event.
func (s *TransactionService) Create(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("save transaction: %w", err)
	}
	rec := created
	s.publish(ctx, core.TransactionEvent{
		Kind:   core.EventCreated,
		ID:     created.ID,
		Period: core.PeriodOf(created.TransactionDate),
		Record: &rec,
	})
	return created, nil
}

func (s *TransactionService) Update(ctx context.Context, id string, t core.Transaction) error {
	if err := s.repo.Update(ctx, id, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	rec := t
	rec.ID = id
	rec.Pending = false
	s.publish(ctx, core.TransactionEvent{
		Kind:   core.EventUpdated,
		ID:     id,
		Period: core.PeriodOf(rec.TransactionDate),
		Record: &rec,
	})
	return nil
}

func (s *TransactionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	s.publish(ctx, core.TransactionEvent{Kind: core.EventDeleted, ID: id})
	return nil
}

func (s *TransactionService) Upload(ctx context.Context, r io.Reader, period string) error {
	if err := s.repo.Upload(ctx, r, period); err != nil {
		return fmt.Errorf("upload transactions: %w", err)
	}
	s.publish(ctx, core.TransactionEvent{Kind: core.EventUploaded, Period: period})
	return nil
}

func (s *TransactionService) publish(ctx context.Context, ev core.TransactionEvent) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "Event publisher not configured, skipping event", log.FieldEventKind, ev.Kind)
		return
	}
	ev.Timestamp = s.now().UTC()
	if err := s.publisher.PublishTransactionEvent(ctx, ev); err != nil {
		s.logger.LogError(ctx, "Failed to publish transaction event", err, log.OpSync,
			log.NewFields().WithRecord(ev.ID, "").WithComponent(log.ComponentAMQP))
	}
}

// Close closes the wrapped repository and publisher when they support it.
func (s *TransactionService) Close() error {
	var errs []error
	if c, ok := s.repo.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("repository: %w", err))
		}
	}
	if c, ok := s.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("publisher: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("close transaction service: %w", err)
	}
	return nil
}
