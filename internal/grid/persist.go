package grid

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"conti/internal/core"
	"conti/internal/log"
)

var (
	// ErrSaveInFlight is returned when a row is already being persisted.
	ErrSaveInFlight = errors.New("save already in flight")
	// ErrNotFound is returned for ids the store does not hold.
	ErrNotFound = errors.New("transaction not found")
	// ErrNoDraft is returned when a draft operation runs outside a row edit.
	ErrNoDraft = errors.New("no row edit in progress")
)

const (
	msgNameRequired  = "Name is required."
	msgAmountInvalid = "Amount must be a valid number."
)

// ValidationError lists the pre-network problems of a create.
type ValidationError struct {
	ID       string
	Messages []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Messages, " ")
}

// validateCreate checks a pending record before it is sent. raw carries the
// typed amount so text that parsed to zero can still be rejected.
func validateCreate(rec core.Transaction, raw core.Patch) []string {
	var msgs []string
	if strings.TrimSpace(rec.Name) == "" {
		msgs = append(msgs, msgNameRequired)
	}
	if amount, ok := raw[core.FieldAmount]; ok && !core.IsAmount(amount) {
		msgs = append(msgs, msgAmountInvalid)
	}
	return msgs
}

// SaveField persists a single field, including the dependent fields the
// mapping derives from it. Amounts that do not parse are saved as zero.
func (c *Controller) SaveField(ctx context.Context, id string, f core.Field, raw string) error {
	if !f.Valid() {
		return fmt.Errorf("save field %q: %w", f, core.ErrUnknownField)
	}
	patch := DerivedPatch(c.lookup, f, raw)
	switch f {
	case core.FieldDate:
		patch[f] = core.NormalizeDate(raw)
	case core.FieldAmount:
		patch[f] = core.ParseAmountOrZero(raw).StringFixed(2)
	}
	return c.SaveRow(ctx, id, patch, false)
}

// SaveRow merges patch into the row and persists it: create for pending
// rows, update otherwise. Failed updates restore the server state with a
// refetch; failed creates keep the local row for retry.
func (c *Controller) SaveRow(ctx context.Context, id string, patch core.Patch, addAnother bool) error {
	c.mu.Lock()
	if _, busy := c.saving[id]; busy {
		c.mu.Unlock()
		return ErrSaveInFlight
	}
	rec, ok := c.store.get(id)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("save %s: %w", id, ErrNotFound)
	}
	rec = core.ApplyPatch(rec, patch)
	c.store.set(rec)
	delete(c.errors, id)

	if rec.Pending {
		if msgs := validateCreate(rec, patch); len(msgs) > 0 {
			verr := &ValidationError{ID: id, Messages: msgs}
			c.errors[id] = verr.Error()
			c.mu.Unlock()
			c.notify()
			c.logger.Debug("Create rejected by validation",
				log.FieldOperation, log.OpValidate, log.FieldID, id, log.FieldError, verr.Error())
			return verr
		}
	}
	c.saving[id] = struct{}{}
	c.mu.Unlock()
	c.notify()

	if rec.Pending {
		return c.create(ctx, id, rec, addAnother)
	}
	return c.update(ctx, id, rec, addAnother)
}

func (c *Controller) create(ctx context.Context, tempID string, rec core.Transaction, addAnother bool) error {
	payload := rec
	payload.ID = ""
	payload.Pending = false

	created, err := c.repo.Create(ctx, payload)
	if err == nil && (created.ID == "" || core.IsPendingID(created.ID)) {
		err = core.ErrEmptyID
	}

	c.mu.Lock()
	delete(c.saving, tempID)
	if err != nil {
		if c.store.has(tempID) {
			c.errors[tempID] = err.Error()
		}
		c.mu.Unlock()
		c.notify()
		c.logger.LogError(ctx, "Failed to create transaction", err, log.OpCreate,
			log.NewFields().WithRecord(tempID, ""))
		return fmt.Errorf("create transaction: %w", err)
	}

	created.Pending = false
	if !c.store.replaceID(tempID, created) {
		// The row was deleted while its create was in flight.
		c.store.remove(map[string]struct{}{created.ID: {}})
		delete(c.errors, tempID)
		c.mu.Unlock()
		c.notify()
		return c.deleteOrphan(ctx, tempID, created.ID)
	}
	delete(c.errors, tempID)
	if c.target.Refers(tempID) || c.target.Refers(created.ID) {
		c.resetEditLocked()
	}
	if addAnother {
		c.addLocked()
	}
	c.mu.Unlock()
	c.notify()

	c.logger.InfoContext(ctx, "Transaction created",
		log.FieldTempID, tempID, log.FieldID, created.ID, log.FieldName, created.Name,
		log.FieldCategory, created.Category, log.FieldAccount, created.Account)
	return nil
}

// deleteOrphan removes a record whose local row went away before its create
// returned. A failed delete is reconciled with a refetch.
func (c *Controller) deleteOrphan(ctx context.Context, tempID, id string) error {
	c.logger.InfoContext(ctx, "Deleting transaction removed during create",
		log.FieldTempID, tempID, log.FieldID, id)
	if err := c.repo.Delete(ctx, id); err != nil {
		c.logger.LogError(ctx, "Failed to delete transaction removed during create", err, log.OpDelete,
			log.NewFields().WithRecord(id, ""))
		if rerr := c.Refetch(ctx); rerr != nil {
			c.logger.Warn("Refetch after failed delete failed", log.FieldID, id, log.FieldError, rerr)
		}
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

func (c *Controller) update(ctx context.Context, id string, rec core.Transaction, addAnother bool) error {
	err := c.repo.Update(ctx, id, rec)

	c.mu.Lock()
	delete(c.saving, id)
	if err != nil {
		c.errors[id] = err.Error()
		c.mu.Unlock()
		c.notify()
		c.logger.LogError(ctx, "Failed to update transaction", err, log.OpUpdate,
			log.NewFields().WithRecord(id, ""))
		if rerr := c.Refetch(ctx); rerr != nil {
			c.logger.Warn("Refetch after failed update failed", log.FieldID, id, log.FieldError, rerr)
		}
		return fmt.Errorf("update transaction %s: %w", id, err)
	}

	delete(c.errors, id)
	if c.target.Refers(id) {
		c.resetEditLocked()
	}
	if addAnother {
		c.addLocked()
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

// DeleteSelected removes pending rows locally and deletes persisted rows
// concurrently. Individual delete failures are logged only; one refetch
// follows the batch.
func (c *Controller) DeleteSelected(ctx context.Context, ids []string) error {
	local := map[string]struct{}{}
	var server []string

	c.mu.Lock()
	for _, id := range ids {
		rec, ok := c.store.get(id)
		if !ok {
			continue
		}
		if rec.Pending {
			local[id] = struct{}{}
		} else {
			server = append(server, id)
		}
	}
	c.store.remove(local)
	for id := range local {
		delete(c.errors, id)
		if c.target.Refers(id) {
			c.resetEditLocked()
		}
	}
	c.mu.Unlock()
	c.notify()

	if len(server) == 0 {
		return nil
	}

	var failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(c.deleteConcurrency)
	for _, id := range server {
		id := id
		g.Go(func() error {
			if err := c.repo.Delete(ctx, id); err != nil {
				failed.Add(1)
				c.logger.WarnContext(ctx, "Failed to delete transaction",
					log.FieldID, id, log.FieldError, err)
			}
			return nil
		})
	}
	_ = g.Wait()

	if n := failed.Load(); n > 0 {
		c.logger.Warn("Delete batch finished with failures",
			log.FieldCount, len(server), "failed", n)
	}
	return c.Refetch(ctx)
}

// ToggleCleared flips the cleared flag. Pending rows change locally only;
// persisted rows are updated and refetched on failure.
func (c *Controller) ToggleCleared(ctx context.Context, id string) error {
	c.mu.Lock()
	if _, busy := c.saving[id]; busy {
		c.mu.Unlock()
		return ErrSaveInFlight
	}
	rec, ok := c.store.get(id)
	if !ok {
		c.mu.Unlock()
		return fmt.Errorf("toggle %s: %w", id, ErrNotFound)
	}
	rec.Cleared = !rec.Cleared
	c.store.set(rec)
	if rec.Pending {
		c.mu.Unlock()
		c.notify()
		return nil
	}
	c.saving[id] = struct{}{}
	c.mu.Unlock()
	c.notify()

	err := c.repo.Update(ctx, id, rec)

	c.mu.Lock()
	delete(c.saving, id)
	if err == nil {
		c.mu.Unlock()
		c.notify()
		return nil
	}
	c.errors[id] = err.Error()
	c.mu.Unlock()
	c.notify()

	c.logger.LogError(ctx, "Failed to toggle cleared", err, log.OpToggle,
		log.NewFields().WithRecord(id, string(core.FieldCleared)))
	if rerr := c.Refetch(ctx); rerr != nil {
		c.logger.Warn("Refetch after failed toggle failed", log.FieldID, id, log.FieldError, rerr)
	}
	return fmt.Errorf("toggle cleared %s: %w", id, err)
}
