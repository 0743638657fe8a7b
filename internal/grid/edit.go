package grid

import (
	"fmt"

	"conti/internal/core"
)

// EditMode discriminates EditTarget.
type EditMode int

const (
	EditNone EditMode = iota
	EditField
	EditRow
)

func (m EditMode) String() string {
	switch m {
	case EditField:
		return "field"
	case EditRow:
		return "row"
	default:
		return "none"
	}
}

// EditTarget is the single grid-wide focus: nothing, one field of a row, or a whole row.
type EditTarget struct {
	Mode EditMode
	ID   string
	// Field and Initial are set for EditField only.
	Field   core.Field
	Initial string
}

// Active reports whether any edit is in progress.
func (e EditTarget) Active() bool {
	return e.Mode != EditNone
}

// Refers reports whether the target is an edit of row id.
func (e EditTarget) Refers(id string) bool {
	return e.Mode != EditNone && e.ID == id
}

func (e EditTarget) String() string {
	switch e.Mode {
	case EditField:
		return fmt.Sprintf("field(%s.%s)", e.ID, e.Field)
	case EditRow:
		return fmt.Sprintf("row(%s)", e.ID)
	default:
		return "none"
	}
}

// StartFieldEdit focuses a single field, replacing whatever edit was active.
func (c *Controller) StartFieldEdit(id string, field core.Field, initial string) {
	c.mu.Lock()
	c.target = EditTarget{Mode: EditField, ID: id, Field: field, Initial: initial}
	c.draft = nil
	c.mu.Unlock()
	c.notify()
}

// StartRowEdit opens a whole-row edit seeded from the live record, replacing
// whatever edit was active.
func (c *Controller) StartRowEdit(id string) error {
	c.mu.Lock()
	if err := c.startRowEditLocked(id); err != nil {
		c.mu.Unlock()
		return err
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *Controller) startRowEditLocked(id string) error {
	rec, ok := c.store.get(id)
	if !ok {
		return fmt.Errorf("start row edit %s: %w", id, ErrNotFound)
	}
	c.target = EditTarget{Mode: EditRow, ID: id}
	c.draft = &Draft{ID: id, Values: seedDraft(c.lookup, rec)}
	return nil
}

// Cancel drops the active edit and its draft. The store is left untouched.
func (c *Controller) Cancel() {
	c.mu.Lock()
	if !c.target.Active() && c.draft == nil {
		c.mu.Unlock()
		return
	}
	c.resetEditLocked()
	c.mu.Unlock()
	c.notify()
}

func (c *Controller) resetEditLocked() {
	c.target = EditTarget{}
	c.draft = nil
}
