package grid

import (
	"context"
	"fmt"
	"strings"

	"conti/internal/core"
	"conti/internal/ports"
)

// Draft is the working copy of a row under whole-row edit.
type Draft struct {
	ID     string
	Values core.Patch
}

func (d *Draft) clone() *Draft {
	if d == nil {
		return nil
	}
	return &Draft{ID: d.ID, Values: d.Values.Clone()}
}

// Value returns the draft text of f.
func (d *Draft) Value(f core.Field) string {
	if d == nil {
		return ""
	}
	return d.Values[f]
}

// seedDraft renders rec into a draft. Pending rows also get derived defaults
// for criticality and, when empty, payment method.
func seedDraft(lookup ports.ConfigLookup, rec core.Transaction) core.Patch {
	p := core.PatchFrom(rec)
	if !rec.Pending {
		return p
	}
	if crit, ok := lookup.CategoryToCriticality(rec.Category); ok {
		p[core.FieldCriticality] = crit
	} else {
		p[core.FieldCriticality] = DefaultCriticality(lookup)
	}
	if strings.TrimSpace(rec.PaymentMethod) == "" {
		if pm, ok := lookup.AccountToDefaultPaymentMethod(rec.Account); ok {
			p[core.FieldPaymentMethod] = pm
		}
	}
	return p
}

// DerivedPatch returns a patch setting f to value plus the dependent fields
// the mapping yields. Dependents are overwritten unconditionally.
func DerivedPatch(lookup ports.ConfigLookup, f core.Field, value string) core.Patch {
	p := core.Patch{f: value}
	switch f {
	case core.FieldCategory:
		if crit, ok := lookup.CategoryToCriticality(value); ok {
			p[core.FieldCriticality] = crit
		}
	case core.FieldAccount:
		if pm, ok := lookup.AccountToDefaultPaymentMethod(value); ok {
			p[core.FieldPaymentMethod] = pm
		}
	}
	return p
}

// DefaultCriticality is the first configured criticality level.
func DefaultCriticality(lookup ports.ConfigLookup) string {
	opts := lookup.CriticalityOptions()
	if len(opts) == 0 {
		return ""
	}
	return opts[0]
}

// ResolveCriticality maps v onto the configured spelling, case-insensitively.
// Blank or unknown values resolve to the default.
func ResolveCriticality(lookup ports.ConfigLookup, v string) string {
	v = strings.TrimSpace(v)
	if v != "" {
		for _, opt := range lookup.CriticalityOptions() {
			if strings.EqualFold(opt, v) {
				return opt
			}
		}
	}
	return DefaultCriticality(lookup)
}

// NormalizeForSave returns a copy of p with a date-only value widened to a
// full date-time and criticality resolved against the configured levels.
func NormalizeForSave(lookup ports.ConfigLookup, p core.Patch) core.Patch {
	out := p.Clone()
	if d, ok := out[core.FieldDate]; ok {
		out[core.FieldDate] = core.NormalizeDate(d)
	}
	out[core.FieldCriticality] = ResolveCriticality(lookup, out[core.FieldCriticality])
	return out
}

// UpdateDraftField changes one draft field, propagating derived defaults.
// The store is not touched.
func (c *Controller) UpdateDraftField(f core.Field, value string) error {
	if !f.Valid() {
		return fmt.Errorf("update draft field %q: %w", f, core.ErrUnknownField)
	}
	c.mu.Lock()
	if c.target.Mode != EditRow || c.draft == nil {
		c.mu.Unlock()
		return ErrNoDraft
	}
	for k, v := range DerivedPatch(c.lookup, f, value) {
		c.draft.Values[k] = v
	}
	c.mu.Unlock()
	c.notify()
	return nil
}

// SaveDraft normalizes the active draft and saves it as a row.
func (c *Controller) SaveDraft(ctx context.Context, addAnother bool) error {
	c.mu.Lock()
	if c.target.Mode != EditRow || c.draft == nil {
		c.mu.Unlock()
		return ErrNoDraft
	}
	id := c.draft.ID
	patch := NormalizeForSave(c.lookup, c.draft.Values)
	c.mu.Unlock()

	return c.SaveRow(ctx, id, patch, addAnother)
}
