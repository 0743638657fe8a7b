package sheets

import (
	"context"

	"conti/internal/core"
)

// Ports for outbound mirror adapters.
type (
	// Mirror keeps a spreadsheet copy of the transactions table, one row per id.
	Mirror interface {
		// Upsert writes t to its row, appending a new row for unknown ids.
		Upsert(ctx context.Context, t core.Transaction) error
		// Remove blanks the row holding id. Unknown ids are not an error.
		Remove(ctx context.Context, id string) error
		// List returns every mirrored transaction in sheet order.
		List(ctx context.Context) ([]core.Transaction, error)
	}
)
