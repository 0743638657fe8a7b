package ports

import (
	"context"
	"io"

	"conti/internal/core"
)

// Ports consumed by the grid engine.
type (
	// ListFilter narrows a list call. Zero values mean "no constraint".
	ListFilter struct {
		Period  string // YYYY-MM
		Account string
		Search  string
		Limit   int
		Offset  int
	}

	// TransactionsRepository is the server-side owner of transaction records.
	TransactionsRepository interface {
		List(ctx context.Context, f ListFilter) (core.Page, error)
		// Create persists a pending record and returns the server-assigned version.
		Create(ctx context.Context, t core.Transaction) (core.Transaction, error)
		Update(ctx context.Context, id string, t core.Transaction) error
		Delete(ctx context.Context, id string) error
		// Upload imports a CSV export into the given period.
		Upload(ctx context.Context, r io.Reader, period string) error
	}

	// ConfigLookup is the read-only taxonomy used for suggestions and derived defaults.
	ConfigLookup interface {
		Categories() []string
		Accounts() []string
		PaymentMethods() []string
		// CriticalityOptions lists valid criticality levels; the first is the default.
		CriticalityOptions() []string
		CategoryToCriticality(category string) (string, bool)
		AccountToDefaultPaymentMethod(account string) (string, bool)
	}

	// Selection is a snapshot of the externally owned statement period.
	Selection struct {
		Period   string
		IsLoaded bool
	}

	// SelectionContext publishes the current statement period.
	SelectionContext interface {
		Current() Selection
		// Subscribe registers fn for every change and returns a function that removes it.
		Subscribe(fn func(Selection)) (unsubscribe func())
	}

	// EventPublisher announces repository changes to other processes.
	EventPublisher interface {
		PublishTransactionEvent(ctx context.Context, ev core.TransactionEvent) error
	}
)
