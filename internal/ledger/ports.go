// Package ledger defines the persistence ports for expense records and the
// row codec shared by the tabular backends.
package ledger

import (
	"context"

	"expensetracker/internal/core"
)

// Ports for outbound adapters.
type (
	// Initializer prepares the backing storage. Calling it more than once
	// has no further effect.
	Initializer interface {
		EnsureExists(ctx context.Context) error
	}

	// Loader reads every persisted record in insertion order.
	Loader interface {
		Load(ctx context.Context) (core.Ledger, error)
	}

	// Appender adds one record to the end of the ledger.
	Appender interface {
		Append(ctx context.Context, e core.Expense) (rowRef string, err error)
	}

	Store interface {
		Initializer
		Loader
		Appender
	}
)
