// Package tx provides the domain contract for transaction management.
// Implementations live in the infrastructure layer.
package tx

import (
	"context"
)

// Manager runs functions within a database transaction.
// The transaction is carried in the context so repositories can pick it up.
type Manager interface {
	// RunInTransaction executes fn within a transaction.
	// If a transaction already exists in ctx, it is reused.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
