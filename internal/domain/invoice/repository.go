package invoice

import (
	"context"
	"time"

	"billora/internal/core/id"
)

// Repository defines storage operations for invoices.
//
// Insert must enforce the unique constraint on the invoice number and map a
// violation to apperror.CodeDuplicate: that error is the retry trigger for
// concurrent number allocation.
type Repository interface {
	// Create inserts the invoice header.
	Create(ctx context.Context, inv *Invoice) error

	// SaveLines replaces the invoice's line items (delete + insert).
	SaveLines(ctx context.Context, invoiceID id.ID, items []LineItem) error

	// GetByID retrieves an invoice with its items.
	GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error)

	// GetByNumber retrieves an invoice by its unique number.
	GetByNumber(ctx context.Context, number string) (*Invoice, error)

	// Update modifies the invoice header with optimistic locking.
	Update(ctx context.Context, inv *Invoice) error

	// List retrieves invoices sorted by creation time descending.
	List(ctx context.Context, filter ListFilter) (ListResult, error)

	// LatestNumberForBucket returns the most recently created invoice number
	// matching INV-<bucketKey>-\d{3}, or "" when the bucket is empty.
	// Satisfies numbering.Source.
	LatestNumberForBucket(ctx context.Context, bucketKey string) (string, error)
}

// ListFilter for filtering invoices.
type ListFilter struct {
	// Type filters by invoice kind
	Type *Type

	// DateFrom/DateTo bound the invoice date
	DateFrom *time.Time
	DateTo   *time.Time

	// Search matches invoice number or recipient name
	Search string

	// Pagination
	Limit  int
	Offset int
}

// DefaultListFilter returns sensible defaults.
func DefaultListFilter() ListFilter {
	return ListFilter{Limit: 50}
}

// ListResult contains paginated results.
type ListResult struct {
	Items      []*Invoice `json:"items"`
	TotalCount int64      `json:"totalCount"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}
