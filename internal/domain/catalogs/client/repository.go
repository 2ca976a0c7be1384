package client

import (
	"context"

	"billora/internal/core/id"
)

// Repository defines storage operations for the client catalog.
// Create and Update must map a unique-email violation to apperror.CodeDuplicate.
type Repository interface {
	Create(ctx context.Context, c *Client) error
	GetByID(ctx context.Context, clientID id.ID) (*Client, error)
	Update(ctx context.Context, c *Client) error
	Delete(ctx context.Context, clientID id.ID) error
	List(ctx context.Context, filter ListFilter) (ListResult, error)
}

// ListFilter for filtering clients.
type ListFilter struct {
	// Search matches name or email
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
	Items      []*Client `json:"items"`
	TotalCount int64     `json:"totalCount"`
	Limit      int       `json:"limit"`
	Offset     int       `json:"offset"`
}
