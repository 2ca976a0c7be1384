// Package invoice provides the Invoice document: model, totals calculation
// and the create/read/update orchestration service.
package invoice

import (
	"context"
	"strings"
	"time"

	"billora/internal/core/apperror"
	"billora/internal/core/id"
	"billora/internal/core/types"
)

// Type classifies an invoice.
type Type string

const (
	TypeSales    Type = "sales"
	TypePurchase Type = "purchase"
	TypeReceipt  Type = "receipt"
)

// Valid reports whether the type is one of the known kinds.
func (t Type) Valid() bool {
	switch t {
	case TypeSales, TypePurchase, TypeReceipt:
		return true
	}
	return false
}

// Party identifies one side of an invoice (sender or recipient).
type Party struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	TaxID   string `json:"taxId,omitempty"`
}

// LineItem is one billed position. Amount is derived from Quantity and
// UnitPrice by the totals calculator and never trusted from the caller.
type LineItem struct {
	LineNo      int         `json:"lineNo"`
	Description string      `json:"description"`
	Quantity    int64       `json:"quantity"`
	UnitPrice   types.Money `json:"unitPrice"`
	Amount      types.Money `json:"amount"`
}

// Invoice is the persisted document. Number is allocated once at creation
// and immutable afterwards. Subtotal, TaxAmount, Total and every item Amount
// are recomputed from Items and TaxRate on every write, so a stored invoice
// can never disagree with its own inputs.
type Invoice struct {
	ID        id.ID      `json:"id"`
	Number    string     `json:"invoiceNumber"`
	Date      time.Time  `json:"invoiceDate"`
	DueDate   *time.Time `json:"dueDate,omitempty"`
	Type      Type       `json:"type"`
	Sender    Party      `json:"sender"`
	Recipient Party      `json:"recipient"`
	Items     []LineItem `json:"items"`

	TaxRate   types.Money `json:"taxRate"`
	Subtotal  types.Money `json:"subtotal"`
	TaxAmount types.Money `json:"taxAmount"`
	Total     types.Money `json:"total"`

	Notes string `json:"notes,omitempty"`

	// Version for optimistic locking (incremented on each update)
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New creates an invoice with generated ID and timestamps.
// The number is assigned later, during Create.
func New(invoiceType Type) *Invoice {
	now := time.Now().UTC()
	return &Invoice{
		ID:        id.New(),
		Date:      now,
		Type:      invoiceType,
		Items:     make([]LineItem, 0),
		TaxRate:   types.Zero(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (inv *Invoice) Touch() {
	inv.UpdatedAt = time.Now().UTC()
	inv.Version++
}

// Validate checks document-level invariants. Item-level checks live in the
// totals calculator, which names the offending field and item index.
func (inv *Invoice) Validate(ctx context.Context) error {
	if !inv.Type.Valid() {
		return apperror.NewInvalidInput("type", "type must be one of sales, purchase, receipt").
			WithDetail("value", string(inv.Type))
	}

	if inv.Date.IsZero() {
		return apperror.NewInvalidInput("invoiceDate", "invoice date is required")
	}

	if strings.TrimSpace(inv.Sender.Name) == "" {
		return apperror.NewInvalidInput("sender.name", "sender name is required")
	}

	if strings.TrimSpace(inv.Recipient.Name) == "" {
		return apperror.NewInvalidInput("recipient.name", "recipient name is required")
	}

	if len(inv.Items) == 0 {
		return apperror.NewInvalidInput("items", "at least one item is required")
	}

	return nil
}
