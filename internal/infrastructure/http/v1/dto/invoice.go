package dto

import (
	"time"

	"billora/internal/core/types"
	"billora/internal/domain/invoice"
)

// --- Requests ---

// PartyRequest identifies one side of an invoice.
type PartyRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	TaxID   string `json:"taxId"`
}

func (p PartyRequest) toDomain() invoice.Party {
	return invoice.Party{
		Name:    p.Name,
		Address: p.Address,
		TaxID:   p.TaxID,
	}
}

// ItemRequest is one submitted line. Amount is never accepted from the
// client; the server derives it from quantity and unit price.
type ItemRequest struct {
	Description string      `json:"description"`
	Quantity    int64       `json:"quantity"`
	UnitPrice   types.Money `json:"unitPrice"`
}

// ItemInputs converts request items to calculation inputs.
func ItemInputs(items []ItemRequest) []invoice.ItemInput {
	inputs := make([]invoice.ItemInput, len(items))
	for i, item := range items {
		inputs[i] = invoice.ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return inputs
}

// CreateInvoiceRequest for creating invoices.
// invoiceNumber is absent on purpose: numbers are allocated server-side.
type CreateInvoiceRequest struct {
	Type        string        `json:"type" binding:"required"`
	InvoiceDate time.Time     `json:"invoiceDate" binding:"required"`
	DueDate     *time.Time    `json:"dueDate"`
	Sender      PartyRequest  `json:"sender" binding:"required"`
	Recipient   PartyRequest  `json:"recipient" binding:"required"`
	Items       []ItemRequest `json:"items" binding:"required"`
	TaxRate     types.Money   `json:"taxRate"`
	Notes       string        `json:"notes"`
}

// ToDomain builds a new invoice from the request.
// Derived fields stay zero until the service computes them.
func (r CreateInvoiceRequest) ToDomain() *invoice.Invoice {
	inv := invoice.New(invoice.Type(r.Type))
	inv.Date = r.InvoiceDate
	inv.DueDate = r.DueDate
	inv.Sender = r.Sender.toDomain()
	inv.Recipient = r.Recipient.toDomain()
	inv.TaxRate = r.TaxRate
	inv.Notes = r.Notes
	return inv
}

// UpdateInvoiceRequest for updating invoices.
// The invoice number cannot be changed and is not part of the payload.
type UpdateInvoiceRequest struct {
	Type        string        `json:"type" binding:"required"`
	InvoiceDate time.Time     `json:"invoiceDate" binding:"required"`
	DueDate     *time.Time    `json:"dueDate"`
	Sender      PartyRequest  `json:"sender" binding:"required"`
	Recipient   PartyRequest  `json:"recipient" binding:"required"`
	Items       []ItemRequest `json:"items" binding:"required"`
	TaxRate     types.Money   `json:"taxRate"`
	Notes       string        `json:"notes"`
	Version     int           `json:"version" binding:"required,min=1"`
}

// Apply copies the editable fields onto an existing invoice.
func (r UpdateInvoiceRequest) Apply(inv *invoice.Invoice) {
	inv.Type = invoice.Type(r.Type)
	inv.Date = r.InvoiceDate
	inv.DueDate = r.DueDate
	inv.Sender = r.Sender.toDomain()
	inv.Recipient = r.Recipient.toDomain()
	inv.TaxRate = r.TaxRate
	inv.Notes = r.Notes
	inv.Version = r.Version
}

// ListInvoicesRequest contains list filter parameters.
type ListInvoicesRequest struct {
	Type     string     `form:"type"`
	DateFrom *time.Time `form:"dateFrom" time_format:"2006-01-02"`
	DateTo   *time.Time `form:"dateTo" time_format:"2006-01-02"`
	Search   string     `form:"search"`
	Limit    int        `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset   int        `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the request to a domain filter.
func (r ListInvoicesRequest) ToFilter() invoice.ListFilter {
	filter := invoice.DefaultListFilter()
	if r.Type != "" {
		t := invoice.Type(r.Type)
		filter.Type = &t
	}
	filter.DateFrom = r.DateFrom
	filter.DateTo = r.DateTo
	filter.Search = r.Search
	if r.Limit > 0 {
		filter.Limit = r.Limit
	}
	filter.Offset = r.Offset
	return filter
}

// --- Responses ---

// PartyResponse mirrors invoice.Party.
type PartyResponse struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	TaxID   string `json:"taxId,omitempty"`
}

// ItemResponse is one stored line with its derived amount.
type ItemResponse struct {
	LineNo      int         `json:"lineNo"`
	Description string      `json:"description"`
	Quantity    int64       `json:"quantity"`
	UnitPrice   types.Money `json:"unitPrice"`
	Amount      types.Money `json:"amount"`
}

// InvoiceResponse contains the full invoice document.
type InvoiceResponse struct {
	ID            string         `json:"id"`
	InvoiceNumber string         `json:"invoiceNumber"`
	InvoiceDate   time.Time      `json:"invoiceDate"`
	DueDate       *time.Time     `json:"dueDate,omitempty"`
	Type          string         `json:"type"`
	Sender        PartyResponse  `json:"sender"`
	Recipient     PartyResponse  `json:"recipient"`
	Items         []ItemResponse `json:"items"`
	TaxRate       types.Money    `json:"taxRate"`
	Subtotal      types.Money    `json:"subtotal"`
	TaxAmount     types.Money    `json:"taxAmount"`
	Total         types.Money    `json:"total"`
	Notes         string         `json:"notes,omitempty"`
	Version       int            `json:"version"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// FromInvoice creates InvoiceResponse from the domain model.
func FromInvoice(inv *invoice.Invoice) InvoiceResponse {
	items := make([]ItemResponse, len(inv.Items))
	for i, item := range inv.Items {
		items[i] = ItemResponse{
			LineNo:      item.LineNo,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		}
	}

	return InvoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.Number,
		InvoiceDate:   inv.Date,
		DueDate:       inv.DueDate,
		Type:          string(inv.Type),
		Sender:        PartyResponse(inv.Sender),
		Recipient:     PartyResponse(inv.Recipient),
		Items:         items,
		TaxRate:       inv.TaxRate,
		Subtotal:      inv.Subtotal,
		TaxAmount:     inv.TaxAmount,
		Total:         inv.Total,
		Notes:         inv.Notes,
		Version:       inv.Version,
		CreatedAt:     inv.CreatedAt,
		UpdatedAt:     inv.UpdatedAt,
	}
}

// FromInvoices maps a slice of invoices to responses.
func FromInvoices(invoices []*invoice.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invoices))
	for i, inv := range invoices {
		responses[i] = FromInvoice(inv)
	}
	return responses
}
