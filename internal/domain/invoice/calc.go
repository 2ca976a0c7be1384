package invoice

import (
	"strings"

	"github.com/shopspring/decimal"

	"billora/internal/core/apperror"
	"billora/internal/core/types"
)

var oneHundred = decimal.NewFromInt(100)

// ItemInput is a raw line item as submitted by the caller: no amount.
// Whatever amount a client computed for display is discarded.
type ItemInput struct {
	Description string
	Quantity    int64
	UnitPrice   types.Money
}

// Totals carries the annotated items and the derived invoice-level amounts.
type Totals struct {
	Items     []LineItem
	Subtotal  types.Money
	TaxAmount types.Money
	Total     types.Money
}

// Calculate validates the raw items and derives all monetary fields.
//
// Pure function: no I/O, deterministic, idempotent. Each amount is
// quantity × unitPrice rounded half-up to 2 decimal places; subtotal is the
// exact sum of the rounded amounts (so subtotal == Σ amount holds by
// construction); taxAmount is subtotal × taxRate / 100 rounded once at the
// end; total is subtotal + taxAmount with no further rounding needed.
func Calculate(items []ItemInput, taxRate types.Money) (Totals, error) {
	if err := validateItems(items, taxRate); err != nil {
		return Totals{}, err
	}

	out := Totals{
		Items: make([]LineItem, len(items)),
	}

	subtotal := decimal.Zero
	for i, item := range items {
		amount := types.RoundMoney(item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity)))
		out.Items[i] = LineItem{
			LineNo:      i + 1,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      amount,
		}
		subtotal = subtotal.Add(amount)
	}

	out.Subtotal = types.RoundMoney(subtotal)
	out.TaxAmount = types.RoundMoney(out.Subtotal.Mul(taxRate).Div(oneHundred))
	out.Total = out.Subtotal.Add(out.TaxAmount)

	return out, nil
}

// validateItems enforces the item-level input contract, naming the offending
// field and item index so the caller can correct its payload.
func validateItems(items []ItemInput, taxRate types.Money) error {
	if len(items) == 0 {
		return apperror.NewInvalidInput("items", "at least one item is required")
	}

	for i, item := range items {
		if strings.TrimSpace(item.Description) == "" {
			return apperror.NewInvalidInput("description", "item description is required").
				WithDetail("itemIndex", i)
		}
		if item.Quantity < 1 {
			return apperror.NewInvalidInput("quantity", "quantity must be at least 1").
				WithDetail("itemIndex", i)
		}
		if item.UnitPrice.IsNegative() {
			return apperror.NewInvalidInput("unitPrice", "unit price must not be negative").
				WithDetail("itemIndex", i)
		}
	}

	if taxRate.IsNegative() {
		return apperror.NewInvalidInput("taxRate", "tax rate must not be negative")
	}

	return nil
}

// ApplyTotals recomputes the invoice's derived fields from raw items.
// Runs on every write so persisted derived fields always match their inputs.
func (inv *Invoice) ApplyTotals(items []ItemInput) error {
	totals, err := Calculate(items, inv.TaxRate)
	if err != nil {
		return err
	}

	inv.Items = totals.Items
	inv.Subtotal = totals.Subtotal
	inv.TaxAmount = totals.TaxAmount
	inv.Total = totals.Total

	return nil
}

// RawItems converts stored line items back to calculator input,
// dropping the derived amounts.
func (inv *Invoice) RawItems() []ItemInput {
	raw := make([]ItemInput, len(inv.Items))
	for i, item := range inv.Items {
		raw[i] = ItemInput{
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	return raw
}
