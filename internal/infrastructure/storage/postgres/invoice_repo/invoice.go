// Package invoice_repo provides the PostgreSQL implementation of the
// invoice repository.
package invoice_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"billora/internal/core/apperror"
	"billora/internal/core/id"
	"billora/internal/core/types"
	"billora/internal/domain/invoice"
	"billora/internal/infrastructure/storage/postgres"
)

const (
	invoicesTable     = "invoices"
	invoiceItemsTable = "invoice_items"
)

var invoiceColumns = []string{
	"id", "invoice_number", "invoice_date", "due_date", "type",
	"sender_name", "sender_address", "sender_tax_id",
	"recipient_name", "recipient_address", "recipient_tax_id",
	"tax_rate", "subtotal", "tax_amount", "total",
	"notes", "version", "created_at", "updated_at",
}

var itemColumns = []string{
	"invoice_id", "line_no", "description", "quantity", "unit_price", "amount",
}

// InvoiceRepo implements invoice.Repository.
type InvoiceRepo struct {
	txm *postgres.TxManager
}

// NewInvoiceRepo creates a new invoice repository.
func NewInvoiceRepo(txm *postgres.TxManager) *InvoiceRepo {
	return &InvoiceRepo{txm: txm}
}

// Ensure compile-time interface compliance.
var _ invoice.Repository = (*InvoiceRepo)(nil)

// Builder returns a new squirrel builder.
func (r *InvoiceRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

// --- Row mapping ---

// invoiceRow flattens the Invoice document into table columns.
type invoiceRow struct {
	ID               id.ID       `db:"id"`
	InvoiceNumber    string      `db:"invoice_number"`
	InvoiceDate      time.Time   `db:"invoice_date"`
	DueDate          *time.Time  `db:"due_date"`
	Type             string      `db:"type"`
	SenderName       string      `db:"sender_name"`
	SenderAddress    string      `db:"sender_address"`
	SenderTaxID      string      `db:"sender_tax_id"`
	RecipientName    string      `db:"recipient_name"`
	RecipientAddress string      `db:"recipient_address"`
	RecipientTaxID   string      `db:"recipient_tax_id"`
	TaxRate          types.Money `db:"tax_rate"`
	Subtotal         types.Money `db:"subtotal"`
	TaxAmount        types.Money `db:"tax_amount"`
	Total            types.Money `db:"total"`
	Notes            string      `db:"notes"`
	Version          int         `db:"version"`
	CreatedAt        time.Time   `db:"created_at"`
	UpdatedAt        time.Time   `db:"updated_at"`
}

func (row *invoiceRow) toDomain() *invoice.Invoice {
	return &invoice.Invoice{
		ID:      row.ID,
		Number:  row.InvoiceNumber,
		Date:    row.InvoiceDate,
		DueDate: row.DueDate,
		Type:    invoice.Type(row.Type),
		Sender: invoice.Party{
			Name:    row.SenderName,
			Address: row.SenderAddress,
			TaxID:   row.SenderTaxID,
		},
		Recipient: invoice.Party{
			Name:    row.RecipientName,
			Address: row.RecipientAddress,
			TaxID:   row.RecipientTaxID,
		},
		TaxRate:   row.TaxRate,
		Subtotal:  row.Subtotal,
		TaxAmount: row.TaxAmount,
		Total:     row.Total,
		Notes:     row.Notes,
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

func headerValues(inv *invoice.Invoice) []any {
	return []any{
		inv.ID, inv.Number, inv.Date, inv.DueDate, string(inv.Type),
		inv.Sender.Name, inv.Sender.Address, inv.Sender.TaxID,
		inv.Recipient.Name, inv.Recipient.Address, inv.Recipient.TaxID,
		inv.TaxRate, inv.Subtotal, inv.TaxAmount, inv.Total,
		inv.Notes, inv.Version, inv.CreatedAt, inv.UpdatedAt,
	}
}

// itemRow maps one invoice line.
type itemRow struct {
	LineNo      int         `db:"line_no"`
	Description string      `db:"description"`
	Quantity    int64       `db:"quantity"`
	UnitPrice   types.Money `db:"unit_price"`
	Amount      types.Money `db:"amount"`
}

func (row *itemRow) toDomain() invoice.LineItem {
	return invoice.LineItem{
		LineNo:      row.LineNo,
		Description: row.Description,
		Quantity:    row.Quantity,
		UnitPrice:   row.UnitPrice,
		Amount:      row.Amount,
	}
}

// --- Repository operations ---

// Create inserts the invoice header.
// A unique violation on invoice_number surfaces as DUPLICATE_ENTRY: the
// signal for the service's allocate+insert retry.
func (r *InvoiceRepo) Create(ctx context.Context, inv *invoice.Invoice) error {
	q := r.Builder().
		Insert(invoicesTable).
		Columns(invoiceColumns...).
		Values(headerValues(inv)...)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("invoice", "invoiceNumber", inv.Number).WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", invoicesTable, err)
	}

	return nil
}

// SaveLines replaces the invoice's items (delete existing + insert new).
func (r *InvoiceRepo) SaveLines(ctx context.Context, invoiceID id.ID, items []invoice.LineItem) error {
	querier := r.txm.GetQuerier(ctx)

	deleteSQL := "DELETE FROM " + invoiceItemsTable + " WHERE invoice_id = $1"
	if _, err := querier.Exec(ctx, deleteSQL, invoiceID); err != nil {
		return fmt.Errorf("delete existing items: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	q := r.Builder().
		Insert(invoiceItemsTable).
		Columns(itemColumns...)

	for _, item := range items {
		q = q.Values(invoiceID, item.LineNo, item.Description, item.Quantity, item.UnitPrice, item.Amount)
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert items: %w", err)
	}

	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert items: %w", err)
	}

	return nil
}

// GetByID retrieves an invoice with its items.
func (r *InvoiceRepo) GetByID(ctx context.Context, invoiceID id.ID) (*invoice.Invoice, error) {
	return r.getOne(ctx, squirrel.Eq{"id": invoiceID}, invoiceID.String())
}

// GetByNumber retrieves an invoice by its unique number.
func (r *InvoiceRepo) GetByNumber(ctx context.Context, number string) (*invoice.Invoice, error) {
	return r.getOne(ctx, squirrel.Eq{"invoice_number": number}, number)
}

func (r *InvoiceRepo) getOne(ctx context.Context, where squirrel.Eq, key string) (*invoice.Invoice, error) {
	q := r.Builder().
		Select(invoiceColumns...).
		From(invoicesTable).
		Where(where)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row invoiceRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("invoice", key)
		}
		return nil, fmt.Errorf("get invoice: %w", err)
	}

	inv := row.toDomain()

	items, err := r.getLines(ctx, inv.ID)
	if err != nil {
		return nil, err
	}
	inv.Items = items

	return inv, nil
}

func (r *InvoiceRepo) getLines(ctx context.Context, invoiceID id.ID) ([]invoice.LineItem, error) {
	q := r.Builder().
		Select("line_no", "description", "quantity", "unit_price", "amount").
		From(invoiceItemsTable).
		Where(squirrel.Eq{"invoice_id": invoiceID}).
		OrderBy("line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var rows []itemRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("get items: %w", err)
	}

	items := make([]invoice.LineItem, len(rows))
	for i := range rows {
		items[i] = rows[i].toDomain()
	}

	return items, nil
}

// Update modifies the invoice header with optimistic locking.
// The invoice number is immutable and deliberately excluded from the SET list.
func (r *InvoiceRepo) Update(ctx context.Context, inv *invoice.Invoice) error {
	q := r.Builder().
		Update(invoicesTable).
		Set("invoice_date", inv.Date).
		Set("due_date", inv.DueDate).
		Set("type", string(inv.Type)).
		Set("sender_name", inv.Sender.Name).
		Set("sender_address", inv.Sender.Address).
		Set("sender_tax_id", inv.Sender.TaxID).
		Set("recipient_name", inv.Recipient.Name).
		Set("recipient_address", inv.Recipient.Address).
		Set("recipient_tax_id", inv.Recipient.TaxID).
		Set("tax_rate", inv.TaxRate).
		Set("subtotal", inv.Subtotal).
		Set("tax_amount", inv.TaxAmount).
		Set("total", inv.Total).
		Set("notes", inv.Notes).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": inv.ID}).
		Where(squirrel.Eq{"version": inv.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", invoicesTable, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("invoice", inv.ID)
	}

	return nil
}

// List retrieves invoices sorted by creation time descending.
func (r *InvoiceRepo) List(ctx context.Context, filter invoice.ListFilter) (invoice.ListResult, error) {
	result := invoice.ListResult{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(invoiceColumns...).
		From(invoicesTable)

	if filter.Type != nil {
		q = q.Where(squirrel.Eq{"type": string(*filter.Type)})
	}

	if filter.DateFrom != nil {
		q = q.Where(squirrel.GtOrEq{"invoice_date": *filter.DateFrom})
	}

	if filter.DateTo != nil {
		q = q.Where(squirrel.LtOrEq{"invoice_date": *filter.DateTo})
	}

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"invoice_number": searchPattern},
			squirrel.ILike{"recipient_name": searchPattern},
		})
	}

	countQ := r.Builder().Select("COUNT(*)").FromSelect(q, "sub")
	countSQL, countArgs, err := countQ.ToSql()
	if err != nil {
		return result, fmt.Errorf("build count: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, countSQL, countArgs...).Scan(&result.TotalCount); err != nil {
		return result, fmt.Errorf("count: %w", err)
	}

	q = q.OrderBy("created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return result, fmt.Errorf("build query: %w", err)
	}

	var rows []invoiceRow
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}

	result.Items = make([]*invoice.Invoice, len(rows))
	ids := make([]id.ID, len(rows))
	byID := make(map[id.ID]*invoice.Invoice, len(rows))
	for i := range rows {
		inv := rows[i].toDomain()
		result.Items[i] = inv
		ids[i] = inv.ID
		byID[inv.ID] = inv
	}

	if len(ids) > 0 {
		if err := r.attachLines(ctx, ids, byID); err != nil {
			return result, err
		}
	}

	return result, nil
}

// attachLines loads items for a batch of invoices in one query.
func (r *InvoiceRepo) attachLines(ctx context.Context, ids []id.ID, byID map[id.ID]*invoice.Invoice) error {
	q := r.Builder().
		Select("invoice_id", "line_no", "description", "quantity", "unit_price", "amount").
		From(invoiceItemsTable).
		Where(squirrel.Eq{"invoice_id": ids}).
		OrderBy("invoice_id", "line_no")

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	type batchItemRow struct {
		InvoiceID id.ID `db:"invoice_id"`
		itemRow
	}

	var rows []batchItemRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return fmt.Errorf("get items: %w", err)
	}

	for i := range rows {
		if inv, ok := byID[rows[i].InvoiceID]; ok {
			inv.Items = append(inv.Items, rows[i].itemRow.toDomain())
		}
	}

	return nil
}

// LatestNumberForBucket returns the most recently created invoice number in
// the bucket, or "" when no invoice exists for the day.
// Satisfies numbering.Source.
func (r *InvoiceRepo) LatestNumberForBucket(ctx context.Context, bucketKey string) (string, error) {
	pattern := fmt.Sprintf(`^INV-%s-\d{3}$`, bucketKey)

	q := r.Builder().
		Select("invoice_number").
		From(invoicesTable).
		Where(squirrel.Expr("invoice_number ~ ?", pattern)).
		OrderBy("created_at DESC").
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return "", fmt.Errorf("build query: %w", err)
	}

	var number string
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &number, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("latest number: %w", err)
	}

	return number, nil
}
