// Package catalog_repo provides PostgreSQL implementations of catalog
// repositories.
package catalog_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"billora/internal/core/apperror"
	"billora/internal/core/id"
	"billora/internal/domain/catalogs/client"
	"billora/internal/infrastructure/storage/postgres"
)

const clientsTable = "clients"

var clientColumns = []string{
	"id", "name", "email", "phone", "address", "tax_id",
	"version", "created_at", "updated_at",
}

// ClientRepo implements client.Repository.
type ClientRepo struct {
	txm *postgres.TxManager
}

// NewClientRepo creates a new client repository.
func NewClientRepo(txm *postgres.TxManager) *ClientRepo {
	return &ClientRepo{txm: txm}
}

var _ client.Repository = (*ClientRepo)(nil)

func (r *ClientRepo) Builder() squirrel.StatementBuilderType {
	return squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar)
}

type clientRow struct {
	ID        id.ID     `db:"id"`
	Name      string    `db:"name"`
	Email     string    `db:"email"`
	Phone     string    `db:"phone"`
	Address   string    `db:"address"`
	TaxID     string    `db:"tax_id"`
	Version   int       `db:"version"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (row *clientRow) toDomain() *client.Client {
	return &client.Client{
		ID:        row.ID,
		Name:      row.Name,
		Email:     row.Email,
		Phone:     row.Phone,
		Address:   row.Address,
		TaxID:     row.TaxID,
		Version:   row.Version,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}

// Create inserts a new client. A unique violation on email surfaces as
// DUPLICATE_ENTRY.
func (r *ClientRepo) Create(ctx context.Context, c *client.Client) error {
	q := r.Builder().
		Insert(clientsTable).
		Columns(clientColumns...).
		Values(c.ID, c.Name, c.Email, c.Phone, c.Address, c.TaxID,
			c.Version, c.CreatedAt, c.UpdatedAt)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("client", "email", c.Email).WithCause(err)
		}
		return fmt.Errorf("insert %s: %w", clientsTable, err)
	}

	return nil
}

// GetByID retrieves a client by its identifier.
func (r *ClientRepo) GetByID(ctx context.Context, clientID id.ID) (*client.Client, error) {
	q := r.Builder().
		Select(clientColumns...).
		From(clientsTable).
		Where(squirrel.Eq{"id": clientID})

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var row clientRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &row, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("client", clientID)
		}
		return nil, fmt.Errorf("get client: %w", err)
	}

	return row.toDomain(), nil
}

// Update modifies a client with optimistic locking.
func (r *ClientRepo) Update(ctx context.Context, c *client.Client) error {
	q := r.Builder().
		Update(clientsTable).
		Set("name", c.Name).
		Set("email", c.Email).
		Set("phone", c.Phone).
		Set("address", c.Address).
		Set("tax_id", c.TaxID).
		Set("version", squirrel.Expr("version + 1")).
		Set("updated_at", squirrel.Expr("NOW()")).
		Where(squirrel.Eq{"id": c.ID}).
		Where(squirrel.Eq{"version": c.Version})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("client", "email", c.Email).WithCause(err)
		}
		return fmt.Errorf("update %s: %w", clientsTable, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewConcurrentModification("client", c.ID)
	}

	return nil
}

// Delete removes a client.
func (r *ClientRepo) Delete(ctx context.Context, clientID id.ID) error {
	q := r.Builder().
		Delete(clientsTable).
		Where(squirrel.Eq{"id": clientID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build delete: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	result, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("delete %s: %w", clientsTable, err)
	}

	if result.RowsAffected() == 0 {
		return apperror.NewNotFound("client", clientID)
	}

	return nil
}

// List retrieves clients sorted by name.
func (r *ClientRepo) List(ctx context.Context, filter client.ListFilter) (client.ListResult, error) {
	result := client.ListResult{
		Limit:  filter.Limit,
		Offset: filter.Offset,
	}

	q := r.Builder().
		Select(clientColumns...).
		From(clientsTable)

	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": searchPattern},
			squirrel.ILike{"email": searchPattern},
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

	q = q.OrderBy("name")

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

	var rows []clientRow
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return result, fmt.Errorf("select: %w", err)
	}

	result.Items = make([]*client.Client, len(rows))
	for i := range rows {
		result.Items[i] = rows[i].toDomain()
	}

	return result, nil
}
