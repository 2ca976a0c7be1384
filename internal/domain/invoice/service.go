package invoice

import (
	"context"
	"fmt"

	"billora/internal/core/apperror"
	"billora/internal/core/id"
	"billora/internal/core/tx"
	"billora/internal/domain/numbering"
	"billora/pkg/logger"
)

// maxAllocationAttempts bounds the allocate+insert retry loop.
// Each unique-constraint collision means another request won the same
// number; re-reading the bucket and retrying resolves the race.
const maxAllocationAttempts = 5

// Service provides business operations for invoices.
type Service struct {
	repo      Repository
	allocator *numbering.Allocator
	txManager tx.Manager
}

// NewService creates a new invoice service.
// The repository doubles as the allocator's number source.
func NewService(repo Repository, txManager tx.Manager) *Service {
	return &Service{
		repo:      repo,
		allocator: numbering.NewAllocator(repo),
		txManager: txManager,
	}
}

// Create computes derived fields, allocates a number and persists the invoice.
//
// The allocator alone cannot guarantee uniqueness under concurrent creates,
// so the insert relies on the storage unique constraint: on a duplicate
// number the whole allocate+insert is retried up to maxAllocationAttempts,
// then the request fails with ALLOCATION_RETRIES_EXHAUSTED.
func (s *Service) Create(ctx context.Context, inv *Invoice, items []ItemInput) error {
	if err := inv.ApplyTotals(items); err != nil {
		return err
	}

	if err := inv.Validate(ctx); err != nil {
		return err
	}

	bucket := numbering.BucketKey(inv.Date)

	for attempt := 1; attempt <= maxAllocationAttempts; attempt++ {
		number, err := s.allocator.Next(ctx, inv.Date)
		if err != nil {
			return err
		}
		inv.Number = number

		err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
			if err := s.repo.Create(ctx, inv); err != nil {
				return fmt.Errorf("create invoice: %w", err)
			}
			if err := s.repo.SaveLines(ctx, inv.ID, inv.Items); err != nil {
				return fmt.Errorf("save items: %w", err)
			}
			return nil
		})

		if err == nil {
			logger.Info(ctx, "invoice created",
				"id", inv.ID,
				"number", inv.Number,
				"total", inv.Total)
			return nil
		}

		if apperror.IsDuplicate(err) {
			logger.Warn(ctx, "invoice number collision, retrying",
				"number", inv.Number,
				"attempt", attempt)
			continue
		}

		return err
	}

	return apperror.NewAllocationRetriesExhausted(bucket, maxAllocationAttempts)
}

// GetByID retrieves an invoice with its items.
func (s *Service) GetByID(ctx context.Context, invoiceID id.ID) (*Invoice, error) {
	return s.repo.GetByID(ctx, invoiceID)
}

// Update persists changes to an existing invoice.
//
// All derived monetary fields are recomputed from the submitted items before
// the write; client-sent amounts are never trusted. The invoice number is
// immutable and left untouched.
func (s *Service) Update(ctx context.Context, inv *Invoice, items []ItemInput) error {
	if err := inv.ApplyTotals(items); err != nil {
		return err
	}

	if err := inv.Validate(ctx); err != nil {
		return err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Update(ctx, inv); err != nil {
			return fmt.Errorf("update invoice: %w", err)
		}
		if err := s.repo.SaveLines(ctx, inv.ID, inv.Items); err != nil {
			return fmt.Errorf("save items: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info(ctx, "invoice updated",
		"id", inv.ID,
		"number", inv.Number)

	return nil
}

// List retrieves invoices with filtering, newest first.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	return s.repo.List(ctx, filter)
}
