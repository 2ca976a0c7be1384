package client

import (
	"context"

	"billora/internal/core/id"
	"billora/pkg/logger"
)

// Service provides business operations for the client catalog.
type Service struct {
	repo Repository
}

// NewService creates a new client service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create validates and stores a new client.
func (s *Service) Create(ctx context.Context, c *Client) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}

	logger.Info(ctx, "client created", "id", c.ID, "email", c.Email)
	return nil
}

// GetByID retrieves a client.
func (s *Service) GetByID(ctx context.Context, clientID id.ID) (*Client, error) {
	return s.repo.GetByID(ctx, clientID)
}

// Update validates and persists client changes.
func (s *Service) Update(ctx context.Context, c *Client) error {
	if err := c.Validate(ctx); err != nil {
		return err
	}

	return s.repo.Update(ctx, c)
}

// Delete removes a client from the catalog.
func (s *Service) Delete(ctx context.Context, clientID id.ID) error {
	return s.repo.Delete(ctx, clientID)
}

// List retrieves clients with filtering.
func (s *Service) List(ctx context.Context, filter ListFilter) (ListResult, error) {
	return s.repo.List(ctx, filter)
}
