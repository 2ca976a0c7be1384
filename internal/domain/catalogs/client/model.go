// Package client provides the Client catalog: the address book of parties
// an invoice can be issued to.
package client

import (
	"context"
	"regexp"
	"strings"
	"time"

	"billora/internal/core/apperror"
	"billora/internal/core/id"
)

var emailRE = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Client represents a saved invoice recipient.
// Email is unique across the catalog.
type Client struct {
	ID id.ID `json:"id"`

	// Name is the display name (required)
	Name string `json:"name"`

	// Email is the unique contact email (required)
	Email string `json:"email"`

	// Phone is the contact phone
	Phone string `json:"phone,omitempty"`

	// Address is the billing address
	Address string `json:"address,omitempty"`

	// TaxID is the client's tax registration number
	TaxID string `json:"taxId,omitempty"`

	// Version for optimistic locking (incremented on each update)
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// New creates a client with generated ID and timestamps.
func New(name, email string) *Client {
	now := time.Now().UTC()
	return &Client{
		ID:        id.New(),
		Name:      name,
		Email:     email,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (c *Client) Touch() {
	c.UpdatedAt = time.Now().UTC()
	c.Version++
}

// Validate checks catalog invariants.
func (c *Client) Validate(ctx context.Context) error {
	if strings.TrimSpace(c.Name) == "" {
		return apperror.NewValidation("name is required").
			WithDetail("field", "name")
	}

	if strings.TrimSpace(c.Email) == "" {
		return apperror.NewValidation("email is required").
			WithDetail("field", "email")
	}

	if !emailRE.MatchString(c.Email) {
		return apperror.NewValidation("invalid email format").
			WithDetail("field", "email")
	}

	return nil
}
