package dto

import (
	"time"

	"billora/internal/domain/catalogs/client"
)

// CreateClientRequest for creating clients.
type CreateClientRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	TaxID   string `json:"taxId"`
}

// ToDomain builds a new client from the request.
func (r CreateClientRequest) ToDomain() *client.Client {
	c := client.New(r.Name, r.Email)
	c.Phone = r.Phone
	c.Address = r.Address
	c.TaxID = r.TaxID
	return c
}

// UpdateClientRequest for updating clients.
type UpdateClientRequest struct {
	Name    string `json:"name" binding:"required"`
	Email   string `json:"email" binding:"required,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	TaxID   string `json:"taxId"`
	Version int    `json:"version" binding:"required,min=1"`
}

// Apply copies the editable fields onto an existing client.
func (r UpdateClientRequest) Apply(c *client.Client) {
	c.Name = r.Name
	c.Email = r.Email
	c.Phone = r.Phone
	c.Address = r.Address
	c.TaxID = r.TaxID
	c.Version = r.Version
}

// ListClientsRequest contains list filter parameters.
type ListClientsRequest struct {
	Search string `form:"search"`
	Limit  int    `form:"limit" binding:"omitempty,min=1,max=200"`
	Offset int    `form:"offset" binding:"omitempty,min=0"`
}

// ToFilter converts the request to a domain filter.
func (r ListClientsRequest) ToFilter() client.ListFilter {
	filter := client.DefaultListFilter()
	filter.Search = r.Search
	if r.Limit > 0 {
		filter.Limit = r.Limit
	}
	filter.Offset = r.Offset
	return filter
}

// ClientResponse contains client fields.
type ClientResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Address   string    `json:"address,omitempty"`
	TaxID     string    `json:"taxId,omitempty"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromClient creates ClientResponse from the domain model.
func FromClient(c *client.Client) ClientResponse {
	return ClientResponse{
		ID:        c.ID.String(),
		Name:      c.Name,
		Email:     c.Email,
		Phone:     c.Phone,
		Address:   c.Address,
		TaxID:     c.TaxID,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// FromClients maps a slice of clients to responses.
func FromClients(clients []*client.Client) []ClientResponse {
	responses := make([]ClientResponse, len(clients))
	for i, c := range clients {
		responses[i] = FromClient(c)
	}
	return responses
}
