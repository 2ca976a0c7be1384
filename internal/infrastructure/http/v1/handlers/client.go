package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"billora/internal/core/apperror"
	"billora/internal/core/id"
	"billora/internal/domain/catalogs/client"
	"billora/internal/infrastructure/http/v1/dto"
)

// ClientHandler handles client catalog endpoints.
type ClientHandler struct {
	*BaseHandler
	service *client.Service
}

// NewClientHandler creates a new client handler.
func NewClientHandler(service *client.Service) *ClientHandler {
	return &ClientHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create handles client creation.
// POST /api/v1/clients
func (h *ClientHandler) Create(c *gin.Context) {
	var req dto.CreateClientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl := req.ToDomain()

	if err := h.service.Create(c.Request.Context(), cl); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromClient(cl))
}

// Get retrieves a client by ID.
// GET /api/v1/clients/:id
func (h *ClientHandler) Get(c *gin.Context) {
	clientID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("id", "invalid client id"))
		return
	}

	cl, err := h.service.GetByID(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromClient(cl))
}

// Update handles client modification.
// PUT /api/v1/clients/:id
func (h *ClientHandler) Update(c *gin.Context) {
	clientID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("id", "invalid client id"))
		return
	}

	var req dto.UpdateClientRequest
	if !h.BindJSON(c, &req) {
		return
	}

	cl, err := h.service.GetByID(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.Apply(cl)

	if err := h.service.Update(c.Request.Context(), cl); err != nil {
		h.Error(c, err)
		return
	}

	updated, err := h.service.GetByID(c.Request.Context(), clientID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromClient(updated))
}

// Delete removes a client from the catalog.
// DELETE /api/v1/clients/:id
func (h *ClientHandler) Delete(c *gin.Context) {
	clientID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewInvalidInput("id", "invalid client id"))
		return
	}

	if err := h.service.Delete(c.Request.Context(), clientID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}

// List retrieves clients with filtering.
// GET /api/v1/clients
func (h *ClientHandler) List(c *gin.Context) {
	var req dto.ListClientsRequest
	if !h.BindQuery(c, &req) {
		return
	}

	result, err := h.service.List(c.Request.Context(), req.ToFilter())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.ListResponse{
		Items:      dto.FromClients(result.Items),
		TotalCount: result.TotalCount,
		Limit:      result.Limit,
		Offset:     result.Offset,
	})
}
