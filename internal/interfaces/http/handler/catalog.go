package handler

import (
	"context"

	poapp "github.com/erp/procurement/internal/application/procurement"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogService is the application service behind CatalogHandler
type CatalogService interface {
	Create(ctx context.Context, req poapp.CreateCatalogItemRequest) (*poapp.CatalogItemResponse, error)
	GetByID(ctx context.Context, id uuid.UUID) (*poapp.CatalogItemResponse, error)
	List(ctx context.Context, filter poapp.CatalogListFilter) ([]poapp.CatalogItemResponse, int64, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*poapp.CatalogItemResponse, error)
}

// CatalogHandler handles catalog item API endpoints
type CatalogHandler struct {
	BaseHandler
	catalogService CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// SetActiveRequest toggles whether an item can be ordered
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// Create handles POST /catalog-items
func (h *CatalogHandler) Create(c *gin.Context) {
	var req poapp.CreateCatalogItemRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.catalogService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, item)
}

// GetByID handles GET /catalog-items/:id
func (h *CatalogHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	item, err := h.catalogService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}

// List handles GET /catalog-items
func (h *CatalogHandler) List(c *gin.Context) {
	var filter poapp.CatalogListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	items, total, err := h.catalogService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, items, total, filter.Page, filter.PageSize)
}

// SetActive handles PATCH /catalog-items/:id/active
func (h *CatalogHandler) SetActive(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req SetActiveRequest
	if !h.bindJSON(c, &req) {
		return
	}
	item, err := h.catalogService.SetActive(c.Request.Context(), id, *req.Active)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, item)
}
