package procurement

import (
	"context"
	"strings"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService manages the items a purchase order can be raised against
type CatalogService struct {
	catalogRepo procurement.CatalogRepository
	logger      *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(catalogRepo procurement.CatalogRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{
		catalogRepo: catalogRepo,
		logger:      logger,
	}
}

// Create adds a catalog item
func (s *CatalogService) Create(ctx context.Context, req CreateCatalogItemRequest) (*CatalogItemResponse, error) {
	exists, err := s.catalogRepo.ExistsBySKU(ctx, strings.ToUpper(strings.TrimSpace(req.SKU)))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Catalog item with this SKU already exists")
	}

	item, err := procurement.NewCatalogItem(req.SKU, req.Name, req.DefaultPrice)
	if err != nil {
		return nil, err
	}
	if err := s.catalogRepo.Save(ctx, item); err != nil {
		return nil, err
	}

	s.logger.Info("Catalog item created", zap.String("sku", item.SKU), zap.String("item_id", item.ID.String()))
	response := ToCatalogItemResponse(item)
	return &response, nil
}

// GetByID retrieves a catalog item
func (s *CatalogService) GetByID(ctx context.Context, id uuid.UUID) (*CatalogItemResponse, error) {
	item, err := s.catalogRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToCatalogItemResponse(item)
	return &response, nil
}

// List returns catalog items ordered by SKU
func (s *CatalogService) List(ctx context.Context, filter CatalogListFilter) ([]CatalogItemResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}
	domainFilter := shared.Filter{
		Page:     filter.Page,
		PageSize: filter.PageSize,
		OrderBy:  "sku",
		OrderDir: "asc",
		Search:   filter.Search,
		Filters:  make(map[string]interface{}),
	}
	if filter.Active != nil {
		domainFilter.Filters["active"] = *filter.Active
	}

	items, err := s.catalogRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.catalogRepo.Count(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]CatalogItemResponse, len(items))
	for i := range items {
		responses[i] = ToCatalogItemResponse(&items[i])
	}
	return responses, total, nil
}

// SetActive activates or deactivates an item
func (s *CatalogService) SetActive(ctx context.Context, id uuid.UUID, active bool) (*CatalogItemResponse, error) {
	item, err := s.catalogRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if active {
		item.Activate()
	} else {
		item.Deactivate()
	}
	if err := s.catalogRepo.Save(ctx, item); err != nil {
		return nil, err
	}
	response := ToCatalogItemResponse(item)
	return &response, nil
}
