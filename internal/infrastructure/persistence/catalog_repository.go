package persistence

import (
	"context"
	"fmt"
	"strings"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCatalogRepository implements procurement.CatalogRepository using GORM
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GormCatalogRepository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// FindByID finds a catalog item by ID
func (r *GormCatalogRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.CatalogItem, error) {
	var model models.CatalogItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindBySKU finds a catalog item by its SKU
func (r *GormCatalogRepository) FindBySKU(ctx context.Context, sku string) (*procurement.CatalogItem, error) {
	var model models.CatalogItemModel
	if err := r.db.WithContext(ctx).
		First(&model, "sku = ?", strings.ToUpper(strings.TrimSpace(sku))).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of catalog items
func (r *GormCatalogRepository) FindAll(ctx context.Context, filter shared.Filter) ([]procurement.CatalogItem, error) {
	var itemModels []models.CatalogItemModel
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.CatalogItemModel{}), filter)
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	sortField := ValidateSortField(filter.OrderBy, CatalogSortFields, "sku")
	query = query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))

	if err := query.Find(&itemModels).Error; err != nil {
		return nil, err
	}
	items := make([]procurement.CatalogItem, len(itemModels))
	for i := range itemModels {
		items[i] = *itemModels[i].ToDomain()
	}
	return items, nil
}

// Count returns the number of catalog items matching the filter
func (r *GormCatalogRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.CatalogItemModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save inserts or updates a catalog item
func (r *GormCatalogRepository) Save(ctx context.Context, item *procurement.CatalogItem) error {
	model := models.CatalogItemModelFromDomain(item)
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save catalog item: %w", err)
	}
	return nil
}

// ExistsBySKU checks if a SKU is already in the catalog
func (r *GormCatalogRepository) ExistsBySKU(ctx context.Context, sku string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.CatalogItemModel{}).
		Where("sku = ?", strings.ToUpper(strings.TrimSpace(sku))).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *GormCatalogRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(sku) LIKE ? OR LOWER(name) LIKE ?", pattern, pattern)
	}
	if active, ok := filter.Filters["active"]; ok {
		query = query.Where("active = ?", active)
	}
	return query
}
