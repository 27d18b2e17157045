package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erp/procurement/internal/domain/procurement"
	"github.com/erp/procurement/internal/domain/shared"
	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements procurement.PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

func preloadAggregate(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Lines", func(db *gorm.DB) *gorm.DB {
			return db.Order("line_number ASC")
		}).
		Preload("Deliveries", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC, created_at ASC")
		}).
		Preload("Deliveries.Lines").
		Preload("ApprovalHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("date ASC")
		})
}

// FindByID loads the full aggregate
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*procurement.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := preloadAggregate(r.db.WithContext(ctx)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindByDisplayID loads the full aggregate by its PO-YYYY-NNNNN code
func (r *GormPurchaseOrderRepository) FindByDisplayID(ctx context.Context, displayID string) (*procurement.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := preloadAggregate(r.db.WithContext(ctx)).
		First(&model, "display_id = ?", strings.ToUpper(strings.TrimSpace(displayID))).Error; err != nil {
		return nil, translateError(err)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of orders with their lines
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]procurement.PurchaseOrder, error) {
	var orderModels []models.PurchaseOrderModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}), filter)

	if err := query.Preload("Lines", func(db *gorm.DB) *gorm.DB {
		return db.Order("line_number ASC")
	}).Find(&orderModels).Error; err != nil {
		return nil, err
	}

	orders := make([]procurement.PurchaseOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// Count returns the number of orders matching the filter
func (r *GormPurchaseOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}), filter)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus returns order counts grouped by status
func (r *GormPurchaseOrderRepository) CountByStatus(ctx context.Context) (map[procurement.Status]int64, error) {
	var rows []struct {
		Status procurement.Status
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[procurement.Status]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Create inserts a new order with all of its children
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, order *procurement.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.PurchaseOrderModelFromDomain(order)
		if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return shared.NewDomainError("ALREADY_EXISTS", "Purchase order number already exists")
			}
			return fmt.Errorf("failed to create purchase order: %w", err)
		}
		return saveChildren(tx, order)
	})
}

// SaveWithLock writes the aggregate if the stored version still matches
// order.Version, then bumps the version on both the row and the aggregate.
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *procurement.PurchaseOrder) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var currentVersion int
		result := tx.Model(&models.PurchaseOrderModel{}).
			Where("id = ?", order.ID).
			Select("version").
			Scan(&currentVersion)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		if currentVersion != order.Version {
			return shared.ErrConcurrentModification
		}

		updatedAt := time.Now()
		result = tx.Model(&models.PurchaseOrderModel{}).
			Where("id = ? AND version = ?", order.ID, currentVersion).
			Updates(map[string]interface{}{
				"site":               order.Site,
				"supplier_id":        order.SupplierID,
				"supplier_name":      order.SupplierName,
				"status":             order.Status,
				"total_amount":       order.TotalAmount,
				"customer_name":      order.CustomerName,
				"reason_for_request": order.ReasonForRequest,
				"comments":           order.Comments,
				"version":            currentVersion + 1,
				"updated_at":         updatedAt,
			})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrConcurrentModification
		}

		lineIDs := make([]uuid.UUID, len(order.Lines))
		for i, line := range order.Lines {
			lineIDs[i] = line.ID
		}
		removed := tx.Where("order_id = ?", order.ID)
		if len(lineIDs) > 0 {
			removed = removed.Where("id NOT IN ?", lineIDs)
		}
		if err := removed.Delete(&models.LineItemModel{}).Error; err != nil {
			return err
		}

		if err := saveChildren(tx, order); err != nil {
			return err
		}

		order.Version = currentVersion + 1
		order.UpdatedAt = updatedAt
		return nil
	})
	if err != nil {
		return err
	}
	return nil
}

// saveChildren upserts lines, deliveries (with their lines) and approval history
func saveChildren(tx *gorm.DB, order *procurement.PurchaseOrder) error {
	for i, line := range order.Lines {
		model := models.LineItemModelFromDomain(order.ID, i+1, line)
		if err := tx.Save(&model).Error; err != nil {
			return fmt.Errorf("failed to save order line: %w", err)
		}
	}

	for _, delivery := range order.Deliveries {
		model := models.DeliveryHeaderModelFromDomain(order.ID, delivery)
		lines := model.Lines
		model.Lines = nil
		if err := tx.Omit(clause.Associations).Save(&model).Error; err != nil {
			return fmt.Errorf("failed to save delivery: %w", err)
		}
		for i := range lines {
			if err := tx.Save(&lines[i]).Error; err != nil {
				return fmt.Errorf("failed to save delivery line: %w", err)
			}
		}
	}

	for _, event := range order.ApprovalHistory {
		model := models.ApprovalEventModelFromDomain(order.ID, event)
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model).Error; err != nil {
			return fmt.Errorf("failed to save approval event: %w", err)
		}
	}
	return nil
}

// Delete removes an order and its children if the stored version equals expectedVersion
func (r *GormPurchaseOrderRepository) Delete(ctx context.Context, id uuid.UUID, expectedVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Where("id = ? AND version = ?", id, expectedVersion).
			Delete(&models.PurchaseOrderModel{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			var count int64
			if err := tx.Model(&models.PurchaseOrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return shared.ErrNotFound
			}
			return shared.ErrConcurrentModification
		}

		deliveryIDs := tx.Model(&models.DeliveryHeaderModel{}).Select("id").Where("order_id = ?", id)
		if err := tx.Where("delivery_id IN (?)", deliveryIDs).Delete(&models.DeliveryLineModel{}).Error; err != nil {
			return err
		}
		for _, child := range []interface{}{
			&models.DeliveryHeaderModel{},
			&models.ApprovalEventModel{},
			&models.LineItemModel{},
		} {
			if err := tx.Where("order_id = ?", id).Delete(child).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GenerateDisplayID returns the next PO-YYYY-NNNNN code for the current year
func (r *GormPurchaseOrderRepository) GenerateDisplayID(ctx context.Context) (string, error) {
	prefix := fmt.Sprintf("PO-%d-", time.Now().Year())

	var last models.PurchaseOrderModel
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderModel{}).
		Select("display_id").
		Where("display_id LIKE ?", prefix+"%").
		Order("display_id DESC").
		First(&last).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", err
	}

	next := 1
	if err == nil {
		var n int
		if _, scanErr := fmt.Sscanf(strings.TrimPrefix(last.DisplayID, prefix), "%d", &n); scanErr == nil {
			next = n + 1
		}
	}

	for i := 0; i < 100; i++ {
		candidate := fmt.Sprintf("%s%05d", prefix, next)
		var count int64
		if err := r.db.WithContext(ctx).
			Model(&models.PurchaseOrderModel{}).
			Where("display_id = ?", candidate).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return candidate, nil
		}
		next++
	}
	return "", fmt.Errorf("no free purchase order number after %s%05d", prefix, next)
}

func (r *GormPurchaseOrderRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, PurchaseOrderSortFields, "created_at")
	return query.Order(sortField + " " + ValidateSortOrder(filter.OrderDir))
}

func (r *GormPurchaseOrderRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if search := strings.TrimSpace(filter.Search); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		query = query.Where(
			"LOWER(display_id) LIKE ? OR LOWER(supplier_name) LIKE ? OR LOWER(requester_name) LIKE ?",
			pattern, pattern, pattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "site":
			query = query.Where("site = ?", value)
		case "supplier_id":
			query = query.Where("supplier_id = ?", value)
		case "requester_id":
			query = query.Where("requester_id = ?", value)
		}
	}
	return query
}
