package persistence

import (
	"context"
	"fmt"

	"github.com/erp/procurement/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormNotificationLogRepository stores notification dispatch outcomes
type GormNotificationLogRepository struct {
	db *gorm.DB
}

// NewGormNotificationLogRepository creates a new GormNotificationLogRepository
func NewGormNotificationLogRepository(db *gorm.DB) *GormNotificationLogRepository {
	return &GormNotificationLogRepository{db: db}
}

// Create inserts one log row, assigning an ID if missing
func (r *GormNotificationLogRepository) Create(ctx context.Context, entry *models.NotificationLogModel) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write notification log: %w", err)
	}
	return nil
}

// FindByOrderID returns an order's notification history, newest first
func (r *GormNotificationLogRepository) FindByOrderID(ctx context.Context, orderID uuid.UUID, limit int) ([]models.NotificationLogModel, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	var logs []models.NotificationLogModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// CountByStatus returns how many dispatches ended in each status
func (r *GormNotificationLogRepository) CountByStatus(ctx context.Context) (map[models.NotificationStatus]int64, error) {
	var rows []struct {
		Status models.NotificationStatus
		Count  int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.NotificationLogModel{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	counts := make(map[models.NotificationStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}
