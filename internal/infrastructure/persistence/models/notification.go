package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationStatus is the outcome of one notification dispatch
type NotificationStatus string

const (
	NotificationStatusSent    NotificationStatus = "SENT"
	NotificationStatusFailed  NotificationStatus = "FAILED"
	NotificationStatusSkipped NotificationStatus = "SKIPPED"
)

// NotificationLogModel records every workflow notification attempt
type NotificationLogModel struct {
	ID           uuid.UUID          `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID          `gorm:"type:uuid;not null;index"`
	DisplayID    string             `gorm:"type:varchar(20)"`
	WorkflowType string             `gorm:"type:varchar(50);not null;index"`
	Status       NotificationStatus `gorm:"type:varchar(20);not null"`
	Payload      datatypes.JSON     `gorm:"type:jsonb"`
	Error        string             `gorm:"type:text"`
	CreatedAt    time.Time          `gorm:"not null"`
}

// TableName returns the table name for GORM
func (NotificationLogModel) TableName() string {
	return "notification_logs"
}
