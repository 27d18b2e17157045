package models

import (
	"time"

	"github.com/erp/procurement/internal/domain/identity"
	"github.com/lib/pq"
)

// UserModel is the persistence model for the User aggregate
type UserModel struct {
	AggregateModel
	Username       string         `gorm:"type:varchar(100);not null;uniqueIndex"`
	DisplayName    string         `gorm:"type:varchar(200)"`
	Email          string         `gorm:"type:varchar(200)"`
	PasswordHash   string         `gorm:"type:varchar(255);not null"`
	Roles          pq.StringArray `gorm:"type:text[]"`
	Capabilities   pq.StringArray `gorm:"type:text[]"`
	Active         bool           `gorm:"not null"`
	LastLoginAt    *time.Time
	FailedAttempts int `gorm:"not null;default:0"`
	LockedUntil    *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		BaseAggregateRoot: m.ToDomainAggregateRoot(),
		Username:          m.Username,
		DisplayName:       m.DisplayName,
		Email:             m.Email,
		PasswordHash:      m.PasswordHash,
		Roles:             append([]string{}, m.Roles...),
		Capabilities:      append([]string{}, m.Capabilities...),
		Active:            m.Active,
		LastLoginAt:       m.LastLoginAt,
		FailedAttempts:    m.FailedAttempts,
		LockedUntil:       m.LockedUntil,
	}
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Username:       u.Username,
		DisplayName:    u.DisplayName,
		Email:          u.Email,
		PasswordHash:   u.PasswordHash,
		Roles:          pq.StringArray(u.Roles),
		Capabilities:   pq.StringArray(u.Capabilities),
		Active:         u.Active,
		LastLoginAt:    u.LastLoginAt,
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
	}
	m.FromDomainAggregateRoot(u.BaseAggregateRoot)
	return m
}
