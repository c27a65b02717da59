package models

import (
	"time"

	"github.com/erp/accounting/internal/domain/identity"
)

// TenantModel is the persistence model for the Tenant aggregate
type TenantModel struct {
	AggregateModel
	Code   string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name   string                `gorm:"type:varchar(200);not null"`
	Status identity.TenantStatus `gorm:"type:varchar(20);not null;default:'active'"`
}

// TableName returns the table name for GORM
func (TenantModel) TableName() string {
	return "tenants"
}

// ToDomain converts the persistence model to a domain Tenant
func (m *TenantModel) ToDomain() *identity.Tenant {
	return &identity.Tenant{
		BaseAggregateRoot: m.ToAggregate(),
		Code:              m.Code,
		Name:              m.Name,
		Status:            m.Status,
	}
}

// TenantModelFromDomain creates a persistence model from a domain Tenant
func TenantModelFromDomain(t *identity.Tenant) *TenantModel {
	m := &TenantModel{Code: t.Code, Name: t.Name, Status: t.Status}
	m.FromAggregate(t.BaseAggregateRoot)
	return m
}

// UserModel is the persistence model for API users
type UserModel struct {
	TenantAggregateModel
	Username       string              `gorm:"type:varchar(100);not null;index"`
	PasswordHash   string              `gorm:"type:varchar(255);not null"`
	DisplayName    string              `gorm:"type:varchar(200)"`
	Role           identity.UserRole   `gorm:"type:varchar(20);not null"`
	Status         identity.UserStatus `gorm:"type:varchar(20);not null;default:'active'"`
	FailedAttempts int                 `gorm:"not null;default:0"`
	LockedUntil    *time.Time
	LastLoginAt    *time.Time
}

// TableName returns the table name for GORM
func (UserModel) TableName() string {
	return "users"
}

// ToDomain converts the persistence model to a domain User
func (m *UserModel) ToDomain() *identity.User {
	return &identity.User{
		TenantAggregateRoot: m.ToTenantAggregate(),
		Username:            m.Username,
		PasswordHash:        m.PasswordHash,
		DisplayName:         m.DisplayName,
		Role:                m.Role,
		Status:              m.Status,
		FailedAttempts:      m.FailedAttempts,
		LockedUntil:         m.LockedUntil,
		LastLoginAt:         m.LastLoginAt,
	}
}

// UserModelFromDomain creates a persistence model from a domain User
func UserModelFromDomain(u *identity.User) *UserModel {
	m := &UserModel{
		Username:       u.Username,
		PasswordHash:   u.PasswordHash,
		DisplayName:    u.DisplayName,
		Role:           u.Role,
		Status:         u.Status,
		FailedAttempts: u.FailedAttempts,
		LockedUntil:    u.LockedUntil,
		LastLoginAt:    u.LastLoginAt,
	}
	m.FromTenantAggregate(u.TenantAggregateRoot)
	return m
}
