package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/valecoop/combos-backend/pkg/enums"
)

// User represents a cooperative member or staff account.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Cedula       string         `gorm:"column:cedula;type:text;not null;uniqueIndex"`
	Email        string         `gorm:"type:text;not null;uniqueIndex"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	FirstName    string         `gorm:"column:first_name;not null"`
	LastName     string         `gorm:"column:last_name;not null"`
	Phone        *string        `gorm:"column:phone"`
	Role         enums.UserRole `gorm:"column:role;type:text;not null;default:'cliente'"`
	Kind         enums.UserKind `gorm:"column:kind;type:text;not null;default:'regular'"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	LastLoginAt  *time.Time     `gorm:"column:last_login_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
