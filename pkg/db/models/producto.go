package models

import (
	"time"

	"github.com/google/uuid"
)

// Producto is a catalog product distributed through combos.
type Producto struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	Nombre      string    `gorm:"column:nombre;type:text;not null"`
	Descripcion *string   `gorm:"column:descripcion;type:text"`
	Unidad      string    `gorm:"column:unidad;type:text;not null;default:'unidad'"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
