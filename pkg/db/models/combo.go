package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Combo is a priced bundle of products offered to members.
type Combo struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Nombre      string          `gorm:"column:nombre;type:text;not null"`
	Descripcion *string         `gorm:"column:descripcion;type:text"`
	Precio      decimal.Decimal `gorm:"column:precio;type:numeric(12,2);not null"`
	Disponible  bool            `gorm:"column:disponible;not null;default:true"`
	Productos   []ComboProducto `gorm:"foreignKey:ComboID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// ComboProducto links a combo to a product with its bundled quantity.
type ComboProducto struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	ComboID    uuid.UUID `gorm:"column:combo_id;type:uuid;not null;index"`
	ProductoID uuid.UUID `gorm:"column:producto_id;type:uuid;not null"`
	Cantidad   int       `gorm:"column:cantidad;not null"`
	Producto   *Producto `gorm:"foreignKey:ProductoID"`
}
