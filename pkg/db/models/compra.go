package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/valecoop/combos-backend/pkg/enums"
)

// Compra is a member's purchase of a combo, driving the payment workflow.
type Compra struct {
	ID          uuid.UUID            `gorm:"type:uuid;primaryKey"`
	CompradorID uuid.UUID            `gorm:"column:comprador_id;type:uuid;not null;index"`
	ComboID     uuid.UUID            `gorm:"column:combo_id;type:uuid;not null"`
	Status      enums.PurchaseStatus `gorm:"column:status;type:text;not null;default:'pendiente_pago'"`
	Total       decimal.Decimal      `gorm:"column:total;type:numeric(12,2);not null"`
	LockVersion int                  `gorm:"column:lock_version;not null;default:0"`
	Items       []CompraItem         `gorm:"foreignKey:CompraID;constraint:OnDelete:CASCADE"`
	Pagos       []Pago               `gorm:"foreignKey:CompraID;constraint:OnDelete:CASCADE"`
	Retiro      *Retiro              `gorm:"foreignKey:CompraID;constraint:OnDelete:CASCADE"`
	CanceledAt  *time.Time           `gorm:"column:canceled_at"`
	CreatedAt   time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}

// CompraItem captures the combo contents snapshot at purchase time.
type CompraItem struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompraID   uuid.UUID `gorm:"column:compra_id;type:uuid;not null;index"`
	ProductoID uuid.UUID `gorm:"column:producto_id;type:uuid;not null"`
	Nombre     string    `gorm:"column:nombre;type:text;not null"`
	Cantidad   int       `gorm:"column:cantidad;not null"`
}
