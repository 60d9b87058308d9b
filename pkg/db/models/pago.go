package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/valecoop/combos-backend/pkg/enums"
)

// Pago is a buyer-reported manual payment awaiting staff verification.
type Pago struct {
	ID               uuid.UUID           `gorm:"type:uuid;primaryKey"`
	CompraID         uuid.UUID           `gorm:"column:compra_id;type:uuid;not null;index"`
	Metodo           enums.PaymentMethod `gorm:"column:metodo;type:text;not null"`
	NumeroReferencia string              `gorm:"column:numero_referencia;type:text;not null"`
	Monto            decimal.Decimal     `gorm:"column:monto;type:numeric(12,2);not null"`
	BancoOrigen      *string             `gorm:"column:banco_origen;type:text"`
	TelefonoPago     *string             `gorm:"column:telefono_pago;type:text"`
	Status           enums.PaymentStatus `gorm:"column:status;type:text;not null;default:'pendiente'"`
	VerifiedBy       *uuid.UUID          `gorm:"column:verified_by;type:uuid"`
	VerifiedAt       *time.Time          `gorm:"column:verified_at"`
	RejectReason     *string             `gorm:"column:reject_reason;type:text"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
