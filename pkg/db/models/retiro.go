package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/valecoop/combos-backend/pkg/enums"
)

// Retiro is the pickup ticket issued when a payment is approved.
type Retiro struct {
	ID           uuid.UUID          `gorm:"type:uuid;primaryKey"`
	CompraID     uuid.UUID          `gorm:"column:compra_id;type:uuid;not null;uniqueIndex"`
	NumeroRetiro string             `gorm:"column:numero_retiro;type:text;not null;uniqueIndex"`
	NumeroCola   int                `gorm:"column:numero_cola;not null"`
	TipoCola     enums.QueueType    `gorm:"column:tipo_cola;type:text;not null;default:'regular'"`
	FechaRetiro  time.Time          `gorm:"column:fecha_retiro;not null"`
	Status       enums.PickupStatus `gorm:"column:status;type:text;not null;default:'programado'"`
	CollectedAt  *time.Time         `gorm:"column:collected_at"`
	CreatedAt    time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// PickupQueueCounter hands out per-day queue numbers.
type PickupQueueCounter struct {
	Fecha     string    `gorm:"column:fecha;type:text;primaryKey"`
	Siguiente int       `gorm:"column:siguiente;not null;default:0"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
