package inventory

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/valecoop/combos-backend/pkg/db/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:inventory_%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.InventoryItem{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func TestSetAndAvailable(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	svc, err := NewService(NewRepository(db))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	ctx := context.Background()
	productoID := uuid.New()

	if _, err := svc.Set(ctx, productoID, 7); err != nil {
		t.Fatalf("set: %v", err)
	}
	qty, err := svc.Available(ctx, productoID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if qty != 7 {
		t.Fatalf("expected 7, got %d", qty)
	}

	// upsert overwrites
	if _, err := svc.Set(ctx, productoID, 3); err != nil {
		t.Fatalf("set again: %v", err)
	}
	qty, err = svc.Available(ctx, productoID)
	if err != nil {
		t.Fatalf("available: %v", err)
	}
	if qty != 3 {
		t.Fatalf("expected 3, got %d", qty)
	}

	qty, err = svc.Available(ctx, uuid.New())
	if err != nil {
		t.Fatalf("available untracked: %v", err)
	}
	if qty != 0 {
		t.Fatalf("expected 0 for untracked product, got %d", qty)
	}

	if _, err := svc.Set(ctx, productoID, -1); err == nil {
		t.Fatal("expected error for negative quantity")
	}
}

func TestConsumeFloorsAtZero(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	ctx := context.Background()
	productoA := uuid.New()
	productoB := uuid.New()

	for _, item := range []models.InventoryItem{
		{ProductoID: productoA, AvailableQty: 5},
		{ProductoID: productoB, AvailableQty: 2},
	} {
		if err := db.Create(&item).Error; err != nil {
			t.Fatalf("seed inventory: %v", err)
		}
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		return Consume(ctx, tx, []ConsumeItem{
			{ProductoID: productoA, Cantidad: 3},
			{ProductoID: productoB, Cantidad: 9},
		})
	})
	if err != nil {
		t.Fatalf("consume: %v", err)
	}

	var invA, invB models.InventoryItem
	if err := db.First(&invA, "producto_id = ?", productoA).Error; err != nil {
		t.Fatalf("load a: %v", err)
	}
	if err := db.First(&invB, "producto_id = ?", productoB).Error; err != nil {
		t.Fatalf("load b: %v", err)
	}
	if invA.AvailableQty != 2 {
		t.Fatalf("expected 2 remaining, got %d", invA.AvailableQty)
	}
	if invB.AvailableQty != 0 {
		t.Fatalf("expected stock floored at 0, got %d", invB.AvailableQty)
	}
}
