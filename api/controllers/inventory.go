package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/valecoop/combos-backend/api/responses"
	"github.com/valecoop/combos-backend/api/validators"
	"github.com/valecoop/combos-backend/pkg/db/models"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
	"github.com/valecoop/combos-backend/pkg/logger"
)

type inventoryService interface {
	Set(ctx context.Context, productoID uuid.UUID, qty int) (*models.InventoryItem, error)
	List(ctx context.Context) ([]models.InventoryItem, error)
}

type setInventoryBody struct {
	Cantidad *int `json:"cantidad" validate:"required,min=0"`
}

// SetInventory fixes the stock level of a product. Staff only.
func SetInventory(svc inventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		productoID, err := uuid.Parse(chi.URLParam(r, "productoId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid producto id"))
			return
		}

		var body setInventoryBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		item, err := svc.Set(r.Context(), productoID, *body.Cantidad)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// ListInventory returns current stock levels. Staff only.
func ListInventory(svc inventoryService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "inventory service unavailable"))
			return
		}

		items, err := svc.List(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"items": items})
	}
}
