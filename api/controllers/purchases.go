package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/valecoop/combos-backend/api/responses"
	"github.com/valecoop/combos-backend/api/validators"
	"github.com/valecoop/combos-backend/internal/purchases"
	"github.com/valecoop/combos-backend/pkg/db/models"
	"github.com/valecoop/combos-backend/pkg/enums"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
	"github.com/valecoop/combos-backend/pkg/logger"
	"github.com/valecoop/combos-backend/pkg/pagination"
)

type purchaseService interface {
	Create(ctx context.Context, input purchases.CreateInput) (*models.Compra, error)
	Get(ctx context.Context, id uuid.UUID, actorID uuid.UUID, role enums.UserRole) (*models.Compra, error)
	ListMine(ctx context.Context, buyerID uuid.UUID) ([]models.Compra, error)
	List(ctx context.Context, params pagination.Params, status *enums.PurchaseStatus) (*purchases.PurchaseList, error)
	Cancel(ctx context.Context, input purchases.CancelInput) (*models.Compra, error)
}

type createPurchaseBody struct {
	ComboID string `json:"combo_id" validate:"required,uuid"`
}

// CreatePurchase opens a payable order for a combo.
func CreatePurchase(svc purchaseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createPurchaseBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		comboID, err := uuid.Parse(body.ComboID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid combo id"))
			return
		}

		compra, err := svc.Create(r.Context(), purchases.CreateInput{
			CompradorID: actorID,
			ComboID:     comboID,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, compra)
	}
}

// GetPurchase returns a purchase visible to its buyer or staff.
func GetPurchase(svc purchaseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		compraID, err := uuid.Parse(chi.URLParam(r, "compraId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid compra id"))
			return
		}

		compra, err := svc.Get(r.Context(), compraID, actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, compra)
	}
}

// ListMyPurchases returns the caller's purchase history.
func ListMyPurchases(svc purchaseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		compras, err := svc.ListMine(r.Context(), actorID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"compras": compras})
	}
}

// ListPurchases returns the paginated purchase feed for staff, optionally
// filtered by status.
func ListPurchases(svc purchaseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		params, err := paginationFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var status *enums.PurchaseStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParsePurchaseStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = &parsed
		}

		list, err := svc.List(r.Context(), params, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// CancelPurchase closes an open purchase.
func CancelPurchase(svc purchaseService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "purchases service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		compraID, err := uuid.Parse(chi.URLParam(r, "compraId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid compra id"))
			return
		}

		compra, err := svc.Cancel(r.Context(), purchases.CancelInput{
			CompraID:    compraID,
			ActorUserID: actorID,
			ActorRole:   role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, compra)
	}
}

func paginationFromRequest(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{}
	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, 100)
	if err != nil {
		return params, err
	}
	params.Limit = limit
	if cursor := strings.TrimSpace(r.URL.Query().Get("cursor")); cursor != "" {
		params.Cursor = cursor
	}
	return params, nil
}
