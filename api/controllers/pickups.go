package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/valecoop/combos-backend/api/responses"
	"github.com/valecoop/combos-backend/pkg/db/models"
	"github.com/valecoop/combos-backend/pkg/enums"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
	"github.com/valecoop/combos-backend/pkg/logger"
)

type pickupService interface {
	GetByCompra(ctx context.Context, compraID uuid.UUID, actorID uuid.UUID, role enums.UserRole) (*models.Retiro, error)
	GetByNumero(ctx context.Context, numero string) (*models.Retiro, error)
	MarkCollected(ctx context.Context, numero string, actorID uuid.UUID, role enums.UserRole) (*models.Retiro, error)
}

// GetPickupTicket returns the pickup ticket tied to a purchase.
func GetPickupTicket(svc pickupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickups service unavailable"))
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

		retiro, err := svc.GetByCompra(r.Context(), compraID, actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retiro)
	}
}

// LookupPickupTicket resolves a ticket by its pickup number. Staff only.
func LookupPickupTicket(svc pickupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickups service unavailable"))
			return
		}

		numero := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "numeroRetiro")))
		if numero == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "numero retiro required"))
			return
		}

		retiro, err := svc.GetByNumero(r.Context(), numero)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retiro)
	}
}

// CollectPickupTicket marks a ticket as handed over. Staff only.
func CollectPickupTicket(svc pickupService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "pickups service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		numero := strings.ToUpper(strings.TrimSpace(chi.URLParam(r, "numeroRetiro")))
		if numero == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "numero retiro required"))
			return
		}

		retiro, err := svc.MarkCollected(r.Context(), numero, actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, retiro)
	}
}
