package controllers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/valecoop/combos-backend/api/responses"
	"github.com/valecoop/combos-backend/api/validators"
	"github.com/valecoop/combos-backend/internal/payments"
	"github.com/valecoop/combos-backend/pkg/db/models"
	"github.com/valecoop/combos-backend/pkg/enums"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
	"github.com/valecoop/combos-backend/pkg/logger"
	"github.com/valecoop/combos-backend/pkg/pagination"
)

type paymentService interface {
	Register(ctx context.Context, input payments.RegisterInput) (*models.Pago, error)
	Verify(ctx context.Context, input payments.VerifyInput) (*payments.VerifyResult, error)
	ListPending(ctx context.Context, params pagination.Params, role enums.UserRole) (*payments.PaymentList, error)
}

type registerPaymentBody struct {
	Metodo           string          `json:"metodo" validate:"required"`
	NumeroReferencia string          `json:"numero_referencia" validate:"required"`
	Monto            decimal.Decimal `json:"monto"`
	BancoOrigen      string          `json:"banco_origen,omitempty"`
	TelefonoPago     string          `json:"telefono_pago,omitempty"`
}

type verifyPaymentBody struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason,omitempty"`
}

// RegisterPayment records a buyer's manual payment report against a purchase.
func RegisterPayment(svc paymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		compraID, err := uuid.Parse(chi.URLParam(r, "compraId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid compra id"))
			return
		}

		var body registerPaymentBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pago, err := svc.Register(r.Context(), payments.RegisterInput{
			CompraID:         compraID,
			ActorUserID:      actorID,
			Metodo:           enums.PaymentMethod(body.Metodo),
			NumeroReferencia: validators.SanitizeString(body.NumeroReferencia, 64),
			Monto:            body.Monto,
			BancoOrigen:      validators.SanitizeString(body.BancoOrigen, 100),
			TelefonoPago:     validators.SanitizeString(body.TelefonoPago, 20),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, pago)
	}
}

// VerifyPayment settles a reported payment. Staff only.
func VerifyPayment(svc paymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		pagoID, err := uuid.Parse(chi.URLParam(r, "pagoId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pago id"))
			return
		}

		var body verifyPaymentBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Verify(r.Context(), payments.VerifyInput{
			PagoID:     pagoID,
			VerifierID: actorID,
			Role:       role,
			Approve:    body.Approve,
			Reason:     validators.SanitizeString(body.Reason, 280),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListPendingPayments returns the verification queue. Staff only.
func ListPendingPayments(svc paymentService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		_, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := paginationFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		list, err := svc.ListPending(r.Context(), params, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}
