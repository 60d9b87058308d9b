package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/valecoop/combos-backend/internal/payments"
	"github.com/valecoop/combos-backend/pkg/db/models"
	"github.com/valecoop/combos-backend/pkg/enums"
	"github.com/valecoop/combos-backend/pkg/pagination"
)

type testPaymentService struct {
	registerFn    func(ctx context.Context, input payments.RegisterInput) (*models.Pago, error)
	verifyFn      func(ctx context.Context, input payments.VerifyInput) (*payments.VerifyResult, error)
	listPendingFn func(ctx context.Context, params pagination.Params, role enums.UserRole) (*payments.PaymentList, error)
}

func (s *testPaymentService) Register(ctx context.Context, input payments.RegisterInput) (*models.Pago, error) {
	if s.registerFn != nil {
		return s.registerFn(ctx, input)
	}
	return &models.Pago{ID: uuid.New()}, nil
}

func (s *testPaymentService) Verify(ctx context.Context, input payments.VerifyInput) (*payments.VerifyResult, error) {
	if s.verifyFn != nil {
		return s.verifyFn(ctx, input)
	}
	return &payments.VerifyResult{}, nil
}

func (s *testPaymentService) ListPending(ctx context.Context, params pagination.Params, role enums.UserRole) (*payments.PaymentList, error) {
	if s.listPendingFn != nil {
		return s.listPendingFn(ctx, params, role)
	}
	return &payments.PaymentList{}, nil
}

func TestRegisterPaymentSuccess(t *testing.T) {
	buyerID := uuid.New()
	compraID := uuid.New()
	var got payments.RegisterInput
	svc := &testPaymentService{
		registerFn: func(ctx context.Context, input payments.RegisterInput) (*models.Pago, error) {
			got = input
			return &models.Pago{ID: uuid.New(), CompraID: input.CompraID}, nil
		},
	}

	body := strings.NewReader(`{"metodo":"pago_movil","numero_referencia":"00451223","monto":"18.00"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compras/"+compraID.String()+"/pagos", body)
	req = asMember(req, buyerID, "cliente")
	req = addRouteParam(req, "compraId", compraID.String())
	resp := httptest.NewRecorder()
	RegisterPayment(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.CompraID != compraID || got.ActorUserID != buyerID {
		t.Fatalf("unexpected input %+v", got)
	}
	if got.Metodo != enums.PaymentMethodPagoMovil {
		t.Fatalf("unexpected metodo %s", got.Metodo)
	}
	if !got.Monto.Equal(decimal.RequireFromString("18.00")) {
		t.Fatalf("unexpected monto %s", got.Monto)
	}
}

func TestRegisterPaymentRejectsMissingReference(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compras/"+uuid.NewString()+"/pagos",
		strings.NewReader(`{"metodo":"transferencia","monto":"18.00"}`))
	req = asMember(req, uuid.New(), "cliente")
	req = addRouteParam(req, "compraId", uuid.NewString())
	resp := httptest.NewRecorder()
	RegisterPayment(&testPaymentService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestVerifyPaymentPassesDecision(t *testing.T) {
	verifierID := uuid.New()
	pagoID := uuid.New()
	var got payments.VerifyInput
	svc := &testPaymentService{
		verifyFn: func(ctx context.Context, input payments.VerifyInput) (*payments.VerifyResult, error) {
			got = input
			return &payments.VerifyResult{}, nil
		},
	}

	body := strings.NewReader(`{"approve":false,"reason":"referencia no encontrada"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/pagos/"+pagoID.String()+"/verify", body)
	req = asMember(req, verifierID, "cobranza")
	req = addRouteParam(req, "pagoId", pagoID.String())
	resp := httptest.NewRecorder()
	VerifyPayment(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.PagoID != pagoID || got.VerifierID != verifierID {
		t.Fatalf("unexpected input %+v", got)
	}
	if got.Approve {
		t.Fatal("expected rejection")
	}
	if got.Role != enums.UserRoleCobranza {
		t.Fatalf("unexpected role %s", got.Role)
	}
	if got.Reason != "referencia no encontrada" {
		t.Fatalf("unexpected reason %q", got.Reason)
	}
}

func TestListPendingPaymentsPassesRole(t *testing.T) {
	var gotRole enums.UserRole
	svc := &testPaymentService{
		listPendingFn: func(ctx context.Context, params pagination.Params, role enums.UserRole) (*payments.PaymentList, error) {
			gotRole = role
			return &payments.PaymentList{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/pagos/pending", nil)
	req = asMember(req, uuid.New(), "admin")
	resp := httptest.NewRecorder()
	ListPendingPayments(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if gotRole != enums.UserRoleAdmin {
		t.Fatalf("unexpected role %s", gotRole)
	}
}
