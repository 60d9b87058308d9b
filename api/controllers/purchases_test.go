package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/valecoop/combos-backend/internal/purchases"
	"github.com/valecoop/combos-backend/pkg/db/models"
	"github.com/valecoop/combos-backend/pkg/enums"
	"github.com/valecoop/combos-backend/pkg/pagination"
)

type testPurchaseService struct {
	createFn   func(ctx context.Context, input purchases.CreateInput) (*models.Compra, error)
	getFn      func(ctx context.Context, id, actorID uuid.UUID, role enums.UserRole) (*models.Compra, error)
	listMineFn func(ctx context.Context, buyerID uuid.UUID) ([]models.Compra, error)
	listFn     func(ctx context.Context, params pagination.Params, status *enums.PurchaseStatus) (*purchases.PurchaseList, error)
	cancelFn   func(ctx context.Context, input purchases.CancelInput) (*models.Compra, error)
}

func (s *testPurchaseService) Create(ctx context.Context, input purchases.CreateInput) (*models.Compra, error) {
	if s.createFn != nil {
		return s.createFn(ctx, input)
	}
	return &models.Compra{ID: uuid.New()}, nil
}

func (s *testPurchaseService) Get(ctx context.Context, id, actorID uuid.UUID, role enums.UserRole) (*models.Compra, error) {
	if s.getFn != nil {
		return s.getFn(ctx, id, actorID, role)
	}
	return &models.Compra{ID: id}, nil
}

func (s *testPurchaseService) ListMine(ctx context.Context, buyerID uuid.UUID) ([]models.Compra, error) {
	if s.listMineFn != nil {
		return s.listMineFn(ctx, buyerID)
	}
	return nil, nil
}

func (s *testPurchaseService) List(ctx context.Context, params pagination.Params, status *enums.PurchaseStatus) (*purchases.PurchaseList, error) {
	if s.listFn != nil {
		return s.listFn(ctx, params, status)
	}
	return &purchases.PurchaseList{}, nil
}

func (s *testPurchaseService) Cancel(ctx context.Context, input purchases.CancelInput) (*models.Compra, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, input)
	}
	return &models.Compra{ID: input.CompraID}, nil
}

func TestCreatePurchaseSuccess(t *testing.T) {
	buyerID := uuid.New()
	comboID := uuid.New()
	var got purchases.CreateInput
	svc := &testPurchaseService{
		createFn: func(ctx context.Context, input purchases.CreateInput) (*models.Compra, error) {
			got = input
			return &models.Compra{ID: uuid.New(), CompradorID: input.CompradorID, ComboID: input.ComboID}, nil
		},
	}

	body := strings.NewReader(`{"combo_id":"` + comboID.String() + `"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compras", body)
	req = asMember(req, buyerID, "cliente")
	resp := httptest.NewRecorder()
	CreatePurchase(svc, testLogger())(resp, req)

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
	if got.CompradorID != buyerID || got.ComboID != comboID {
		t.Fatalf("unexpected input %+v", got)
	}
}

func TestCreatePurchaseRejectsBadBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compras", strings.NewReader(`{"combo_id":"nope"}`))
	req = asMember(req, uuid.New(), "cliente")
	resp := httptest.NewRecorder()
	CreatePurchase(&testPurchaseService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCreatePurchaseRequiresIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/compras", strings.NewReader(`{"combo_id":"`+uuid.NewString()+`"}`))
	resp := httptest.NewRecorder()
	CreatePurchase(&testPurchaseService{}, testLogger())(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 got %d", resp.Code)
	}
}

func TestGetPurchasePassesActor(t *testing.T) {
	actorID := uuid.New()
	compraID := uuid.New()
	svc := &testPurchaseService{
		getFn: func(ctx context.Context, id, aid uuid.UUID, role enums.UserRole) (*models.Compra, error) {
			if id != compraID {
				t.Fatalf("unexpected compra %s", id)
			}
			if aid != actorID {
				t.Fatalf("unexpected actor %s", aid)
			}
			if role != enums.UserRoleCobranza {
				t.Fatalf("unexpected role %s", role)
			}
			return &models.Compra{ID: id}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/compras/"+compraID.String(), nil)
	req = asMember(req, actorID, "cobranza")
	req = addRouteParam(req, "compraId", compraID.String())
	resp := httptest.NewRecorder()
	GetPurchase(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
}

func TestListPurchasesParsesStatusFilter(t *testing.T) {
	var got *enums.PurchaseStatus
	svc := &testPurchaseService{
		listFn: func(ctx context.Context, params pagination.Params, status *enums.PurchaseStatus) (*purchases.PurchaseList, error) {
			got = status
			if params.Limit != 10 {
				t.Fatalf("unexpected limit %d", params.Limit)
			}
			return &purchases.PurchaseList{}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/compras?status=pago_verificando&limit=10", nil)
	req = asMember(req, uuid.New(), "admin")
	resp := httptest.NewRecorder()
	ListPurchases(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got == nil || *got != enums.PurchaseStatusPagoVerificando {
		t.Fatalf("unexpected status filter %v", got)
	}
}

func TestListPurchasesRejectsUnknownStatus(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/compras?status=shipped", nil)
	req = asMember(req, uuid.New(), "admin")
	resp := httptest.NewRecorder()
	ListPurchases(&testPurchaseService{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestCancelPurchasePassesActor(t *testing.T) {
	actorID := uuid.New()
	compraID := uuid.New()
	var got purchases.CancelInput
	svc := &testPurchaseService{
		cancelFn: func(ctx context.Context, input purchases.CancelInput) (*models.Compra, error) {
			got = input
			return &models.Compra{ID: input.CompraID, Status: enums.PurchaseStatusCancelada}, nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/compras/"+compraID.String()+"/cancel", nil)
	req = asMember(req, actorID, "cliente")
	req = addRouteParam(req, "compraId", compraID.String())
	resp := httptest.NewRecorder()
	CancelPurchase(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if got.CompraID != compraID || got.ActorUserID != actorID || got.ActorRole != enums.UserRoleCliente {
		t.Fatalf("unexpected input %+v", got)
	}
}
