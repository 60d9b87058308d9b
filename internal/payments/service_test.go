package payments

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/valecoop/combos-backend/internal/catalog"
	"github.com/valecoop/combos-backend/internal/inventory"
	"github.com/valecoop/combos-backend/internal/notifications"
	"github.com/valecoop/combos-backend/internal/pickups"
	"github.com/valecoop/combos-backend/internal/purchases"
	"github.com/valecoop/combos-backend/internal/users"
	"github.com/valecoop/combos-backend/pkg/config"
	"github.com/valecoop/combos-backend/pkg/db/models"
	"github.com/valecoop/combos-backend/pkg/enums"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
	"github.com/valecoop/combos-backend/pkg/logger"
	"github.com/valecoop/combos-backend/pkg/pagination"
)

type dbTxRunner struct {
	db *gorm.DB
}

func (r dbTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	svc           *Service
	purchases     *purchases.Service
	pickups       *pickups.Service
	catalog       *catalog.Service
	stock         *inventory.Service
	users         *users.Repository
	notifications notifications.Service
	db            *gorm.DB
	cedulaSeq     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:payments_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{SkipDefaultTransaction: true})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.User{},
		&models.Producto{},
		&models.InventoryItem{},
		&models.Combo{},
		&models.ComboProducto{},
		&models.Compra{},
		&models.CompraItem{},
		&models.Pago{},
		&models.Retiro{},
		&models.PickupQueueCounter{},
		&models.Notification{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	stock, err := inventory.NewService(inventory.NewRepository(db))
	if err != nil {
		t.Fatalf("inventory service: %v", err)
	}
	catalogSvc, err := catalog.NewService(catalog.NewRepository(db), stock)
	if err != nil {
		t.Fatalf("catalog service: %v", err)
	}
	runner := dbTxRunner{db: db}
	purchaseSvc, err := purchases.NewService(purchases.NewRepository(db), runner, catalogSvc, nil)
	if err != nil {
		t.Fatalf("purchases service: %v", err)
	}
	pickupSvc, err := pickups.NewService(pickups.NewRepository(db), runner, purchaseSvc, config.PickupConfig{LeadDays: 1, CodeLength: 8}, nil)
	if err != nil {
		t.Fatalf("pickups service: %v", err)
	}
	notifier, err := notifications.NewService(notifications.NewRepository(db))
	if err != nil {
		t.Fatalf("notifications service: %v", err)
	}
	userRepo := users.NewRepository(db)
	svc, err := NewService(
		NewRepository(db),
		runner,
		purchaseSvc,
		pickupSvc,
		userRepo,
		notifier,
		logger.New(logger.Options{ServiceName: "test"}),
		nil,
	)
	if err != nil {
		t.Fatalf("payments service: %v", err)
	}
	return &fixture{
		svc:           svc,
		purchases:     purchaseSvc,
		pickups:       pickupSvc,
		catalog:       catalogSvc,
		stock:         stock,
		users:         userRepo,
		notifications: notifier,
		db:            db,
	}
}

func (f *fixture) createBuyer(t *testing.T, kind enums.UserKind) *models.User {
	t.Helper()
	f.cedulaSeq++
	user, err := f.users.Create(context.Background(), users.CreateUserDTO{
		Cedula:       fmt.Sprintf("V-%08d", f.cedulaSeq),
		Email:        fmt.Sprintf("socio%d@valecoop.test", f.cedulaSeq),
		PasswordHash: "x",
		FirstName:    "María",
		LastName:     "Pérez",
		Role:         enums.UserRoleCliente,
		Kind:         kind,
	})
	if err != nil {
		t.Fatalf("create buyer: %v", err)
	}
	return user
}

// openPurchase seeds a combo backed by stock and opens a purchase for the buyer.
func (f *fixture) openPurchase(t *testing.T, buyer *models.User, stockQty int) (*models.Compra, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	producto, err := f.catalog.CreateProducto(ctx, catalog.CreateProductoInput{Nombre: "Aceite"})
	if err != nil {
		t.Fatalf("create producto: %v", err)
	}
	if _, err := f.stock.Set(ctx, producto.ID, stockQty); err != nil {
		t.Fatalf("set stock: %v", err)
	}
	combo, err := f.catalog.CreateCombo(ctx, catalog.CreateComboInput{
		Nombre: "Combo Cocina",
		Precio: decimal.RequireFromString("30.00"),
		Items:  []catalog.ComboItemInput{{ProductoID: producto.ID, Cantidad: 2}},
	})
	if err != nil {
		t.Fatalf("create combo: %v", err)
	}
	compra, err := f.purchases.Create(ctx, purchases.CreateInput{CompradorID: buyer.ID, ComboID: combo.ID})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	return compra, producto.ID
}

func (f *fixture) register(t *testing.T, compra *models.Compra, buyerID uuid.UUID) *models.Pago {
	t.Helper()
	pago, err := f.svc.Register(context.Background(), RegisterInput{
		CompraID:         compra.ID,
		ActorUserID:      buyerID,
		Metodo:           enums.PaymentMethodPagoMovil,
		NumeroReferencia: "00123456",
		Monto:            compra.Total,
		BancoOrigen:      "Banco de Venezuela",
		TelefonoPago:     "0414-5551234",
	})
	if err != nil {
		t.Fatalf("register payment: %v", err)
	}
	return pago
}

func TestRegisterPayment(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	buyer := f.createBuyer(t, enums.UserKindRegular)
	compra, _ := f.openPurchase(t, buyer, 10)

	_, err := f.svc.Register(ctx, RegisterInput{
		CompraID:         compra.ID,
		ActorUserID:      buyer.ID,
		Metodo:           enums.PaymentMethodTransferencia,
		NumeroReferencia: "REF-1",
		Monto:            decimal.RequireFromString("29.99"),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeAmountMismatch) {
		t.Fatalf("expected AMOUNT_MISMATCH, got %v", err)
	}

	pago := f.register(t, compra, buyer.ID)
	if pago.Status != enums.PaymentStatusPendiente {
		t.Fatalf("expected pendiente, got %s", pago.Status)
	}
	if pago.BancoOrigen == nil || pago.TelefonoPago == nil {
		t.Fatal("expected origin bank and phone to be stored")
	}

	reloaded, err := f.purchases.Get(ctx, compra.ID, buyer.ID, enums.UserRoleCliente)
	if err != nil {
		t.Fatalf("reload purchase: %v", err)
	}
	if reloaded.Status != enums.PurchaseStatusPagoVerificando {
		t.Fatalf("expected pago_verificando, got %s", reloaded.Status)
	}

	// a second report while verification is in flight is rejected
	_, err = f.svc.Register(ctx, RegisterInput{
		CompraID:         compra.ID,
		ActorUserID:      buyer.ID,
		Metodo:           enums.PaymentMethodPagoMovil,
		NumeroReferencia: "REF-2",
		Monto:            compra.Total,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodePurchaseNotPayable) {
		t.Fatalf("expected PURCHASE_NOT_PAYABLE, got %v", err)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	buyer := f.createBuyer(t, enums.UserKindRegular)
	compra, _ := f.openPurchase(t, buyer, 10)

	cases := []RegisterInput{
		{CompraID: compra.ID, ActorUserID: buyer.ID, Metodo: "zelle", NumeroReferencia: "R", Monto: compra.Total},
		{CompraID: compra.ID, ActorUserID: buyer.ID, Metodo: enums.PaymentMethodPagoMovil, NumeroReferencia: "  ", Monto: compra.Total},
		{CompraID: compra.ID, ActorUserID: buyer.ID, Metodo: enums.PaymentMethodPagoMovil, NumeroReferencia: "R", Monto: decimal.Zero},
	}
	for i, input := range cases {
		if _, err := f.svc.Register(ctx, input); !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Errorf("case %d: expected VALIDATION_ERROR, got %v", i, err)
		}
	}

	// another member cannot report a payment on this purchase
	other := f.createBuyer(t, enums.UserKindRegular)
	_, err := f.svc.Register(ctx, RegisterInput{
		CompraID:         compra.ID,
		ActorUserID:      other.ID,
		Metodo:           enums.PaymentMethodPagoMovil,
		NumeroReferencia: "R",
		Monto:            compra.Total,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}
}

func TestVerifyApprove(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	buyer := f.createBuyer(t, enums.UserKindAdultoMayor)
	compra, productoID := f.openPurchase(t, buyer, 5)
	pago := f.register(t, compra, buyer.ID)

	verifier := uuid.New()
	result, err := f.svc.Verify(ctx, VerifyInput{
		PagoID:     pago.ID,
		VerifierID: verifier,
		Role:       enums.UserRoleCobranza,
		Approve:    true,
	})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if result.Pago.Status != enums.PaymentStatusAprobado {
		t.Fatalf("expected aprobado, got %s", result.Pago.Status)
	}
	if result.Pago.VerifiedBy == nil || *result.Pago.VerifiedBy != verifier {
		t.Fatal("expected verified_by set")
	}
	if result.Pago.VerifiedAt == nil {
		t.Fatal("expected verified_at set")
	}
	if result.Retiro == nil || result.Retiro.Status != enums.PickupStatusProgramado {
		t.Fatalf("expected issued ticket, got %+v", result.Retiro)
	}
	if result.Retiro.TipoCola != enums.QueueTypePrioritario {
		t.Fatalf("expected prioritario queue for adulto_mayor, got %s", result.Retiro.TipoCola)
	}

	reloaded, err := f.purchases.Get(ctx, compra.ID, buyer.ID, enums.UserRoleCliente)
	if err != nil {
		t.Fatalf("reload purchase: %v", err)
	}
	if reloaded.Status != enums.PurchaseStatusPagada {
		t.Fatalf("expected pagada, got %s", reloaded.Status)
	}

	// combo consumed 2 of 5
	available, err := f.stock.Available(ctx, productoID)
	if err != nil {
		t.Fatalf("stock: %v", err)
	}
	if available != 3 {
		t.Fatalf("expected 3 remaining, got %d", available)
	}

	inbox, err := f.notifications.List(ctx, notifications.ListParams{UserID: buyer.ID})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(inbox.Items) != 1 || inbox.Items[0].Type != enums.NotificationTypeRetiroListo {
		t.Fatalf("expected retiro_listo notification, got %+v", inbox.Items)
	}

	// the decision is final
	_, err = f.svc.Verify(ctx, VerifyInput{PagoID: pago.ID, VerifierID: verifier, Role: enums.UserRoleAdmin, Approve: true})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotPending) {
		t.Fatalf("expected NOT_PENDING on second verify, got %v", err)
	}
}

func TestVerifyApproveFloorsInventory(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	buyer := f.createBuyer(t, enums.UserKindRegular)
	compra, productoID := f.openPurchase(t, buyer, 2)
	pago := f.register(t, compra, buyer.ID)

	// stock dropped below the combo quantity after the purchase opened
	if _, err := f.stock.Set(ctx, productoID, 1); err != nil {
		t.Fatalf("set stock: %v", err)
	}

	_, err := f.svc.Verify(ctx, VerifyInput{PagoID: pago.ID, VerifierID: uuid.New(), Role: enums.UserRoleCobranza, Approve: true})
	if err != nil {
		t.Fatalf("verify: %v", err)
	}

	available, err := f.stock.Available(ctx, productoID)
	if err != nil {
		t.Fatalf("stock: %v", err)
	}
	if available != 0 {
		t.Fatalf("expected stock floored at 0, got %d", available)
	}
}

func TestVerifyReject(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	buyer := f.createBuyer(t, enums.UserKindRegular)
	compra, _ := f.openPurchase(t, buyer, 10)
	pago := f.register(t, compra, buyer.ID)

	_, err := f.svc.Verify(ctx, VerifyInput{PagoID: pago.ID, VerifierID: uuid.New(), Role: enums.UserRoleCobranza, Approve: false})
	if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected VALIDATION_ERROR for missing reason, got %v", err)
	}

	result, err := f.svc.Verify(ctx, VerifyInput{
		PagoID:     pago.ID,
		VerifierID: uuid.New(),
		Role:       enums.UserRoleCobranza,
		Approve:    false,
		Reason:     "referencia no encontrada",
	})
	if err != nil {
		t.Fatalf("reject: %v", err)
	}
	if result.Pago.Status != enums.PaymentStatusRechazado {
		t.Fatalf("expected rechazado, got %s", result.Pago.Status)
	}
	if result.Pago.RejectReason == nil || *result.Pago.RejectReason != "referencia no encontrada" {
		t.Fatal("expected reject reason recorded")
	}
	if result.Retiro != nil {
		t.Fatal("expected no ticket on rejection")
	}

	reloaded, err := f.purchases.Get(ctx, compra.ID, buyer.ID, enums.UserRoleCliente)
	if err != nil {
		t.Fatalf("reload purchase: %v", err)
	}
	if reloaded.Status != enums.PurchaseStatusPendientePago {
		t.Fatalf("expected pendiente_pago after rejection, got %s", reloaded.Status)
	}

	// the buyer can report a corrected payment
	if _, err := f.svc.Register(ctx, RegisterInput{
		CompraID:         compra.ID,
		ActorUserID:      buyer.ID,
		Metodo:           enums.PaymentMethodTransferencia,
		NumeroReferencia: "REF-OK",
		Monto:            compra.Total,
	}); err != nil {
		t.Fatalf("register after rejection: %v", err)
	}

	inbox, err := f.notifications.List(ctx, notifications.ListParams{UserID: buyer.ID})
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(inbox.Items) != 1 || inbox.Items[0].Type != enums.NotificationTypePagoRechazado {
		t.Fatalf("expected pago_rechazado notification, got %+v", inbox.Items)
	}
}

// contendingTxRunner fires a hook before the first transaction to simulate a
// concurrent writer slipping in between the service's read and its settle.
type contendingTxRunner struct {
	db    *gorm.DB
	hook  func()
	fired bool
}

func (r *contendingTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if !r.fired {
		r.fired = true
		r.hook()
	}
	return r.db.WithContext(ctx).Transaction(fn)
}

func TestVerifyRetriesOnPurchaseContention(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	buyer := f.createBuyer(t, enums.UserKindRegular)
	compra, _ := f.openPurchase(t, buyer, 10)
	pago := f.register(t, compra, buyer.ID)

	runner := &contendingTxRunner{db: f.db, hook: func() {
		err := f.db.Model(&models.Compra{}).Where("id = ?", compra.ID).
			Update("lock_version", gorm.Expr("lock_version + 1")).Error
		if err != nil {
			t.Errorf("bump lock version: %v", err)
		}
	}}
	svc, err := NewService(
		NewRepository(f.db),
		runner,
		f.purchases,
		f.pickups,
		f.users,
		f.notifications,
		logger.New(logger.Options{ServiceName: "test"}),
		nil,
	)
	if err != nil {
		t.Fatalf("payments service: %v", err)
	}

	result, err := svc.Verify(ctx, VerifyInput{
		PagoID:     pago.ID,
		VerifierID: uuid.New(),
		Role:       enums.UserRoleCobranza,
		Approve:    false,
		Reason:     "comprobante ilegible",
	})
	if err != nil {
		t.Fatalf("verify under contention: %v", err)
	}
	if !runner.fired {
		t.Fatal("expected the contending writer to run")
	}
	if result.Pago.Status != enums.PaymentStatusRechazado {
		t.Fatalf("expected rechazado, got %s", result.Pago.Status)
	}

	reloaded, err := f.purchases.Get(ctx, compra.ID, buyer.ID, enums.UserRoleCliente)
	if err != nil {
		t.Fatalf("reload purchase: %v", err)
	}
	if reloaded.Status != enums.PurchaseStatusPendientePago {
		t.Fatalf("expected pendiente_pago after retried rejection, got %s", reloaded.Status)
	}
}

func TestCancelBlockedWhileVerificationInFlight(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	buyer := f.createBuyer(t, enums.UserKindRegular)
	compra, _ := f.openPurchase(t, buyer, 10)
	pago := f.register(t, compra, buyer.ID)

	// the purchase is frozen until staff settle the live payment
	_, err := f.purchases.Cancel(ctx, purchases.CancelInput{
		CompraID:    compra.ID,
		ActorUserID: buyer.ID,
		ActorRole:   enums.UserRoleCliente,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeInvalidTransition) {
		t.Fatalf("expected INVALID_TRANSITION, got %v", err)
	}

	// rejection still lands on the intact pendiente payment
	result, err := f.svc.Verify(ctx, VerifyInput{
		PagoID:     pago.ID,
		VerifierID: uuid.New(),
		Role:       enums.UserRoleCobranza,
		Approve:    false,
		Reason:     "monto ilegible",
	})
	if err != nil {
		t.Fatalf("reject after cancel attempt: %v", err)
	}
	if result.Pago.Status != enums.PaymentStatusRechazado {
		t.Fatalf("expected rechazado, got %s", result.Pago.Status)
	}

	// back in pendiente_pago the buyer may cancel normally
	canceled, err := f.purchases.Cancel(ctx, purchases.CancelInput{
		CompraID:    compra.ID,
		ActorUserID: buyer.ID,
		ActorRole:   enums.UserRoleCliente,
	})
	if err != nil {
		t.Fatalf("cancel after rejection: %v", err)
	}
	if canceled.Status != enums.PurchaseStatusCancelada {
		t.Fatalf("expected cancelada, got %s", canceled.Status)
	}
}

func TestVerifyRequiresStaffRole(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	buyer := f.createBuyer(t, enums.UserKindRegular)
	compra, _ := f.openPurchase(t, buyer, 10)
	pago := f.register(t, compra, buyer.ID)

	_, err := f.svc.Verify(ctx, VerifyInput{PagoID: pago.ID, VerifierID: buyer.ID, Role: enums.UserRoleCliente, Approve: true})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN, got %v", err)
	}

	if _, err := f.svc.ListPending(ctx, pagination.Params{}, enums.UserRoleCliente); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected FORBIDDEN for list, got %v", err)
	}
}

func TestListPending(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	base := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	ids := make([]uuid.UUID, 0, 3)
	for i := 0; i < 3; i++ {
		buyer := f.createBuyer(t, enums.UserKindRegular)
		compra, _ := f.openPurchase(t, buyer, 10)
		pago := f.register(t, compra, buyer.ID)
		ids = append(ids, pago.ID)

		// pin distinct arrival times so ordering is observable
		err := f.db.Model(&models.Pago{}).Where("id = ?", pago.ID).
			Update("created_at", base.Add(time.Duration(i)*time.Minute)).Error
		if err != nil {
			t.Fatalf("pin created_at: %v", err)
		}
	}

	page, err := f.svc.ListPending(ctx, pagination.Params{Limit: 2}, enums.UserRoleCobranza)
	if err != nil {
		t.Fatalf("list pending: %v", err)
	}
	if len(page.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(page.Items))
	}
	if page.NextCursor == nil {
		t.Fatal("expected next cursor")
	}
	for _, pago := range page.Items {
		if pago.Status != enums.PaymentStatusPendiente {
			t.Fatalf("expected pendiente, got %s", pago.Status)
		}
	}

	// the queue is served oldest report first
	if page.Items[0].ID != ids[0] || page.Items[1].ID != ids[1] {
		t.Fatalf("expected arrival order %v, got %v and %v", ids[:2], page.Items[0].ID, page.Items[1].ID)
	}

	rest, err := f.svc.ListPending(ctx, pagination.Params{Limit: 2, Cursor: *page.NextCursor}, enums.UserRoleCobranza)
	if err != nil {
		t.Fatalf("list pending page 2: %v", err)
	}
	if len(rest.Items) != 1 || rest.Items[0].ID != ids[2] {
		t.Fatalf("expected the newest report last, got %+v", rest.Items)
	}
	if rest.NextCursor != nil {
		t.Fatal("expected exhausted cursor")
	}
}
