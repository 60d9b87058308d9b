package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/valecoop/combos-backend/api/controllers"
	"github.com/valecoop/combos-backend/api/middleware"
	"github.com/valecoop/combos-backend/internal/auth"
	"github.com/valecoop/combos-backend/internal/catalog"
	"github.com/valecoop/combos-backend/internal/inventory"
	"github.com/valecoop/combos-backend/internal/notifications"
	"github.com/valecoop/combos-backend/internal/payments"
	"github.com/valecoop/combos-backend/internal/pickups"
	"github.com/valecoop/combos-backend/internal/purchases"
	"github.com/valecoop/combos-backend/pkg/config"
	"github.com/valecoop/combos-backend/pkg/db"
	"github.com/valecoop/combos-backend/pkg/enums"
	"github.com/valecoop/combos-backend/pkg/logger"
	"github.com/valecoop/combos-backend/pkg/redis"
)

type sessionChecker interface {
	HasSession(ctx context.Context, accessID string) (bool, error)
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	sessionManager sessionChecker,
	authService auth.Service,
	registerService auth.RegisterService,
	staffRegisterService auth.StaffRegisterService,
	catalogSvc *catalog.Service,
	inventorySvc *inventory.Service,
	purchaseSvc *purchases.Service,
	paymentSvc *payments.Service,
	pickupSvc *pickups.Service,
	notificationsService notifications.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
		r.Post("/validate", controllers.PublicValidate(logg))
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.AuthRateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(registerService, authService, logg))
		r.Post("/refresh", controllers.AuthRefresh(authService, logg))
		r.Post("/logout", controllers.AuthLogout(authService, cfg.JWT, logg))
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.PrivatePing())

		r.Route("/v1/combos", func(r chi.Router) {
			r.Get("/", controllers.ListCombos(catalogSvc, logg))
			r.Get("/{comboId}", controllers.GetCombo(catalogSvc, logg))
		})

		r.Route("/v1/compras", func(r chi.Router) {
			r.Post("/", controllers.CreatePurchase(purchaseSvc, logg))
			r.Get("/mine", controllers.ListMyPurchases(purchaseSvc, logg))
			r.Get("/{compraId}", controllers.GetPurchase(purchaseSvc, logg))
			r.Post("/{compraId}/cancel", controllers.CancelPurchase(purchaseSvc, logg))
			r.Post("/{compraId}/pagos", controllers.RegisterPayment(paymentSvc, logg))
			r.Get("/{compraId}/retiro", controllers.GetPickupTicket(pickupSvc, logg))
		})

		r.Route("/v1/notificaciones", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(notificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(notificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(notificationsService, logg))
		})
	})

	r.Route("/api/staff", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, sessionManager, logg))
		r.Use(middleware.RequireStaff(logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Get("/ping", controllers.StaffPing())

		r.With(middleware.RequireRole(enums.UserRoleAdmin, logg)).
			Post("/v1/auth/register", controllers.StaffAuthRegister(staffRegisterService, logg))

		r.Get("/v1/compras", controllers.ListPurchases(purchaseSvc, logg))

		r.Route("/v1/pagos", func(r chi.Router) {
			r.Get("/pending", controllers.ListPendingPayments(paymentSvc, logg))
			r.Post("/{pagoId}/verify", controllers.VerifyPayment(paymentSvc, logg))
		})

		r.Route("/v1/retiros", func(r chi.Router) {
			r.Get("/{numeroRetiro}", controllers.LookupPickupTicket(pickupSvc, logg))
			r.Post("/{numeroRetiro}/collect", controllers.CollectPickupTicket(pickupSvc, logg))
		})

		r.Route("/v1/productos", func(r chi.Router) {
			r.Get("/", controllers.ListProductos(catalogSvc, logg))
			r.Post("/", controllers.CreateProducto(catalogSvc, logg))
			r.Put("/{productoId}/inventario", controllers.SetInventory(inventorySvc, logg))
		})
		r.Get("/v1/inventario", controllers.ListInventory(inventorySvc, logg))

		r.Route("/v1/combos", func(r chi.Router) {
			r.Use(middleware.RequireRole(enums.UserRoleAdmin, logg))
			r.Post("/", controllers.CreateCombo(catalogSvc, logg))
			r.Patch("/{comboId}/disponibilidad", controllers.SetComboAvailability(catalogSvc, logg))
		})
	})

	return r
}
