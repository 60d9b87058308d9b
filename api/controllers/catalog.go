package controllers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/valecoop/combos-backend/api/responses"
	"github.com/valecoop/combos-backend/api/validators"
	"github.com/valecoop/combos-backend/internal/catalog"
	"github.com/valecoop/combos-backend/pkg/db/models"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
	"github.com/valecoop/combos-backend/pkg/logger"
)

type catalogService interface {
	ListCombos(ctx context.Context, includeUnavailable bool) ([]models.Combo, error)
	GetCombo(ctx context.Context, id uuid.UUID) (*models.Combo, error)
	CreateCombo(ctx context.Context, input catalog.CreateComboInput) (*models.Combo, error)
	CreateProducto(ctx context.Context, input catalog.CreateProductoInput) (*models.Producto, error)
	ListProductos(ctx context.Context) ([]models.Producto, error)
	SetAvailability(ctx context.Context, id uuid.UUID, disponible bool) error
}

type comboItemBody struct {
	ProductoID string `json:"producto_id" validate:"required,uuid"`
	Cantidad   int    `json:"cantidad" validate:"required,min=1"`
}

type createComboBody struct {
	Nombre      string          `json:"nombre" validate:"required,min=3,max=120"`
	Descripcion *string         `json:"descripcion,omitempty"`
	Precio      decimal.Decimal `json:"precio"`
	Items       []comboItemBody `json:"items" validate:"required,min=1,dive"`
}

type createProductoBody struct {
	Nombre      string  `json:"nombre" validate:"required,min=2,max=120"`
	Descripcion *string `json:"descripcion,omitempty"`
	Unidad      string  `json:"unidad,omitempty"`
}

type setAvailabilityBody struct {
	Disponible *bool `json:"disponible" validate:"required"`
}

// ListCombos returns the combo catalog. Staff callers can include disabled
// combos with ?include_unavailable=true.
func ListCombos(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		_, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		includeUnavailable := false
		if raw := strings.TrimSpace(r.URL.Query().Get("include_unavailable")); raw != "" {
			value, err := strconv.ParseBool(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid include_unavailable value"))
				return
			}
			includeUnavailable = value && role.CanVerifyPayments()
		}

		combos, err := svc.ListCombos(r.Context(), includeUnavailable)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"combos": combos})
	}
}

// GetCombo loads a single combo with its product lines.
func GetCombo(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "comboId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid combo id"))
			return
		}

		combo, err := svc.GetCombo(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, combo)
	}
}

// CreateCombo publishes a new combo. Staff only.
func CreateCombo(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createComboBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := catalog.CreateComboInput{
			Nombre:      validators.SanitizeString(body.Nombre, 120),
			Descripcion: body.Descripcion,
			Precio:      body.Precio,
		}
		for _, item := range body.Items {
			productoID, err := uuid.Parse(item.ProductoID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid producto id"))
				return
			}
			input.Items = append(input.Items, catalog.ComboItemInput{
				ProductoID: productoID,
				Cantidad:   item.Cantidad,
			})
		}

		combo, err := svc.CreateCombo(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, combo)
	}
}

// SetComboAvailability toggles whether members can purchase a combo. Staff only.
func SetComboAvailability(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "comboId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid combo id"))
			return
		}

		var body setAvailabilityBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.SetAvailability(r.Context(), id, *body.Disponible); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"disponible": *body.Disponible})
	}
}

// CreateProducto registers a catalog product. Staff only.
func CreateProducto(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		var body createProductoBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		producto, err := svc.CreateProducto(r.Context(), catalog.CreateProductoInput{
			Nombre:      validators.SanitizeString(body.Nombre, 120),
			Descripcion: body.Descripcion,
			Unidad:      body.Unidad,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, producto)
	}
}

// ListProductos returns all catalog products. Staff only.
func ListProductos(svc catalogService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		productos, err := svc.ListProductos(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"productos": productos})
	}
}
