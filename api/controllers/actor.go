package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/valecoop/combos-backend/api/middleware"
	"github.com/valecoop/combos-backend/pkg/enums"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
)

// actorFromRequest resolves the authenticated member from the request context.
func actorFromRequest(r *http.Request) (uuid.UUID, enums.UserRole, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, enums.UserRole(middleware.RoleFromContext(r.Context())), nil
}
