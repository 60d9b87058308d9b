package purchases

import (
	"github.com/valecoop/combos-backend/pkg/enums"
	pkgerrors "github.com/valecoop/combos-backend/pkg/errors"
)

var allowedTransitions = map[enums.PurchaseStatus][]enums.PurchaseStatus{
	enums.PurchaseStatusPendientePago: {
		enums.PurchaseStatusPagoVerificando,
		enums.PurchaseStatusCancelada,
	},
	enums.PurchaseStatusPagoVerificando: {
		enums.PurchaseStatusPagada,
		enums.PurchaseStatusPendientePago,
	},
	enums.PurchaseStatusPagada: {
		enums.PurchaseStatusCompletada,
	},
}

// CanTransition reports whether the purchase state machine allows the edge.
func CanTransition(from, to enums.PurchaseStatus) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

func invalidTransition(from, to enums.PurchaseStatus) error {
	return pkgerrors.New(pkgerrors.CodeInvalidTransition, "purchase transition not allowed").
		WithDetails(map[string]any{"from": from, "to": to})
}
