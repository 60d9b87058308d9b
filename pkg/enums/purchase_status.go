package enums

import "fmt"

// PurchaseStatus tracks the lifecycle of a combo purchase.
type PurchaseStatus string

const (
	PurchaseStatusPendientePago   PurchaseStatus = "pendiente_pago"
	PurchaseStatusPagoVerificando PurchaseStatus = "pago_verificando"
	PurchaseStatusPagada          PurchaseStatus = "pagada"
	PurchaseStatusCompletada      PurchaseStatus = "completada"
	PurchaseStatusCancelada       PurchaseStatus = "cancelada"
)

var validPurchaseStatuses = []PurchaseStatus{
	PurchaseStatusPendientePago,
	PurchaseStatusPagoVerificando,
	PurchaseStatusPagada,
	PurchaseStatusCompletada,
	PurchaseStatusCancelada,
}

// String implements fmt.Stringer.
func (p PurchaseStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PurchaseStatus.
func (p PurchaseStatus) IsValid() bool {
	for _, candidate := range validPurchaseStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is permitted from the status.
func (p PurchaseStatus) IsTerminal() bool {
	return p == PurchaseStatusCompletada || p == PurchaseStatusCancelada
}

// ParsePurchaseStatus converts raw input into a PurchaseStatus.
func ParsePurchaseStatus(value string) (PurchaseStatus, error) {
	for _, candidate := range validPurchaseStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid purchase status %q", value)
}
