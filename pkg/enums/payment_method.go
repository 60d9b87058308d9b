package enums

import "fmt"

// PaymentMethod identifies how the buyer reports having paid.
type PaymentMethod string

const (
	PaymentMethodPagoMovil     PaymentMethod = "pago_movil"
	PaymentMethodTransferencia PaymentMethod = "transferencia"
)

var validPaymentMethods = []PaymentMethod{
	PaymentMethodPagoMovil,
	PaymentMethodTransferencia,
}

// String implements fmt.Stringer.
func (p PaymentMethod) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PaymentMethod.
func (p PaymentMethod) IsValid() bool {
	for _, candidate := range validPaymentMethods {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePaymentMethod converts raw input into a PaymentMethod.
func ParsePaymentMethod(value string) (PaymentMethod, error) {
	for _, candidate := range validPaymentMethods {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment method %q", value)
}
