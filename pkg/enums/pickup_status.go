package enums

import "fmt"

// PickupStatus tracks a pickup ticket after issuance.
type PickupStatus string

const (
	PickupStatusProgramado   PickupStatus = "programado"
	PickupStatusRetirado     PickupStatus = "retirado"
	PickupStatusNoPresentado PickupStatus = "no_presentado"
)

var validPickupStatuses = []PickupStatus{
	PickupStatusProgramado,
	PickupStatusRetirado,
	PickupStatusNoPresentado,
}

// String implements fmt.Stringer.
func (p PickupStatus) String() string {
	return string(p)
}

// IsValid reports whether the value is a known PickupStatus.
func (p PickupStatus) IsValid() bool {
	for _, candidate := range validPickupStatuses {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParsePickupStatus converts raw input into a PickupStatus.
func ParsePickupStatus(value string) (PickupStatus, error) {
	for _, candidate := range validPickupStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid pickup status %q", value)
}
