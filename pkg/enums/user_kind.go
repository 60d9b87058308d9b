package enums

import "fmt"

// UserKind classifies members for queue priority purposes.
type UserKind string

const (
	UserKindRegular       UserKind = "regular"
	UserKindAdultoMayor   UserKind = "adulto_mayor"
	UserKindDiscapacitado UserKind = "discapacitado"
)

var validUserKinds = []UserKind{
	UserKindRegular,
	UserKindAdultoMayor,
	UserKindDiscapacitado,
}

// String implements fmt.Stringer.
func (u UserKind) String() string {
	return string(u)
}

// IsValid reports whether the value is a known UserKind.
func (u UserKind) IsValid() bool {
	for _, candidate := range validUserKinds {
		if candidate == u {
			return true
		}
	}
	return false
}

// QueueType returns the collection line members of this kind join.
func (u UserKind) QueueType() QueueType {
	if u == UserKindAdultoMayor || u == UserKindDiscapacitado {
		return QueueTypePrioritario
	}
	return QueueTypeRegular
}

// ParseUserKind converts raw input into a UserKind.
func ParseUserKind(value string) (UserKind, error) {
	for _, candidate := range validUserKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid user kind %q", value)
}
