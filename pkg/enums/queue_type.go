package enums

import "fmt"

// QueueType selects which collection line a pickup ticket joins.
type QueueType string

const (
	QueueTypeRegular     QueueType = "regular"
	QueueTypePrioritario QueueType = "prioritario"
)

var validQueueTypes = []QueueType{
	QueueTypeRegular,
	QueueTypePrioritario,
}

// String implements fmt.Stringer.
func (q QueueType) String() string {
	return string(q)
}

// IsValid reports whether the value is a known QueueType.
func (q QueueType) IsValid() bool {
	for _, candidate := range validQueueTypes {
		if candidate == q {
			return true
		}
	}
	return false
}

// ParseQueueType converts raw input into a QueueType.
func ParseQueueType(value string) (QueueType, error) {
	for _, candidate := range validQueueTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid queue type %q", value)
}
