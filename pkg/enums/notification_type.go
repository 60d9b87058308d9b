package enums

import "fmt"

// NotificationType labels in-app notifications sent to members.
type NotificationType string

const (
	NotificationTypePagoAprobado    NotificationType = "pago_aprobado"
	NotificationTypePagoRechazado   NotificationType = "pago_rechazado"
	NotificationTypeRetiroListo     NotificationType = "retiro_listo"
	NotificationTypeCompraCancelada NotificationType = "compra_cancelada"
)

var validNotificationTypes = []NotificationType{
	NotificationTypePagoAprobado,
	NotificationTypePagoRechazado,
	NotificationTypeRetiroListo,
	NotificationTypeCompraCancelada,
}

// String implements fmt.Stringer.
func (n NotificationType) String() string {
	return string(n)
}

// IsValid reports whether the value is a known NotificationType.
func (n NotificationType) IsValid() bool {
	for _, candidate := range validNotificationTypes {
		if candidate == n {
			return true
		}
	}
	return false
}

// ParseNotificationType converts raw input into a NotificationType.
func ParseNotificationType(value string) (NotificationType, error) {
	for _, candidate := range validNotificationTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid notification type %q", value)
}
