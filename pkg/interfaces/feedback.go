package interfaces

import "context"

// NotificationLevel classifies a toast.
type NotificationLevel string

const (
	NotificationSuccess NotificationLevel = "success"
	NotificationError   NotificationLevel = "error"
	NotificationInfo    NotificationLevel = "info"
)

// Notification is a fire-and-forget message shown to the user.
type Notification struct {
	Level   NotificationLevel
	Title   string
	Message string
}

// Notifier delivers toasts. Implementations must not block the caller.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// Navigator moves the front end to another route.
type Navigator interface {
	Navigate(ctx context.Context, route string)
}

// Translator maps message keys to localized strings. Unknown keys should be
// returned unchanged.
type Translator interface {
	Translate(key string, args ...any) string
}
