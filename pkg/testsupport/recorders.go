package testsupport

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/goliatone/go-repair-console/pkg/interfaces"
)

// RecordingNotifier keeps every toast.
type RecordingNotifier struct {
	mu    sync.Mutex
	items []interfaces.Notification
}

var _ interfaces.Notifier = (*RecordingNotifier)(nil)

func (n *RecordingNotifier) Notify(_ context.Context, note interfaces.Notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.items = append(n.items, note)
}

// Notifications returns a copy of the recorded toasts.
func (n *RecordingNotifier) Notifications() []interfaces.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]interfaces.Notification(nil), n.items...)
}

// Count returns how many toasts of level were recorded.
func (n *RecordingNotifier) Count(level interfaces.NotificationLevel) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, item := range n.items {
		if item.Level == level {
			count++
		}
	}
	return count
}

// Last returns the most recent toast.
func (n *RecordingNotifier) Last() (interfaces.Notification, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.items) == 0 {
		return interfaces.Notification{}, false
	}
	return n.items[len(n.items)-1], true
}

// RecordingNavigator keeps every navigation.
type RecordingNavigator struct {
	mu     sync.Mutex
	routes []string
}

var _ interfaces.Navigator = (*RecordingNavigator)(nil)

func (n *RecordingNavigator) Navigate(_ context.Context, route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.routes = append(n.routes, route)
}

func (n *RecordingNavigator) Routes() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.routes...)
}

// Last returns the most recent route, or "".
func (n *RecordingNavigator) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.routes) == 0 {
		return ""
	}
	return n.routes[len(n.routes)-1]
}

// StaticSession always reports the same user and token.
type StaticSession struct {
	User        interfaces.Principal
	BearerToken string
}

var _ interfaces.SessionProvider = StaticSession{}

func (s StaticSession) CurrentUser(context.Context) (interfaces.Principal, bool) {
	return s.User, s.User.ID != 0 || s.User.Role != ""
}

func (s StaticSession) Token(context.Context) string { return s.BearerToken }

// SessionFor returns a signed-in session with role.
func SessionFor(role string) StaticSession {
	return StaticSession{
		User:        interfaces.Principal{ID: 1, Name: "Test " + role, Email: role + "@shop.test", Role: role},
		BearerToken: "token-" + role,
	}
}

// MapTranslator resolves keys from a map and returns unknown keys
// unchanged. Args are appended as "key: a, b" so tests can see them.
type MapTranslator map[string]string

var _ interfaces.Translator = MapTranslator(nil)

func (m MapTranslator) Translate(key string, args ...any) string {
	msg, ok := m[key]
	if !ok {
		msg = key
	}
	if len(args) == 0 {
		return msg
	}
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = fmt.Sprint(arg)
	}
	return msg + ": " + strings.Join(parts, ", ")
}
