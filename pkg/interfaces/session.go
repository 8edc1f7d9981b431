package interfaces

import "context"

// Principal is the signed-in console user as reported by the session provider.
type Principal struct {
	ID    int64
	Name  string
	Email string
	Role  string
}

// SessionProvider supplies the current user and the bearer token attached to
// API requests. Token returns "" when the session is anonymous.
type SessionProvider interface {
	CurrentUser(ctx context.Context) (Principal, bool)
	Token(ctx context.Context) string
}
