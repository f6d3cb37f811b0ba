// Package auth resolves the user a request acts for. The Session is an
// explicit value: services take the user id as a parameter and handlers read
// the Session from the request context.
package auth

import "context"

// Session identifies the user whose bills and clients a request may touch.
type Session struct {
	UserID string `json:"user_id"`
	Email  string `json:"email,omitempty"`
}

type contextKey string

const sessionKey contextKey = "session"

// NewContext returns a copy of ctx carrying s.
func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// FromContext returns the session stored in ctx.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(sessionKey).(Session)
	return s, ok && s.UserID != ""
}
