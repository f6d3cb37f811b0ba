package http

import (
	"net/http"
	"strings"

	"billbook/internal/auth"
)

// sanitizeInput trims whitespace and removes control characters other than tab and newlines.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' && r != '\n' && r != '\r' {
			return -1
		}
		return r
	}, s)
}

// userID returns the session user. Routes that call it sit behind the auth
// middleware, so an empty result means a wiring error.
func userID(r *http.Request) string {
	s, _ := auth.FromContext(r.Context())
	return s.UserID
}

// wantsHTML reports whether the client prefers an HTML response.
func wantsHTML(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "text/html")
}
