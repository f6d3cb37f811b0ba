package auth

import (
	"net/http"
	"strings"
)

// CookieName is the cookie that may carry the session token for page requests.
const CookieName = "session"

// Authenticator resolves a Session from a request.
type Authenticator struct {
	jwt     *JWTManager
	devUser string
}

// NewAuthenticator builds an authenticator. jwt may be nil when only the
// development user is configured.
func NewAuthenticator(jwt *JWTManager, devUser string) *Authenticator {
	return &Authenticator{jwt: jwt, devUser: strings.TrimSpace(devUser)}
}

// Authenticate reads a bearer token or the session cookie. Without a token the
// development user is used when configured.
func (a *Authenticator) Authenticate(r *http.Request) (Session, error) {
	token, err := extractToken(r)
	if err != nil {
		return Session{}, err
	}
	if token == "" {
		if a.devUser != "" {
			return Session{UserID: a.devUser}, nil
		}
		return Session{}, ErrMissingToken
	}
	if a.jwt == nil {
		return Session{}, ErrInvalidToken
	}

	claims, err := a.jwt.Validate(token)
	if err != nil {
		return Session{}, err
	}
	return Session{UserID: claims.UserID, Email: claims.Email}, nil
}

func extractToken(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			return "", ErrInvalidToken
		}
		return strings.TrimSpace(parts[1]), nil
	}
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", nil
}

// Middleware attaches the Session to the request context or hands the failure to onError.
func (a *Authenticator) Middleware(onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s, err := a.Authenticate(r)
			if err != nil {
				onError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
		})
	}
}
