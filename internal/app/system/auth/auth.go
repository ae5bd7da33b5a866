package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
)

/*─────────────────────────────────────────────────────────────────────────────*
| Current-User helper                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

// SessionUser is the identity injected into r.Context() for each request.
// It comes from the external auth system's bearer token; this service
// never authenticates users itself.
type SessionUser struct {
	ID    string
	Email string
	Name  string
}

type ctxKey string

const currentUserKey ctxKey = "currentUser"

// CurrentUser returns the user & “found?” flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(currentUserKey).(*SessionUser)
	return u, ok
}

func withUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), currentUserKey, u))
}

// WithTestUser injects a user directly into the request context,
// bypassing token verification. For handler tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return withUser(r, u)
}

/*─────────────────────────────────────────────────────────────────────────────*
| Bearer-token verification                                                    |
*─────────────────────────────────────────────────────────────────────────────*/

// Verifier validates the HS256 bearer tokens issued by the external auth
// system and loads the identity they carry into the request context.
type Verifier struct {
	secret []byte
	log    *zap.Logger
}

// NewVerifier builds a Verifier for the shared signing secret.
func NewVerifier(secret string, logger *zap.Logger) (*Verifier, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("auth: signing secret must not be empty")
	}
	return &Verifier{secret: []byte(secret), log: logger}, nil
}

// LoadSessionUser injects the user into context if the request carries a
// valid bearer token. Requests without one (or with a bad one) continue
// unauthenticated; RequireSignedIn is the enforcement point.
func (v *Verifier) LoadSessionUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := bearerToken(r)
		if raw == "" {
			next.ServeHTTP(w, r)
			return
		}

		u, err := v.parse(raw)
		if err != nil {
			v.log.Debug("rejected bearer token", zap.Error(err))
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, withUser(r, u))
	})
}

func (v *Verifier) parse(raw string) (*SessionUser, error) {
	tok, err := jwt.Parse(raw,
		func(t *jwt.Token) (interface{}, error) { return v.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
	)
	if err != nil {
		return nil, err
	}

	claims, ok := tok.Claims.(jwt.MapClaims)
	if !ok {
		return nil, errors.New("auth: unexpected claims type")
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, errors.New("auth: token missing sub claim")
	}
	email, _ := claims["email"].(string)
	name, _ := claims["name"].(string)

	return &SessionUser{ID: sub, Email: email, Name: name}, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

// RequireSignedIn ensures there is a user in context (set by
// LoadSessionUser). API callers with no identity get a plain 401.
func RequireSignedIn(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := CurrentUser(r); ok {
			next.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"UNAUTHORIZED","message":"sign in required"}}`))
	})
}
