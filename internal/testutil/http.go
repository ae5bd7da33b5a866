// internal/testutil/http.go
package testutil

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/go-chi/chi/v5"
	"github.com/zm10123/taskhive/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// TestUser represents user data for testing HTTP handlers.
type TestUser struct {
	ID    string
	Name  string
	Email string
}

// SomeUser returns a TestUser with a fresh ID.
func SomeUser(name, email string) TestUser {
	return TestUser{
		ID:    primitive.NewObjectID().Hex(),
		Name:  name,
		Email: email,
	}
}

// WithUser adds a user to the request context for testing authenticated
// handlers. This bypasses the token middleware entirely.
func WithUser(r *http.Request, user TestUser) *http.Request {
	return auth.WithTestUser(r, &auth.SessionUser{
		ID:    user.ID,
		Name:  user.Name,
		Email: user.Email,
	})
}

// NewRequest creates an HTTP request for testing.
func NewRequest(method, target string, body io.Reader) *http.Request {
	return httptest.NewRequest(method, target, body)
}

// NewAuthenticatedRequest creates an HTTP request with a user in context.
func NewAuthenticatedRequest(method, target string, body io.Reader, user TestUser) *http.Request {
	return WithUser(httptest.NewRequest(method, target, body), user)
}
