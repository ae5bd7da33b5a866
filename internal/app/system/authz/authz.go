// internal/app/system/authz/authz.go
package authz

import (
	"net/http"

	"github.com/zm10123/taskhive/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserCtx returns the caller's Mongo ObjectID, email, display name, and a
// found flag. A missing user or a malformed ID both report not-found;
// handlers fail closed on either. Roles are deliberately absent here —
// they are per-group and resolved by the collab package against the
// membership collection, never from the token.
func UserCtx(r *http.Request) (userID primitive.ObjectID, email string, name string, ok bool) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, "", "", false
	}
	uid, err := primitive.ObjectIDFromHex(u.ID)
	if err != nil {
		// Malformed subject in the token. Should not happen; indicates a
		// token minted for a different backend.
		return primitive.NilObjectID, "", "", false
	}
	return uid, u.Email, u.Name, true
}
