package auth

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
)

// Middleware resolves the acting identity from the X-User-Id and
// X-User-Role headers. Session validation happens upstream; the core
// only needs who is acting and in which role.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := uuid.Parse(r.Header.Get("X-User-Id"))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHENTICATED", "missing or invalid X-User-Id")
			return
		}

		role := Role(r.Header.Get("X-User-Role"))
		if role != RoleAdmin {
			role = RoleCustomer
		}

		ctx := WithIdentity(r.Context(), Identity{UserID: userID, Role: role})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin guards catalog and inventory mutations.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok || id.Role != RoleAdmin {
			writeError(w, http.StatusForbidden, "PERMISSION_DENIED", ErrPermissionDenied.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"code": code, "error": msg})
}
