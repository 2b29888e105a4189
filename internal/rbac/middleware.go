package rbac

import (
	"encoding/json"
	"net/http"
)

var defaultChecker = NewChecker(nil)

func deny(w http.ResponseWriter, role string) {
	status, msg := http.StatusForbidden, "you do not have permission to perform this action"
	if role == "" {
		status, msg = http.StatusUnauthorized, "authentication credentials were not provided"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"detail": msg})
}

// Require enforces a single permission.
func Require(perm string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role := RoleFromContext(r.Context())
			if role == "" || !defaultChecker.Has(role, perm) {
				deny(w, role)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
