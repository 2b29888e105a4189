package auth

import (
	"database/sql"
	"errors"
	"log"
	"net/http"

	"github.com/mind-engage/elearn/internal/rbac"
)

// AttachRoleFromDB replaces the token's role with the one stored for the
// subject, so role changes apply without a new login. Unknown subjects get 401.
func AttachRoleFromDB(db *sql.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := SubjectFromContext(ctx)

			var role string
			err := db.QueryRowContext(ctx, `SELECT role FROM users WHERE id=$1`, sub).Scan(&role)
			switch {
			case err == nil:
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
			case errors.Is(err, sql.ErrNoRows):
				writeDetail(w, http.StatusUnauthorized, "user not found")
			default:
				log.Printf("auth: role lookup for %s: %v", sub, err)
				writeDetail(w, http.StatusInternalServerError, "internal error")
			}
		})
	}
}
