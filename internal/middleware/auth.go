package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/studiopass/internal/auth"
)

// RequireStaff checks "Authorization: Bearer <staffID>:<secret>" and puts
// the staff id into the request context.
func RequireStaff(tokens auth.StaffTokens) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			cred, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				unauthorized(w)
				return
			}
			staffID, err := tokens.Verify(strings.TrimSpace(cred))
			if err != nil {
				unauthorized(w)
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{StaffID: staffID})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", `Bearer realm="staff"`)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
}
