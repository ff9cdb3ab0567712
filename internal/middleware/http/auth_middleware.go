package http

import (
	"context"
	"net/http"
	"strings"

	"studio_billing/internal/service"
	"studio_billing/pkg/jwt"
)

const roleAdmin = "admin"

// AuthMiddleware defines the function signature for our authentication middleware.
type AuthMiddleware func(http.Handler) http.Handler

// NewAuthMiddleware creates a middleware that requires a bearer token whose
// payload carries the admin role. Anything else is rejected with 401.
func NewAuthMiddleware(jwtManager *jwt.Manager) AuthMiddleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				service.WriteHttpError(w, http.StatusUnauthorized, "Unauthorized: Missing bearer token")
				return
			}

			payload, err := jwtManager.Parse(token)
			if err != nil {
				service.WriteHttpError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
				return
			}

			role, _ := payload["role"].(string)
			if role != roleAdmin {
				service.WriteHttpError(w, http.StatusUnauthorized, "Unauthorized: Admin role required")
				return
			}

			operatorID, _ := payload["sub"].(string)
			if operatorID == "" {
				service.WriteHttpError(w, http.StatusUnauthorized, "Unauthorized: Missing subject")
				return
			}

			// Add the operator id to the request context for downstream handlers.
			ctx := context.WithValue(r.Context(), service.OperatorIDKey, operatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
