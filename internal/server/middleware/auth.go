package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/warrantd/warrant/internal/service"
)

type contextKeyAuth string

// OperatorKey is the context key for the authenticated operator.
const OperatorKey contextKeyAuth = "operator"

// RequireOperator validates the Authorization bearer session on the ops
// endpoints. On success the operator principal is attached to the request
// context; on failure a 401 JSON error is written and the chain stops.
func RequireOperator(ops *service.OpsService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if !strings.HasPrefix(authHeader, "Bearer ") {
				writeAuthError(w, "Operator session required. Provide a Bearer token.")
				return
			}

			token := strings.TrimPrefix(authHeader, "Bearer ")
			principal, err := ops.ValidateSession(r.Context(), token)
			if err != nil {
				writeAuthError(w, "Invalid or expired session")
				return
			}

			ctx := context.WithValue(r.Context(), OperatorKey, principal)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetOperator extracts the authenticated operator from the context, or nil
// for an unauthenticated request.
func GetOperator(ctx context.Context) *service.OperatorPrincipal {
	if p, ok := ctx.Value(OperatorKey).(*service.OperatorPrincipal); ok {
		return p
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	// Manually constructed JSON to avoid an import cycle with the handler
	// package.
	w.Write([]byte(`{"success":false,"message":"` + message + `"}`))
}
