package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/velezd/cart-service/internal/identity"
)

// AuthMiddleware resolves the bearer token through the identity verifier and
// stores the user id in the request context. Verifier outages map to 503,
// rejected credentials to 401.
func AuthMiddleware(verifier identity.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
			if token == "" {
				respondError(w, http.StatusUnauthorized, "unauthorized", "missing credentials")
				return
			}

			id, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if errors.Is(err, identity.ErrVerifierUnavailable) {
					respondError(w, http.StatusServiceUnavailable, "auth_unavailable", "identity verifier unavailable")
					return
				}
				respondError(w, http.StatusUnauthorized, "unauthorized", "invalid credentials")
				return
			}

			ctx := context.WithValue(r.Context(), "user_id", id.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestIDMiddleware adds a unique request ID to each request
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = fmt.Sprintf("req-%d", time.Now().UnixNano())
		}

		ctx := context.WithValue(r.Context(), "request_id", requestID)
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func getUserIDFromContext(ctx context.Context) string {
	if userID, ok := ctx.Value("user_id").(string); ok {
		return userID
	}
	return ""
}
