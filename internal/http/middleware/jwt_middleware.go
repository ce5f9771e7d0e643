package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/vedx/vedx-site/internal/http/response"
	"github.com/vedx/vedx-site/pkg/auth"
	"github.com/vedx/vedx-site/pkg/logger"
)

type ctxKey string

const CtxClaims ctxKey = "claims"

// Authenticator resolves a bearer token to live session claims.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*auth.Claims, error)
}

// RequireSession rejects requests without a valid, still-registered session token.
func RequireSession(a Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := r.Header.Get("Authorization")
			if !strings.HasPrefix(authz, "Bearer ") {
				response.Unauthorized(w, "Authorization token is required")
				return
			}
			raw := strings.TrimSpace(strings.TrimPrefix(authz, "Bearer "))
			claims, err := a.Authenticate(r.Context(), raw)
			if err != nil {
				response.Error(w, r, err)
				return
			}
			ctx := context.WithValue(r.Context(), CtxClaims, claims)
			ctx = context.WithValue(ctx, logger.AdminIDKey, claims.AdminID())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func Claims(r *http.Request) *auth.Claims {
	v := r.Context().Value(CtxClaims)
	if v == nil {
		return nil
	}
	return v.(*auth.Claims)
}
