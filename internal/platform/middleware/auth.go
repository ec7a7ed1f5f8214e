package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Roles carried by access tokens. The services trust these unconditionally;
// issuing them correctly is the account module's job.
const (
	RoleMerchant = "merchant"
	RoleAdmin    = "admin"
)

// JWTValidator defines the interface for validating access tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims expected from the JWT validator.
type JWTClaims struct {
	AccountID uuid.UUID
	Role      string
}

type contextKeyAccountID struct{}
type contextKeyRole struct{}

// GetAccountID retrieves the authenticated account ID from the context.
func GetAccountID(ctx context.Context) uuid.UUID {
	if id, ok := ctx.Value(contextKeyAccountID{}).(uuid.UUID); ok {
		return id
	}
	return uuid.Nil
}

// GetRole retrieves the authenticated role from the context.
func GetRole(ctx context.Context) string {
	if role, ok := ctx.Value(contextKeyRole{}).(string); ok {
		return role
	}
	return ""
}

// WithIdentity injects an authenticated identity into a context. Useful for
// handler tests that skip the middleware chain.
func WithIdentity(ctx context.Context, accountID uuid.UUID, role string) context.Context {
	ctx = context.WithValue(ctx, contextKeyAccountID{}, accountID)
	return context.WithValue(ctx, contextKeyRole{}, role)
}

func writeJSONError(w http.ResponseWriter, status int, errCode, errDesc string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(fmt.Appendf(nil, `{"success":false,"error":"%s","message":"%s"}`, errCode, errDesc))
}

// RequireAuth validates the bearer token and requires the given role. The
// authenticated account ID and role are placed in the request context.
func RequireAuth(validator JWTValidator, role string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", middleware.GetReqID(ctx),
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"request_id", middleware.GetReqID(ctx),
					"error", err,
				)
				writeJSONError(w, http.StatusUnauthorized, "unauthorized", "Invalid or expired token")
				return
			}

			if claims.Role != role {
				logger.WarnContext(ctx, "forbidden access - wrong role",
					"request_id", middleware.GetReqID(ctx),
					"role", claims.Role,
					"required", role,
				)
				writeJSONError(w, http.StatusForbidden, "forbidden", "Insufficient role")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithIdentity(ctx, claims.AccountID, claims.Role)))
		})
	}
}
