package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tradecrm/crm-backend/internal/api/httpx"
	"github.com/tradecrm/crm-backend/internal/auth"
)

type claimsKeyType struct{}

var claimsKey claimsKeyType

func GetClaims(ctx context.Context) (*auth.Claims, bool) {
	v, ok := ctx.Value(claimsKey).(*auth.Claims)
	return v, ok
}

func UserID(ctx context.Context) string {
	if c, ok := GetClaims(ctx); ok {
		return c.UserID
	}
	return ""
}

func TenantID(ctx context.Context) string {
	if c, ok := GetClaims(ctx); ok {
		return c.TenantID
	}
	return ""
}

type AuthMiddleware struct {
	TM *auth.TokenManager
}

func NewAuthMiddleware(tm *auth.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{TM: tm}
}

// Auth requires a Bearer access token and puts its claims on the context.
func (m *AuthMiddleware) Auth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ah := r.Header.Get("Authorization")
		if ah == "" || !strings.HasPrefix(strings.ToLower(ah), "bearer ") {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token", nil)
			return
		}
		token := strings.TrimSpace(ah[len("Bearer "):])

		claims, err := m.TM.ParseAccess(token)
		if err != nil {
			httpx.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid access token", nil)
			return
		}
		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
