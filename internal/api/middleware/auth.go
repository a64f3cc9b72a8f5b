package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/phrazzld/wordclaim/internal/api/shared"
	"github.com/phrazzld/wordclaim/internal/platform/logger"
	"github.com/phrazzld/wordclaim/internal/redact"
	"github.com/phrazzld/wordclaim/internal/service/auth"
)

// AdminGuard requires an admin bearer token on the routes it wraps.
type AdminGuard struct {
	tokens auth.TokenService
}

// NewAdminGuard creates an AdminGuard. A nil TokenService leaves wrapped
// routes open, which is how deployments without an admin secret behave.
func NewAdminGuard(tokens auth.TokenService) *AdminGuard {
	return &AdminGuard{tokens: tokens}
}

// Enabled reports whether the guard checks tokens.
func (g *AdminGuard) Enabled() bool {
	return g.tokens != nil
}

// RequireAdmin validates the Authorization header before calling next.
func (g *AdminGuard) RequireAdmin(next http.Handler) http.Handler {
	if g.tokens == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Authorization header required")
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid authorization format")
			return
		}

		claims, err := g.tokens.ValidateAdminToken(r.Context(), parts[1])
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Token expired")
			case errors.Is(err, auth.ErrNotAdmin):
				shared.RespondWithError(w, r, http.StatusForbidden, "Admin role required")
			case errors.Is(err, auth.ErrInvalidToken),
				errors.Is(err, auth.ErrTokenNotYetValid),
				errors.Is(err, auth.ErrMissingToken):
				shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid token")
			default:
				logger.FromContext(r.Context()).Error("failed to validate admin token",
					"error", redact.Error(err))
				shared.RespondWithError(w, r, http.StatusInternalServerError, "Authentication error")
			}
			return
		}

		logger.FromContext(r.Context()).Info("admin request authorized",
			"subject", claims.Subject,
			"token_id", claims.ID,
			"path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
