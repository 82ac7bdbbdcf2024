package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/yigit/uniforum/internal/app/models"
	"github.com/yigit/uniforum/internal/pkg/auth"
)

// principalKey is the gin context key holding the request principal
const principalKey = "principal"

// AuthMiddleware resolves the request principal from the identity token
type AuthMiddleware struct {
	jwtService *auth.JWTService
	logger     zerolog.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(jwtService *auth.JWTService, logger zerolog.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService: jwtService,
		logger:     logger,
	}
}

// Principal attaches a principal to every request. A missing, malformed or
// expired token leaves the request anonymous; reads stay possible and the
// services reject anonymous writes themselves.
func (m *AuthMiddleware) Principal() gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := models.Anonymous()

		if header := c.GetHeader("Authorization"); header != "" {
			tokenString, err := auth.ExtractBearerToken(header)
			if err == nil {
				var claims *auth.Claims
				claims, err = m.jwtService.ValidateAndExtractClaims(tokenString)
				if err == nil {
					principal = claims.Principal()
				}
			}
			if err != nil {
				event := m.logger.Debug()
				if errors.Is(err, auth.ErrExpiredToken) {
					event = m.logger.Info()
				}
				event.Err(err).Str("path", c.Request.URL.Path).Msg("Ignoring identity token")
			}
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by the auth middleware, or an
// anonymous principal when none was stored
func PrincipalFrom(c *gin.Context) models.Principal {
	if v, ok := c.Get(principalKey); ok {
		if p, ok := v.(models.Principal); ok {
			return p
		}
	}
	return models.Anonymous()
}

// SetPrincipal stores a principal on the context
func SetPrincipal(c *gin.Context, principal models.Principal) {
	c.Set(principalKey, principal)
}
