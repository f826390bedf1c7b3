package middleware

import (
	"errors"
	"net/http"
	"strings"

	"rotafacil/internal/application/access"
	"rotafacil/internal/application/auth"
	"rotafacil/internal/config"
	domainAudit "rotafacil/internal/domain/audit"
	domainAuth "rotafacil/internal/domain/auth"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	// UserContextKey is the key used to store user in gin context
	UserContextKey = "user"
	// ClaimsContextKey holds the validated token claims
	ClaimsContextKey = "claims"
)

// AuthMiddleware creates a middleware for authentication
func AuthMiddleware(authService *auth.Service, cfg *config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		// In dev mode every request acts as a virtual administrator
		if cfg.DevMode {
			c.Set(UserContextKey, authService.DevUser())
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing authorization header"})
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		user, claims, err := authService.ValidateToken(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": tokenErrorMessage(err)})
			c.Abort()
			return
		}

		c.Set(UserContextKey, user)
		c.Set(ClaimsContextKey, claims)
		c.Next()
	}
}

func tokenErrorMessage(err error) string {
	switch {
	case errors.Is(err, domainAuth.ErrPasswordChanged):
		return "Token expirado devido à alteração de senha"
	case errors.Is(err, domainAuth.ErrSessionNotFound), errors.Is(err, domainAuth.ErrSessionExpired):
		return "Sessão expirada"
	case errors.Is(err, domainAuth.ErrUserInactive):
		return "Usuário inativo"
	case errors.Is(err, domainAuth.ErrUserNotFound):
		return "Usuário não encontrado"
	default:
		return "Token inválido"
	}
}

// RequireAdmin is a middleware that requires administrator role
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUserFromContext(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found in context"})
			c.Abort()
			return
		}

		if !user.IsAdmin() {
			c.JSON(http.StatusForbidden, gin.H{"error": "administrator role required"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// RequireAccessWindow rejects requests made outside the caller's access schedule
func RequireAccessWindow(accessService *access.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		user := GetUserFromContext(c)
		if user == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found in context"})
			c.Abort()
			return
		}

		decision, err := accessService.EvaluateUser(c.Request.Context(), user)
		if err != nil {
			// storage trouble must not lock everyone out
			log.Error().Err(err).Str("user_id", user.ID).Msg("access schedule evaluation failed")
			c.Next()
			return
		}
		if !decision.Allowed {
			accessService.RecordDenial(c.Request.Context(), user.ID, c.Request.URL.Path, decision, RequestMeta(c))
			c.JSON(http.StatusForbidden, gin.H{"allowed": false, "message": decision.Message})
			c.Abort()
			return
		}

		c.Next()
	}
}

// GetUserFromContext retrieves the user from the gin context
func GetUserFromContext(c *gin.Context) *domainAuth.User {
	if user, exists := c.Get(UserContextKey); exists {
		if u, ok := user.(*domainAuth.User); ok {
			return u
		}
	}
	return nil
}

// GetClaimsFromContext retrieves the token claims, nil in dev mode
func GetClaimsFromContext(c *gin.Context) *domainAuth.Claims {
	if claims, exists := c.Get(ClaimsContextKey); exists {
		if cl, ok := claims.(*domainAuth.Claims); ok {
			return cl
		}
	}
	return nil
}

// RequestMeta extracts the audit details of a request
func RequestMeta(c *gin.Context) domainAudit.Meta {
	return domainAudit.Meta{
		IPAddress: c.ClientIP(),
		UserAgent: c.Request.UserAgent(),
	}
}
