package middleware

import (
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"travel-booking/internal/domain/actor"
	"travel-booking/internal/handler/httperr"
	"travel-booking/internal/usecase"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AuthMiddleware struct {
	tokenValidator usecase.TokenValidator
}

const (
	ctxUserIDKey   = "user_id"
	ctxUserRoleKey = "user_role"
	ctxClaimsKey   = "jwt_claims"
)

func NewAuthMiddleware(tokenValidator usecase.TokenValidator) *AuthMiddleware {
	return &AuthMiddleware{
		tokenValidator: tokenValidator,
	}
}

func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			httperr.AbortWithError(c, http.StatusUnauthorized, nil, "Access token required", nil)
			return
		}

		a, err := m.tokenValidator.ValidateToken(token)
		if err != nil {
			slog.Warn("Token validation failed in auth middleware", "error", err.Error())
			httperr.AbortWithError(c, http.StatusUnauthorized, err, "Invalid or expired token", nil)
			return
		}

		SetActor(c, a)
		c.Next()
	}
}

// RequireRole must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(roles ...actor.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		a, ok := GetActor(c)
		if !ok {
			httperr.AbortWithError(c, http.StatusInternalServerError, nil, "Internal server error", nil)
			return
		}
		if !slices.Contains(roles, a.Role) {
			httperr.AbortWithError(c, http.StatusForbidden, nil, "Insufficient permissions", nil)
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > len("Bearer ") && strings.EqualFold(authHeader[:len("Bearer ")], "Bearer ") {
		return strings.TrimSpace(authHeader[len("Bearer "):])
	}
	return ""
}

func SetActor(c *gin.Context, a actor.Actor) {
	c.Set(ctxUserIDKey, a.ID)
	c.Set(ctxUserRoleKey, a.Role)
	c.Set(ctxClaimsKey, map[string]any{
		"user_id": a.ID.String(),
		"role":    string(a.Role),
	})
}

func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(ctxUserIDKey)
	if !exists {
		return uuid.Nil, false
	}

	id, ok := userID.(uuid.UUID)
	return id, ok
}

func GetActor(c *gin.Context) (actor.Actor, bool) {
	id, ok := GetUserID(c)
	if !ok {
		return actor.Actor{}, false
	}
	raw, exists := c.Get(ctxUserRoleKey)
	if !exists {
		return actor.Actor{}, false
	}
	role, ok := raw.(actor.Role)
	if !ok {
		return actor.Actor{}, false
	}
	return actor.New(id, role), true
}
