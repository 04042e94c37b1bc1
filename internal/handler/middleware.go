package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/storefront-auth/internal/service"
	"go.uber.org/zap"
)

// Context keys set by AuthMiddleware
const (
	ContextUserID = "user_id"
	ContextClaims = "claims"
)

// AuthMiddleware validates the access-token header and adds the user to the context
func AuthMiddleware(authService service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := requireHeader(c, HeaderAccessToken)
		if !ok {
			return
		}

		claims, err := authService.VerifyAccessToken(c.Request.Context(), token)
		if err != nil {
			respondError(c, logger, err)
			return
		}

		c.Set(ContextUserID, claims.UID)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}
