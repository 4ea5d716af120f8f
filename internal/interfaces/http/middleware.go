package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/hendrawn/invoice-monitoring/internal/application/service"
	"github.com/hendrawn/invoice-monitoring/internal/domain/entity"
)

const actorContextKey = "actor"

// AuthMiddleware resolves the acting user from the bearer token and
// aborts unauthenticated requests
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "missing authorization header",
			})
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		actor, err := authService.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, Response{
				Success: false,
				Error:   "invalid or expired token",
			})
			return
		}

		c.Set(actorContextKey, actor)
		c.Next()
	}
}

// actorFrom returns the acting user stored by AuthMiddleware
func actorFrom(c *gin.Context) entity.Actor {
	if v, ok := c.Get(actorContextKey); ok {
		if actor, ok := v.(entity.Actor); ok {
			return actor
		}
	}
	return entity.Actor{}
}
