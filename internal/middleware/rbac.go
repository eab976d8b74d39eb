package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/HungtdFPI/TaskforceAF/internal/models"
	appErrors "github.com/HungtdFPI/TaskforceAF/pkg/errors"
	"github.com/HungtdFPI/TaskforceAF/pkg/response"
)

// RequireRoles lets the request through only when the caller holds one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		actor, ok := ActorFromContext(c)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[actor.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(actor.Role)+" is not allowed here"))
			c.Abort()
			return
		}
		c.Next()
	}
}
