package middlewares

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vittermi/FastFood/models"
	"github.com/vittermi/FastFood/utils"
)

// RequireRole lets the request through only for role or one of more. It must
// run after AuthMiddleware.
func RequireRole(role models.Role, more ...models.Role) gin.HandlerFunc {
	roles := append([]models.Role{role}, more...)
	return func(c *gin.Context) {
		actor, ok := ActorFrom(c)
		if !ok {
			utils.RespondError(c, http.StatusUnauthorized, fmt.Errorf("unauthorized"))
			c.Abort()
			return
		}

		for _, allowed := range roles {
			if actor.Is(allowed) {
				c.Next()
				return
			}
		}

		utils.RespondErrorKind(c, http.StatusForbidden, "forbidden", fmt.Errorf("%s access required", role))
		c.Abort()
	}
}
