package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/eduforma/turmas-api/internal/middleware"
	"github.com/eduforma/turmas-api/internal/models"
)

// claimsFromContext reads the JWT claims the auth middleware stored on the
// request. A nil return means the route ran without authentication (or the
// stored value is not ours), so handlers treat it as an anonymous caller.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
