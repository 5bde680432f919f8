package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
	"github.com/noah-isme/fleet-backoffice-api/pkg/response"
)

// RBAC enforces role-based access control for routes. Role names are matched
// case-insensitively; empty names are ignored so an unset role never grants access.
func RBAC(allowed ...string) gin.HandlerFunc {
	roles := make(map[string]struct{}, len(allowed))
	for _, a := range allowed {
		if a = strings.ToLower(strings.TrimSpace(a)); a != "" {
			roles[a] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		claims := CurrentUser(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := roles[strings.ToLower(string(claims.Role))]; ok {
			c.Next()
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role is not allowed to perform this action"))
		c.Abort()
	}
}

// HasRole reports whether the current user holds one of roles.
func HasRole(c *gin.Context, roles ...string) bool {
	claims := CurrentUser(c)
	if claims == nil {
		return false
	}
	for _, r := range roles {
		if r != "" && strings.EqualFold(r, string(claims.Role)) {
			return true
		}
	}
	return false
}
