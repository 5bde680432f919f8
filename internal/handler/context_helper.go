package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/fleet-backoffice-api/internal/middleware"
	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	appErrors "github.com/noah-isme/fleet-backoffice-api/pkg/errors"
)

func claimsFromContext(c *gin.Context) (*models.JWTClaims, error) {
	claims := middleware.CurrentUser(c)
	if claims == nil {
		return nil, appErrors.ErrUnauthorized
	}
	return claims, nil
}

// entityRef reads the :entityType and :id path parameters.
func entityRef(c *gin.Context) (string, string, error) {
	entityType := strings.ToLower(strings.TrimSpace(c.Param("entityType")))
	id := strings.TrimSpace(c.Param("id"))
	if entityType == "" || id == "" {
		return "", "", appErrors.Clone(appErrors.ErrValidation, "entityType and id are required")
	}
	return entityType, id, nil
}
