package middleware

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	"github.com/noah-isme/fleet-backoffice-api/internal/service"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func protectedRouter(auth *service.AuthService, roles ...string) *gin.Engine {
	r := gin.New()
	r.GET("/protected", JWT(auth), RBAC(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": CurrentUser(c).UserID})
	})
	return r
}

func TestJWTRejectsMissingAndMalformedHeaders(t *testing.T) {
	auth := service.NewAuthService(nil, service.AuthConfig{Secret: "s3cret"})
	r := protectedRouter(auth, "admin")

	for _, header := range []string{"", "Token abc", "Bearer ", "Bearer not-a-jwt"} {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestJWTAndRBAC(t *testing.T) {
	auth := service.NewAuthService(nil, service.AuthConfig{Secret: "s3cret"})
	r := protectedRouter(auth, "Admin", "safety", "")

	admin, _, err := auth.IssueToken("u-1", "admin", "a@example.com", time.Minute)
	require.NoError(t, err)
	dispatch, _, err := auth.IssueToken("u-2", "dispatch", "d@example.com", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+admin)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"user":"u-1"}`, rec.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "bearer "+dispatch)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRBACWithoutClaims(t *testing.T) {
	r := gin.New()
	r.GET("/x", RBAC("admin"), func(c *gin.Context) { c.Status(http.StatusOK) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHasRole(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.False(t, HasRole(c, "admin"))
	c.Set(ContextUserKey, &models.JWTClaims{UserID: "u", Role: "HR"})
	assert.True(t, HasRole(c, "admin", "hr"))
	assert.False(t, HasRole(c, "", "safety"))
}

func TestResponseMetaAndCacheHeader(t *testing.T) {
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/settings", func(c *gin.Context) {
		SetCacheHit(c, true)
		c.JSON(http.StatusOK, gin.H{"meta": ExtractMeta(c)})
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get(CacheHeader))

	var body struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body.Meta["cache_hit"])
	assert.Contains(t, body.Meta, "processing_time_ms")
}

func TestMetricsUsesRouteTemplate(t *testing.T) {
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/entities/:entityType/:id/checklist", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/entities/driver/42/checklist", nil))
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))

	scrape := httptest.NewRecorder()
	metrics.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(scrape.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `path="/entities/:entityType/:id/checklist"`))
	assert.True(t, strings.Contains(string(body), `path="unmatched"`))
}
