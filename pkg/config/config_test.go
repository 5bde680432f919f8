package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func TestFromViperDefaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg := fromViper(v)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "http://localhost:8000/api", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.True(t, cfg.Settings.CacheEnabled)
	assert.Equal(t, 10*time.Minute, cfg.Settings.CacheTTL)
	assert.Equal(t, "admin", cfg.Roles.Admin)
	assert.Equal(t, int64(20*1024*1024), cfg.Uploads.MaxFileSizeBytes)
	assert.Equal(t, 500, cfg.Reports.MaxEntities)
	assert.Equal(t, "./exports", cfg.Reports.StorageDir)
	assert.Equal(t, 24*time.Hour, cfg.Reports.SignedURLTTL)
	assert.Equal(t, 1, cfg.Reports.WorkerConcurrency)
}

func TestFromViperOverrides(t *testing.T) {
	v := viper.New()
	setDefaults(v)
	v.Set("API_BASE_URL", "https://records.example.com/api/")
	v.Set("BACKEND_TIMEOUT", "not-a-duration")
	v.Set("SETTINGS_CACHE_TTL", "30s")
	v.Set("ALLOWED_ORIGINS", " https://a.example.com , ,https://b.example.com")
	v.Set("REPORTS_MAX_ENTITIES", -3)

	cfg := fromViper(v)

	assert.Equal(t, "https://records.example.com/api", cfg.Backend.BaseURL)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 30*time.Second, cfg.Settings.CacheTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 500, cfg.Reports.MaxEntities)
}
