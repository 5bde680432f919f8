package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/fleet-backoffice-api/pkg/config"
)

func TestDSN(t *testing.T) {
	dsn := DSN(config.DatabaseConfig{
		Host:     "db",
		Port:     5433,
		User:     "fleet",
		Password: "secret",
		Name:     "fleet_backoffice",
		SSLMode:  "require",
	})
	assert.Equal(t, "host=db port=5433 user=fleet password=secret dbname=fleet_backoffice sslmode=require", dsn)
}
