package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/noah-isme/fleet-backoffice-api/internal/models"
	"github.com/noah-isme/fleet-backoffice-api/internal/service"
	"github.com/noah-isme/fleet-backoffice-api/pkg/config"
)

// devtoken prints a bearer token signed with JWT_SECRET for local testing.
func main() {
	var (
		userID string
		role   string
		email  string
		ttl    time.Duration
	)
	flag.StringVar(&userID, "user", "dev-user", "User ID claim")
	flag.StringVar(&role, "role", "", "Role claim (default: ROLE_ADMIN)")
	flag.StringVar(&email, "email", "dev@example.com", "Email claim")
	flag.DurationVar(&ttl, "ttl", 8*time.Hour, "Token lifetime")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Env == config.EnvProduction {
		log.Fatal("devtoken refuses to run with ENV=production")
	}
	if role == "" {
		role = cfg.Roles.Admin
	}

	auth := service.NewAuthService(nil, service.AuthConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})
	token, expiresAt, err := auth.IssueToken(userID, models.UserRole(role), email, ttl)
	if err != nil {
		log.Fatalf("failed to issue token: %v", err)
	}
	fmt.Println(token)
	log.Printf("expires at %s", expiresAt.Format(time.RFC3339))
}
