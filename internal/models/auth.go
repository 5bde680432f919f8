package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// UserRole is a session role name. The concrete names come from configuration.
type UserRole string

// JWTClaims represents the payload of session tokens issued by the auth layer.
type JWTClaims struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	jwt.RegisteredClaims
}
