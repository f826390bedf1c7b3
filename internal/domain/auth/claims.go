package auth

import "github.com/golang-jwt/jwt/v5"

// Claims represents the claims carried by an access token
type Claims struct {
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}
