package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the access-token payload resolved by the auth middleware.
// Identity issuance lives in a separate service; this API only consumes the
// resolved signer identity.
type JWTClaims struct {
	UserID string `json:"id"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}
