package deepvoice

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/joho/godotenv"
)

// Bearer tokens are optional: a backend deployed behind an auth proxy
// issues them out of band and the client only attaches and inspects them.
// The signature is never verified client-side; only the expiry claim is
// read so a dead token can be reported before a round trip is wasted.

func GetAuthToken() Result[string] {
	token := os.Getenv("DEEPVOICE_AUTH_TOKEN")
	if token != "" {
		return Ok(token)
	}
	return Err[string](NewAuthError("DEEPVOICE_AUTH_TOKEN not set"))
}

func parseTokenClaims(token string) (*jwt.RegisteredClaims, *VoiceError) {
	claims := &jwt.RegisteredClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return nil, WrapError(err, ErrCodeAuth)
	}
	return claims, nil
}

// IsAuthTokenExpired parses the token without verifying its signature and
// reports whether its exp claim is in the past. Tokens without an exp
// claim never expire from the client's point of view.
func IsAuthTokenExpired(token string) (bool, *VoiceError) {
	claims, vErr := parseTokenClaims(token)
	if vErr != nil {
		return false, vErr
	}
	if claims.ExpiresAt == nil {
		return false, nil
	}
	return time.Now().After(claims.ExpiresAt.Time), nil
}

// AuthTokenTTL returns the remaining token lifetime, zero if expired or
// if the token has no expiry claim.
func AuthTokenTTL(token string) time.Duration {
	claims, vErr := parseTokenClaims(token)
	if vErr != nil || claims.ExpiresAt == nil {
		return 0
	}

	ttl := time.Until(claims.ExpiresAt.Time)
	if ttl < 0 {
		return 0
	}
	return ttl
}

func maskToken(s string) string {
	if s == "" {
		return "<not set>"
	}
	if len(s) <= 8 {
		return "****"
	}
	return s[:4] + "****" + s[len(s)-4:]
}

func init() {
	_ = godotenv.Load()
}
