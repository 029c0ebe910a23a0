package security

import (
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims are the parts of the backend's bearer token the client cares about.
type TokenClaims struct {
	EmployeeID string
	Role       string
	ExpiresAt  time.Time
}

func (c TokenClaims) IsAdmin() bool {
	return strings.EqualFold(c.Role, "admin")
}

// ReadClaims decodes the token payload without verifying the signature.
// The client never holds the signing key; the backend verifies on every call.
func ReadClaims(token string) (TokenClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenClaims{}, fmt.Errorf("parse token: %w", err)
	}

	out := TokenClaims{
		EmployeeID: firstString(claims, "employee_id", "sub", "id"),
		Role:       firstString(claims, "role", "user_role"),
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		out.ExpiresAt = exp.Time
	}
	return out, nil
}

func firstString(claims jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := claims[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return fmt.Sprintf("%.0f", v)
		}
	}
	return ""
}
