package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Jawadyyy/healthmate-portal/internal/model"
)

// TokenClaims are the parts of the backend token the gateway reads.
// The signature is never checked here; the backend does that on every call.
type TokenClaims struct {
	Role      model.Role
	Subject   string
	ExpiresAt time.Time
}

type backendClaims struct {
	Role   string `json:"role"`
	UserID string `json:"id"`
	jwt.RegisteredClaims
}

// InspectToken parses token without verification. Opaque (non-JWT) tokens
// return ok=false.
func InspectToken(token string) (TokenClaims, bool) {
	var claims backendClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenClaims{}, false
	}

	out := TokenClaims{Subject: claims.Subject}
	if out.Subject == "" {
		out.Subject = claims.UserID
	}
	if role, ok := model.ParseRole(claims.Role); ok {
		out.Role = role
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, true
}
