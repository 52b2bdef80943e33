package devtoken

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Params captures the claims required to mint an HS256 token for local and CI
// environments. No environment variables are read so the builder stays
// deterministic for tooling.
type Params struct {
	Secret    []byte        // HMAC key shared with the API (required)
	UserID    string        // sub claim (required)
	TenantID  string        // tenant_id claim (required)
	BranchID  string        // branch_id claim (optional)
	Email     string        // email claim (optional)
	Name      string        // display name (optional)
	IsAdmin   bool          // is_admin claim
	Issuer    string        // optional iss
	ExpiresIn time.Duration // relative expiry; default 1h if zero
}

// BuildToken returns a signed HS256 JWT accepted by auth.HS256Verifier.
func BuildToken(p Params, now time.Time) (string, error) {
	if len(p.Secret) == 0 {
		return "", errors.New("secret is required")
	}
	if strings.TrimSpace(p.UserID) == "" {
		return "", errors.New("userID is required")
	}
	if strings.TrimSpace(p.TenantID) == "" {
		return "", errors.New("tenantID is required")
	}

	if now.IsZero() {
		now = time.Now().UTC()
	}

	expiresIn := p.ExpiresIn
	if expiresIn == 0 {
		expiresIn = time.Hour
	}

	claims := jwt.MapClaims{
		"sub":       p.UserID,
		"tenant_id": p.TenantID,
		"is_admin":  p.IsAdmin,
		"iat":       now.Unix(),
		"exp":       now.Add(expiresIn).Unix(),
	}
	if p.BranchID != "" {
		claims["branch_id"] = p.BranchID
	}
	if p.Email != "" {
		claims["email"] = p.Email
	}
	if p.Name != "" {
		claims["name"] = p.Name
	}
	if p.Issuer != "" {
		claims["iss"] = p.Issuer
	}

	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.Secret)
}
