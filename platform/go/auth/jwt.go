package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func ExtractJWTToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	const prefix = "Bearer "
	// Case-insensitive prefix match.
	if len(authHeader) < len(prefix) || !strings.EqualFold(authHeader[:len(prefix)], prefix) {
		return "", false
	}

	return strings.TrimSpace(authHeader[len(prefix):]), true
}

// HS256Config configures HMAC token verification.
type HS256Config struct {
	Secret   []byte
	Issuer   string        // optional; checked when set
	Audience string        // optional; checked when set
	Leeway   time.Duration // clock skew tolerance
}

// HS256Verifier returns a VerifyFunc that accepts only HS256-signed tokens
// with a valid exp claim.
func HS256Verifier(cfg HS256Config) VerifyFunc {
	if len(cfg.Secret) == 0 {
		panic("auth.HS256Verifier: secret must not be empty")
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(cfg.Leeway),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	parser := jwt.NewParser(opts...)

	return func(_ context.Context, token string) (map[string]interface{}, error) {
		claims := jwt.MapClaims{}
		parsed, err := parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
			return cfg.Secret, nil
		})
		if err != nil {
			return nil, fmt.Errorf("verify token: %w", err)
		}
		if !parsed.Valid {
			return nil, errors.New("verify token: invalid token")
		}
		return claims, nil
	}
}
