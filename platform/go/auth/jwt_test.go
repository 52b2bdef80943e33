package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func TestHS256Verifier(t *testing.T) {
	secret := []byte("test-secret")
	verify := HS256Verifier(HS256Config{Secret: secret, Issuer: "gym"})
	now := time.Now()

	tests := []struct {
		name    string
		token   string
		wantErr bool
	}{
		{
			name: "valid",
			token: sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{
				"sub": "user-1", "tenant_id": "t-1", "iss": "gym", "exp": now.Add(time.Hour).Unix(),
			}),
		},
		{
			name: "expired",
			token: sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{
				"sub": "user-1", "iss": "gym", "exp": now.Add(-time.Hour).Unix(),
			}),
			wantErr: true,
		},
		{
			name: "missing exp",
			token: sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{
				"sub": "user-1", "iss": "gym",
			}),
			wantErr: true,
		},
		{
			name: "wrong secret",
			token: sign(t, jwt.SigningMethodHS256, []byte("other"), jwt.MapClaims{
				"sub": "user-1", "iss": "gym", "exp": now.Add(time.Hour).Unix(),
			}),
			wantErr: true,
		},
		{
			name: "wrong issuer",
			token: sign(t, jwt.SigningMethodHS256, secret, jwt.MapClaims{
				"sub": "user-1", "iss": "elsewhere", "exp": now.Add(time.Hour).Unix(),
			}),
			wantErr: true,
		},
		{
			name: "other hmac algorithm",
			token: sign(t, jwt.SigningMethodHS512, secret, jwt.MapClaims{
				"sub": "user-1", "iss": "gym", "exp": now.Add(time.Hour).Unix(),
			}),
			wantErr: true,
		},
		{
			name:    "garbage",
			token:   "not-a-jwt",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			claims, err := verify(context.Background(), tt.token)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, "user-1", claims["sub"])
			require.Equal(t, "t-1", claims["tenant_id"])
		})
	}
}

func TestExtractJWTToken(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	_, ok := ExtractJWTToken(req)
	require.False(t, ok)

	req.Header.Set("Authorization", "bearer abc.def ")
	token, ok := ExtractJWTToken(req)
	require.True(t, ok)
	require.Equal(t, "abc.def", token)

	req.Header.Set("Authorization", "Basic xyz")
	_, ok = ExtractJWTToken(req)
	require.False(t, ok)
}
