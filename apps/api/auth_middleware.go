package main

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	platformauth "github.com/zenGate-Global/palmyra-gym/platform/go/auth"
)

// buildAuthMiddleware constructs the HS256 JWT middleware. Tokens must carry a
// tenant_id claim holding a tenant UUID; branch_id, when present, must also be a UUID.
func buildAuthMiddleware(cfg config, logger *zap.Logger) func(http.Handler) http.Handler {
	verify := platformauth.HS256Verifier(platformauth.HS256Config{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		Leeway:   cfg.JWTLeeway,
	})

	extract := func(claims map[string]interface{}) (*platformauth.UserCredentials, error) {
		creds, err := platformauth.DefaultCredentialExtractor(claims)
		if err != nil {
			return nil, err
		}
		return normalizeTenantClaims(creds)
	}

	logger.Info("jwt auth enabled", zap.Bool("issuer_check", cfg.JWTIssuer != ""), zap.Bool("audience_check", cfg.JWTAudience != ""))
	return platformauth.JWT(verify, extract)
}

func normalizeTenantClaims(creds *platformauth.UserCredentials) (*platformauth.UserCredentials, error) {
	if creds.TenantID == nil || *creds.TenantID == "" {
		return nil, errors.New("tenant claim required")
	}
	tid, err := uuid.Parse(*creds.TenantID)
	if err != nil {
		return nil, errors.New("tenant claim must be a uuid")
	}
	idStr := tid.String()
	creds.TenantID = &idStr

	if creds.BranchID != nil {
		bid, err := uuid.Parse(*creds.BranchID)
		if err != nil {
			return nil, errors.New("branch claim must be a uuid")
		}
		b := bid.String()
		creds.BranchID = &b
	}
	return creds, nil
}
