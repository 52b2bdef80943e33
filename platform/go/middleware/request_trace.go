package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	platformapi "github.com/zenGate-Global/palmyra-gym/platform/go/api"
	platformauth "github.com/zenGate-Global/palmyra-gym/platform/go/auth"
	platformlogging "github.com/zenGate-Global/palmyra-gym/platform/go/logging"
	"github.com/zenGate-Global/palmyra-gym/platform/go/requesttrace"
)

// RequestTrace stores the actor's AuditInfo on the request context. Stores read it
// to stamp audit columns and to fall back to the home branch on branch-scoped rows.
// Mount it after Auth.
func RequestTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := middleware.GetReqID(r.Context())

		audit := requesttrace.Anonymous(requestID)
		if creds, ok := platformauth.UserFromContext(r.Context()); ok && creds != nil {
			built, err := requesttrace.FromCredentials(creds, requestID)
			if err != nil {
				if logger, ok := platformlogging.FromContext(r.Context()); ok {
					logger.Warn("rejecting credentials without subject", zap.Error(err))
				}
				platformapi.Reject(w, http.StatusUnauthorized, "credentials missing subject")
				return
			}
			audit = built
		}

		fields := []zap.Field{zap.String("actor_kind", string(audit.ActorKind))}
		if audit.UserID != nil && *audit.UserID != "" {
			fields = append(fields, zap.String("user_id", *audit.UserID))
		}
		if audit.TenantID != nil {
			fields = append(fields, zap.String("tenant_id", *audit.TenantID))
		}
		if home, ok := audit.HomeBranch(); ok {
			fields = append(fields, zap.Stringer("home_branch_id", home))
		}

		ctx := requesttrace.IntoContext(r.Context(), audit)
		ctx = platformlogging.With(ctx, fields...)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
