package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/vardaanagro/agrofarm-backend/api/responses"
	pkgAuth "github.com/vardaanagro/agrofarm-backend/pkg/auth"
	"github.com/vardaanagro/agrofarm-backend/pkg/config"
	pkgerrors "github.com/vardaanagro/agrofarm-backend/pkg/errors"
	"github.com/vardaanagro/agrofarm-backend/pkg/logger"
)

// ActiveUserChecker confirms the token subject still exists and is enabled.
type ActiveUserChecker interface {
	IsActive(ctx context.Context, id uuid.UUID) (bool, error)
}

// Auth validates the bearer token, rejects disabled accounts and seeds the
// request context with the caller's id and role.
func Auth(cfg config.JWTConfig, users ActiveUserChecker, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := strings.TrimSpace(r.Header.Get("Authorization"))
			if len(raw) < 7 || !strings.EqualFold(raw[:7], "bearer ") || strings.TrimSpace(raw[7:]) == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Access token required"))
				return
			}

			claims, err := pkgAuth.ParseAccessToken(cfg, strings.TrimSpace(raw[7:]))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "Invalid access token"))
				return
			}

			if users != nil {
				active, err := users.IsActive(r.Context(), claims.UserID)
				if err != nil {
					responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify user"))
					return
				}
				if !active {
					responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "Invalid or inactive user"))
					return
				}
			}

			ctx := WithUserID(r.Context(), claims.UserID.String())
			ctx = WithRole(ctx, string(claims.Role))
			if logg != nil {
				ctx = logg.WithUserID(ctx, claims.UserID.String())
				ctx = logg.WithActorRole(ctx, string(claims.Role))
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
