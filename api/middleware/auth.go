package middleware

import (
	"net/http"
	"strings"

	"github.com/drawspace/drawspace-backend/api/responses"
	pkgauth "github.com/drawspace/drawspace-backend/pkg/auth"
	"github.com/drawspace/drawspace-backend/pkg/config"
	pkgerrors "github.com/drawspace/drawspace-backend/pkg/errors"
	"github.com/drawspace/drawspace-backend/pkg/logger"
)

// Auth validates a bearer token and seeds the request context with the
// verified identity. Requests without a valid credential are rejected.
func Auth(cfg config.JWTConfig, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			claims, err := pkgauth.VerifyAccessToken(cfg, token)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
				return
			}

			ctx := WithExternalID(r.Context(), claims.ExternalID())
			ctx = withEmail(ctx, claims.Email)
			if logg != nil {
				ctx = logg.WithExternalID(ctx, claims.ExternalID())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(raw), "bearer ") {
		return strings.TrimSpace(raw[7:])
	}
	return raw
}
