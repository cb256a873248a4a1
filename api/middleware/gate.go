package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/drawspace/drawspace-backend/api/responses"
	"github.com/drawspace/drawspace-backend/internal/usage"
	pkgauth "github.com/drawspace/drawspace-backend/pkg/auth"
	"github.com/drawspace/drawspace-backend/pkg/config"
	"github.com/drawspace/drawspace-backend/pkg/enums"
	pkgerrors "github.com/drawspace/drawspace-backend/pkg/errors"
	"github.com/drawspace/drawspace-backend/pkg/logger"
)

// recordTimeout bounds the detached usage-recording call so a slow database
// cannot pin goroutines after the response has gone out.
const recordTimeout = 15 * time.Second

// GateConfig is the per-route policy for billable action endpoints.
type GateConfig struct {
	// RequireAuth rejects requests without a valid credential. When false a
	// failed verification downgrades the caller to anonymous instead.
	RequireAuth bool
	// EnforceLimit denies the request once the monthly ceiling is reached.
	EnforceLimit bool
	// TrackUsage appends a usage event after the wrapped handler succeeds.
	TrackUsage bool
	// Action is the billable category recorded per event.
	Action enums.ActionType
}

// Gate wraps a billable action route: optional authentication, quota
// admission, then fire-and-forget usage recording once the handler has
// responded successfully. Recording never delays or alters the response.
func Gate(cfg GateConfig, jwtCfg config.JWTConfig, svc usage.Service, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			var summary *usage.Summary

			token := bearerToken(r)
			if token == "" && cfg.RequireAuth {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
				return
			}

			if token != "" {
				claims, err := pkgauth.VerifyAccessToken(jwtCfg, token)
				if err != nil {
					if cfg.RequireAuth {
						responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid token"))
						return
					}
					// Optional auth: a bad credential downgrades to anonymous.
					claims = nil
				}

				if claims != nil {
					summary, err = svc.GetUsage(ctx, claims.ExternalID())
					if err != nil {
						responses.WriteError(ctx, logg, w, err)
						return
					}

					if cfg.EnforceLimit && summary.LimitReached() {
						quotaErr := pkgerrors.New(pkgerrors.CodeQuota, "monthly generation limit reached").WithDetails(map[string]any{
							"usageCount": summary.Used,
							"limit":      summary.Limit,
							"planName":   summary.PlanName,
						})
						responses.WriteError(ctx, logg, w, quotaErr)
						return
					}

					ctx = WithExternalID(ctx, summary.ExternalID)
					ctx = WithAccountID(ctx, summary.AccountID.String())
					ctx = withUsage(ctx, summary)
					if logg != nil {
						ctx = logg.WithFields(ctx, map[string]any{
							"external_id": summary.ExternalID,
							"account_id":  summary.AccountID.String(),
						})
					}
				}
			}

			rec := asRecorder(w)
			next.ServeHTTP(rec, r.WithContext(ctx))

			if summary == nil || !cfg.TrackUsage {
				return
			}
			if rec.Status() >= http.StatusBadRequest {
				return
			}

			// Detached from the request lifecycle: the response is already on
			// the wire and a recording failure must not unwind into it.
			recordCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), recordTimeout)
			go func() {
				defer cancel()
				err := svc.RecordUsage(recordCtx, usage.RecordInput{
					AccountID:  summary.AccountID,
					ExternalID: summary.ExternalID,
					Action:     cfg.Action,
				})
				if err != nil && logg != nil {
					logg.Error(recordCtx, "usage.record_failed", err)
				}
			}()
		})
	}
}
