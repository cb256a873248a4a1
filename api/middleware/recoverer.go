package middleware

import (
	"fmt"
	"net/http"

	"github.com/drawspace/drawspace-backend/api/responses"
	pkgerrors "github.com/drawspace/drawspace-backend/pkg/errors"
	"github.com/drawspace/drawspace-backend/pkg/logger"
)

func Recoverer(logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rec := asRecorder(w)
			defer func() {
				if p := recover(); p != nil {
					err := fmt.Errorf("panic: %v", p)
					ctx := r.Context()
					if logg != nil {
						ctx = logg.WithFields(ctx, map[string]any{"panic": p})
						logg.Error(ctx, "panic.recovered", err)
					}
					// A handler may fail after partially writing its
					// response; in that case the connection gets nothing
					// extra.
					if !rec.Written() {
						responses.WriteError(ctx, logg, rec, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "panic"))
					}
				}
			}()
			next.ServeHTTP(rec, r)
		})
	}
}
