package controllers

import (
	"net/http"

	"github.com/drawspace/drawspace-backend/api/middleware"
	"github.com/drawspace/drawspace-backend/api/responses"
	"github.com/drawspace/drawspace-backend/internal/usage"
	pkgerrors "github.com/drawspace/drawspace-backend/pkg/errors"
	"github.com/drawspace/drawspace-backend/pkg/logger"
)

// UsageResponse is the account-facing view of the current billing month.
type UsageResponse struct {
	PlanName             string `json:"planName"`
	ImageGenerationLimit int    `json:"imageGenerationLimit"`
	ImageGenerationsUsed int    `json:"imageGenerationsUsed"`
}

func GetUsage(svc usage.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		externalID := middleware.ExternalIDFromContext(r.Context())
		if externalID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}

		summary, err := svc.GetUsage(r.Context(), externalID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, UsageResponse{
			PlanName:             summary.PlanName,
			ImageGenerationLimit: summary.Limit,
			ImageGenerationsUsed: summary.Used,
		})
	}
}
