package controllers

import (
	"net/http"

	"github.com/drawspace/drawspace-backend/api/middleware"
	"github.com/drawspace/drawspace-backend/api/responses"
	"github.com/drawspace/drawspace-backend/api/validators"
	"github.com/drawspace/drawspace-backend/internal/accounts"
	pkgerrors "github.com/drawspace/drawspace-backend/pkg/errors"
	"github.com/drawspace/drawspace-backend/pkg/logger"
)

// SyncAccountRequest carries the profile fields the identity token does not.
type SyncAccountRequest struct {
	FirstName string `json:"firstName,omitempty" validate:"omitempty,max=120"`
	LastName  string `json:"lastName,omitempty" validate:"omitempty,max=120"`
}

// AccountResponse is the provisioning result returned to the client app.
type AccountResponse struct {
	ID         string `json:"id"`
	ExternalID string `json:"externalId"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName,omitempty"`
	LastName   string `json:"lastName,omitempty"`
}

// SyncAccount provisions the account for the authenticated identity on first
// sign-in and is a cheap no-op on every later call.
func SyncAccount(svc *accounts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		externalID := middleware.ExternalIDFromContext(r.Context())
		if externalID == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing identity"))
			return
		}
		email := middleware.EmailFromContext(r.Context())

		var req SyncAccountRequest
		if r.ContentLength > 0 {
			if err := validators.DecodeJSONBody(r, &req); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
		}

		account, err := svc.EnsureAccount(r.Context(), accounts.Identity{
			ExternalID: externalID,
			Email:      email,
			FirstName:  req.FirstName,
			LastName:   req.LastName,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, AccountResponse{
			ID:         account.ID.String(),
			ExternalID: account.ExternalID,
			Email:      account.Email,
			FirstName:  account.FirstName,
			LastName:   account.LastName,
		})
	}
}
