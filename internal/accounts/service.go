package accounts

import (
	"context"

	"github.com/drawspace/drawspace-backend/pkg/config"
	"github.com/drawspace/drawspace-backend/pkg/db/models"
	"github.com/drawspace/drawspace-backend/pkg/enums"
	pkgerrors "github.com/drawspace/drawspace-backend/pkg/errors"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Identity is the verified profile handed over by the auth provider.
type Identity struct {
	ExternalID string
	Email      string
	FirstName  string
	LastName   string
}

type ServiceParams struct {
	Repo              Repository
	TransactionRunner txRunner
}

// Service provisions accounts on first sign-in.
type Service struct {
	repo     Repository
	txRunner txRunner
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "accounts repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{repo: params.Repo, txRunner: params.TransactionRunner}, nil
}

// EnsureAccount returns the account for the identity, creating it together
// with a default-plan active subscription on first sight. Identity references
// are immutable, so an existing account is returned as-is.
func (s *Service) EnsureAccount(ctx context.Context, identity Identity) (*models.Account, error) {
	if identity.ExternalID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "external identity is required")
	}

	existing, err := s.repo.FindAccountByExternalID(ctx, identity.ExternalID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load account")
	}
	if existing != nil {
		return existing, nil
	}

	var created *models.Account
	err = s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		defaultPlan, err := repo.FindPlanByName(ctx, config.DefaultPlanName)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default plan")
		}
		if defaultPlan == nil {
			return pkgerrors.New(pkgerrors.CodeInternal, "default plan missing")
		}

		account := &models.Account{
			ExternalID: identity.ExternalID,
			Email:      identity.Email,
			FirstName:  identity.FirstName,
			LastName:   identity.LastName,
		}
		if err := repo.CreateAccount(ctx, account); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create account")
		}

		sub := &models.Subscription{
			AccountID: account.ID,
			PlanID:    defaultPlan.ID,
			Status:    enums.SubscriptionStatusActive,
		}
		if err := repo.CreateSubscription(ctx, sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
		}

		created = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
