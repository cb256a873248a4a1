package subscriptions

import (
	"context"
	"encoding/json"

	"github.com/drawspace/drawspace-backend/internal/accounts"
	"github.com/drawspace/drawspace-backend/pkg/config"
	"github.com/drawspace/drawspace-backend/pkg/db/models"
	"github.com/drawspace/drawspace-backend/pkg/enums"
	pkgerrors "github.com/drawspace/drawspace-backend/pkg/errors"
	"github.com/drawspace/drawspace-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v84"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type ServiceParams struct {
	Repo              accounts.Repository
	TransactionRunner txRunner
	Log               *logger.Logger
}

// Service reconciles local subscription state with billing-provider webhook
// events. Handlers are idempotent under at-least-once delivery: every
// transition is a single update scoped by a unique key, so a redelivered
// event repeats the same write.
type Service struct {
	repo     accounts.Repository
	txRunner txRunner
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "accounts repo required")
	}
	if params.TransactionRunner == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "transaction runner required")
	}
	return &Service{
		repo:     params.Repo,
		txRunner: params.TransactionRunner,
		logg:     params.Log,
	}, nil
}

func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypeCheckoutSessionCompleted:
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode checkout session event")
		}
		return s.applyCheckoutCompleted(ctx, &session)
	case stripe.EventTypeCustomerSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
		}
		return s.applyStatusChange(ctx, sub.ID, enums.SubscriptionStatus(sub.Status))
	case stripe.EventTypeCustomerSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "decode subscription event")
		}
		return s.applyCancellation(ctx, sub.ID)
	default:
		// Forward compatible: unknown event types are acknowledged untouched.
		return nil
	}
}

func (s *Service) applyCheckoutCompleted(ctx context.Context, session *stripe.CheckoutSession) error {
	rawAccountID := session.ClientReferenceID
	if rawAccountID == "" {
		rawAccountID = session.Metadata["account_id"]
	}
	planID := session.Metadata["plan_id"]
	if rawAccountID == "" || planID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "checkout session missing account or plan reference")
	}
	accountID, err := uuid.Parse(rawAccountID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid account reference")
	}

	var customerID, subscriptionID string
	if session.Customer != nil {
		customerID = session.Customer.ID
	}
	if session.Subscription != nil {
		subscriptionID = session.Subscription.ID
	}

	return s.txRunner.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		plan, err := repo.FindPlanByID(ctx, planID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load plan")
		}
		if plan == nil {
			return pkgerrors.New(pkgerrors.CodeValidation, "unknown plan reference")
		}

		existing, err := repo.FindSubscriptionByAccount(ctx, accountID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load subscription")
		}

		if existing == nil {
			created := &models.Subscription{
				AccountID:            accountID,
				PlanID:               plan.ID,
				StripeCustomerID:     customerID,
				StripeSubscriptionID: subscriptionID,
				Status:               enums.SubscriptionStatusActive,
			}
			if err := repo.CreateSubscription(ctx, created); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create subscription")
			}
			return nil
		}

		existing.PlanID = plan.ID
		existing.Status = enums.SubscriptionStatusActive
		if customerID != "" {
			existing.StripeCustomerID = customerID
		}
		if subscriptionID != "" {
			existing.StripeSubscriptionID = subscriptionID
		}
		if err := repo.UpdateSubscription(ctx, existing); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription")
		}
		return nil
	})
}

func (s *Service) applyStatusChange(ctx context.Context, stripeSubscriptionID string, status enums.SubscriptionStatus) error {
	if stripeSubscriptionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription reference missing")
	}

	rows, err := s.repo.UpdateSubscriptionStatusByStripeID(ctx, stripeSubscriptionID, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update subscription status")
	}
	if rows == 0 && s.logg != nil {
		// The status event can race ahead of checkout completion; answering
		// success here keeps the provider from hammering retries.
		ctx = s.logg.WithField(ctx, "stripe_subscription_id", stripeSubscriptionID)
		s.logg.Warn(ctx, "subscription status event for unknown subscription")
	}
	return nil
}

func (s *Service) applyCancellation(ctx context.Context, stripeSubscriptionID string) error {
	if stripeSubscriptionID == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "subscription reference missing")
	}

	defaultPlan, err := s.repo.FindPlanByName(ctx, config.DefaultPlanName)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default plan")
	}
	if defaultPlan == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "default plan missing")
	}

	rows, err := s.repo.CancelSubscriptionByStripeID(ctx, stripeSubscriptionID, defaultPlan.ID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel subscription")
	}
	if rows == 0 && s.logg != nil {
		ctx = s.logg.WithField(ctx, "stripe_subscription_id", stripeSubscriptionID)
		s.logg.Warn(ctx, "cancellation event for unknown subscription")
	}
	return nil
}
