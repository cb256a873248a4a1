package accounts

import (
	"context"
	"time"

	"github.com/drawspace/drawspace-backend/pkg/db/models"
	"github.com/drawspace/drawspace-backend/pkg/enums"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository is the persistence surface for accounts, plans, subscriptions
// and the usage-event log. Find helpers return (nil, nil) when the row is
// absent so callers decide whether absence is an error.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindAccountByExternalID(ctx context.Context, externalID string) (*models.Account, error)
	CreateAccount(ctx context.Context, account *models.Account) error

	FindPlanByID(ctx context.Context, id string) (*models.Plan, error)
	FindPlanByName(ctx context.Context, name string) (*models.Plan, error)

	FindSubscriptionByAccount(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error)
	FindSubscriptionWithPlan(ctx context.Context, accountID uuid.UUID) (*models.Subscription, *models.Plan, error)
	CreateSubscription(ctx context.Context, subscription *models.Subscription) error
	UpdateSubscription(ctx context.Context, subscription *models.Subscription) error
	UpdateSubscriptionStatusByStripeID(ctx context.Context, stripeSubscriptionID string, status enums.SubscriptionStatus) (int64, error)
	CancelSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID, defaultPlanID string) (int64, error)

	CreateUsageEvent(ctx context.Context, event *models.UsageEvent) error
	CountUsageEvents(ctx context.Context, accountID uuid.UUID, from, to time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an account repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindAccountByExternalID(ctx context.Context, externalID string) (*models.Account, error) {
	if externalID == "" {
		return nil, nil
	}
	var account models.Account
	if err := r.db.WithContext(ctx).
		Where("external_id = ?", externalID).
		First(&account).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

func (r *repository) CreateAccount(ctx context.Context, account *models.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

func (r *repository) FindPlanByID(ctx context.Context, id string) (*models.Plan, error) {
	if id == "" {
		return nil, nil
	}
	var plan models.Plan
	if err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&plan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) FindPlanByName(ctx context.Context, name string) (*models.Plan, error) {
	if name == "" {
		return nil, nil
	}
	var plan models.Plan
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&plan).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

func (r *repository) FindSubscriptionByAccount(ctx context.Context, accountID uuid.UUID) (*models.Subscription, error) {
	var sub models.Subscription
	if err := r.db.WithContext(ctx).
		Where("account_id = ?", accountID).
		First(&sub).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &sub, nil
}

func (r *repository) FindSubscriptionWithPlan(ctx context.Context, accountID uuid.UUID) (*models.Subscription, *models.Plan, error) {
	sub, err := r.FindSubscriptionByAccount(ctx, accountID)
	if err != nil || sub == nil {
		return nil, nil, err
	}
	plan, err := r.FindPlanByID(ctx, sub.PlanID)
	if err != nil {
		return nil, nil, err
	}
	if plan == nil {
		return sub, nil, nil
	}
	return sub, plan, nil
}

func (r *repository) CreateSubscription(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).Create(subscription).Error
}

func (r *repository) UpdateSubscription(ctx context.Context, subscription *models.Subscription) error {
	return r.db.WithContext(ctx).Save(subscription).Error
}

func (r *repository) UpdateSubscriptionStatusByStripeID(ctx context.Context, stripeSubscriptionID string, status enums.SubscriptionStatus) (int64, error) {
	if stripeSubscriptionID == "" {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *repository) CancelSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID, defaultPlanID string) (int64, error) {
	if stripeSubscriptionID == "" {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.Subscription{}).
		Where("stripe_subscription_id = ?", stripeSubscriptionID).
		Updates(map[string]any{
			"status":  enums.SubscriptionStatusCancelled,
			"plan_id": defaultPlanID,
		})
	return result.RowsAffected, result.Error
}

func (r *repository) CreateUsageEvent(ctx context.Context, event *models.UsageEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

func (r *repository) CountUsageEvents(ctx context.Context, accountID uuid.UUID, from, to time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.UsageEvent{}).
		Where("account_id = ? AND created_at >= ? AND created_at < ?", accountID, from, to).
		Count(&count).Error
	return count, err
}
