package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/drawspace/drawspace-backend/pkg/enums"
)

// Subscription binds an Account to a Plan. At most one row per account;
// created alongside the account on the default plan and never deleted while
// the account exists.
type Subscription struct {
	ID                   uuid.UUID                `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID            uuid.UUID                `gorm:"column:account_id;type:uuid;not null;uniqueIndex"`
	PlanID               string                   `gorm:"column:plan_id;not null"`
	StripeCustomerID     string                   `gorm:"column:stripe_customer_id;not null;default:''"`
	StripeSubscriptionID string                   `gorm:"column:stripe_subscription_id;not null;default:'';index"`
	Status               enums.SubscriptionStatus `gorm:"column:status;not null;default:'active'"`
	CurrentPeriodStart   *time.Time               `gorm:"column:current_period_start"`
	CurrentPeriodEnd     *time.Time               `gorm:"column:current_period_end"`
	CreatedAt            time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
