package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnlimitedGenerations is the MonthlyLimit sentinel for plans without a
// metered ceiling. Any negative limit bypasses quota enforcement.
const UnlimitedGenerations = -1

// Plan is a named subscription tier. Seeded at deploy time, rarely mutated.
type Plan struct {
	ID            string          `gorm:"column:id;primaryKey"`
	Name          string          `gorm:"column:name;not null;uniqueIndex"`
	MonthlyLimit  int             `gorm:"column:monthly_limit;not null"`
	PriceAmount   decimal.Decimal `gorm:"column:price_amount;type:numeric(12,2);not null"`
	StripePriceID string          `gorm:"column:stripe_price_id;not null;default:''"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// Unlimited reports whether the plan has no metered ceiling.
func (p Plan) Unlimited() bool {
	return p.MonthlyLimit < 0
}
