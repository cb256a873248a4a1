package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/drawspace/drawspace-backend/pkg/enums"
)

// UsageEvent is one billable action, append-only. The count of rows per
// account within a calendar month is the authoritative usage figure; rows are
// never updated or deleted.
type UsageEvent struct {
	ID        uuid.UUID        `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	AccountID uuid.UUID        `gorm:"column:account_id;type:uuid;not null;index:idx_usage_events_account_created"`
	Action    enums.ActionType `gorm:"column:action;not null"`
	CreatedAt time.Time        `gorm:"column:created_at;autoCreateTime;index:idx_usage_events_account_created"`
}
