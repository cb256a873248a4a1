package models

import (
	"time"

	"github.com/google/uuid"
)

// Account is the canonical identity record. ExternalID is the opaque subject
// identifier minted by the auth provider and never changes once set.
type Account struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ExternalID string    `gorm:"column:external_id;not null;uniqueIndex"`
	Email      string    `gorm:"type:text;not null"`
	FirstName  string    `gorm:"column:first_name;not null;default:''"`
	LastName   string    `gorm:"column:last_name;not null;default:''"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
