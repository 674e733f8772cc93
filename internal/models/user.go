package models

import (
	"time"

	"github.com/google/uuid"
)

// User is the dashboard account that owns configurations and cached trial data.
// Accounts are provisioned out of band; the API only resolves callers from
// their opaque bearer token.
type User struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	Email     string    `gorm:"type:text;uniqueIndex;not null"`
	Name      string    `gorm:"type:text;not null"`
	APIToken  string    `gorm:"type:text;uniqueIndex;not null"`
	CreatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt time.Time `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`

	Configurations []Configuration `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}
