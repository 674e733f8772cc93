package models

import (
	"time"

	"github.com/google/uuid"
)

// Configuration is a saved connection profile to one Veeva tenant/environment.
// At most one configuration per user is active at a time; the store enforces
// that transactionally in ActivateExclusive rather than with a constraint.
type Configuration struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;index;uniqueIndex:idx_configurations_connection,priority:1"`
	Name        string     `gorm:"type:text;not null"`
	Environment string     `gorm:"type:text;not null;uniqueIndex:idx_configurations_connection,priority:2"`
	VeevaURL    string     `gorm:"type:text;not null;uniqueIndex:idx_configurations_connection,priority:3"`
	Username    string     `gorm:"type:text;not null;uniqueIndex:idx_configurations_connection,priority:4"`
	IsActive    bool       `gorm:"type:boolean;not null;default:false"`
	LastSyncAt  *time.Time `gorm:"type:timestamptz"`
	CreatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`

	Sessions   []Session   `gorm:"foreignKey:ConfigurationID;constraint:OnDelete:CASCADE"`
	Studies    []Study     `gorm:"foreignKey:ConfigurationID;constraint:OnDelete:CASCADE"`
	Milestones []Milestone `gorm:"foreignKey:ConfigurationID;constraint:OnDelete:CASCADE"`
}
