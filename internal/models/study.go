package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Study is the canonical snapshot of one upstream study record. Rows are
// replaced wholesale on every sync, keyed by (configuration, external id);
// the raw upstream payload is kept beside the extracted columns so schema
// drift upstream never loses data.
type Study struct {
	ID              uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ConfigurationID uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_studies_external,priority:1"`
	ExternalID      string            `gorm:"type:text;not null;uniqueIndex:idx_studies_external,priority:2"`
	Name            string            `gorm:"type:text;not null"`
	Phase           string            `gorm:"type:text"`
	Status          string            `gorm:"type:text"`
	Raw             datatypes.JSONMap `gorm:"type:jsonb"`
	RefreshedAt     time.Time         `gorm:"type:timestamptz;not null"`
	CreatedAt       time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}
