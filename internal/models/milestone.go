package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Milestone kinds distinguish study-level from site-level records.
const (
	MilestoneKindStudy = "study"
	MilestoneKindSite  = "site"
)

// DefaultMilestonePriority is applied when the upstream record carries none.
const DefaultMilestonePriority = "medium"

// Milestone is the canonical snapshot of one upstream milestone record.
// The upsert key is (configuration, study id, site id, title); kind is
// deliberately not part of it, mirroring the upstream system: a study-level
// and a site-level milestone sharing a title on the same study with an empty
// site id overwrite each other. SiteID is an empty string rather than NULL
// for study-level rows so the composite unique index actually conflicts.
type Milestone struct {
	ID                  uuid.UUID         `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	ConfigurationID     uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_milestones_external,priority:1"`
	StudyExternalID     string            `gorm:"type:text;not null;uniqueIndex:idx_milestones_external,priority:2"`
	SiteID              string            `gorm:"type:text;not null;default:'';uniqueIndex:idx_milestones_external,priority:3"`
	Kind                string            `gorm:"type:text;not null"`
	Title               string            `gorm:"type:text;not null;uniqueIndex:idx_milestones_external,priority:4"`
	Status              string            `gorm:"type:text"`
	OriginalPlannedDate *time.Time        `gorm:"type:timestamptz"`
	CurrentPlannedDate  *time.Time        `gorm:"type:timestamptz"`
	BaselineDate        *time.Time        `gorm:"type:timestamptz"`
	ActualDate          *time.Time        `gorm:"type:timestamptz"`
	Progress            int               `gorm:"type:integer;not null;default:0"`
	Assignee            string            `gorm:"type:text"`
	Priority            string            `gorm:"type:text;not null;default:'medium'"`
	Raw                 datatypes.JSONMap `gorm:"type:jsonb"`
	RefreshedAt         time.Time         `gorm:"type:timestamptz;not null"`
	CreatedAt           time.Time         `gorm:"type:timestamptz;not null;default:now();autoCreateTime"`
	UpdatedAt           time.Time         `gorm:"type:timestamptz;not null;default:now();autoUpdateTime"`
}
