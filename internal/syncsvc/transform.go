package syncsvc

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"trialdeck/internal/models"
	"trialdeck/internal/veeva"
)

// studyFromRecord maps one upstream study row into its canonical shape.
// Records without a recognizable external id cannot be keyed and are skipped.
func studyFromRecord(configurationID uuid.UUID, rec veeva.Record, now time.Time) (models.Study, bool) {
	externalID := rec.String("study_number__v", "external_id", "id")
	if externalID == "" {
		return models.Study{}, false
	}

	name := rec.String("study_name__v", "name__v", "name")
	if name == "" {
		name = externalID
	}

	return models.Study{
		ConfigurationID: configurationID,
		ExternalID:      externalID,
		Name:            name,
		Phase:           rec.String("study_phase__v", "phase__v", "phase"),
		Status:          rec.String("study_status__v", "status__v", "status"),
		Raw:             datatypes.JSONMap(rec),
		RefreshedAt:     now,
	}, true
}

// milestoneFromRecord maps one upstream milestone row into its canonical
// shape. Missing progress defaults to 0, missing priority to "medium"; the
// site id is populated only for site-level records.
func milestoneFromRecord(configurationID uuid.UUID, studyExternalID, kind string, rec veeva.Record, now time.Time) (models.Milestone, bool) {
	title := rec.String("name__v", "title", "milestone_name")
	if title == "" {
		return models.Milestone{}, false
	}

	progress, ok := rec.Int("progress__v", "progress", "percent_complete")
	if !ok {
		progress = 0
	}
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}

	priority := strings.ToLower(rec.String("priority__v", "priority"))
	if priority == "" {
		priority = models.DefaultMilestonePriority
	}

	siteID := ""
	if kind == models.MilestoneKindSite {
		siteID = rec.String("site__v", "site_id", "site")
	}

	return models.Milestone{
		ConfigurationID:     configurationID,
		StudyExternalID:     studyExternalID,
		SiteID:              siteID,
		Kind:                kind,
		Title:               title,
		Status:              rec.String("status__v", "status"),
		OriginalPlannedDate: rec.Time("original_planned_date__v", "original_planned_date"),
		CurrentPlannedDate:  rec.Time("planned_date__v", "current_planned_date", "planned_date"),
		BaselineDate:        rec.Time("baseline_date__v", "baseline_date"),
		ActualDate:          rec.Time("actual_date__v", "actual_date", "completion_date"),
		Progress:            progress,
		Assignee:            rec.String("assignee__v", "assignee", "owner__v"),
		Priority:            priority,
		Raw:                 datatypes.JSONMap(rec),
		RefreshedAt:         now,
	}, true
}
