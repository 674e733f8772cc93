package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm/clause"

	"trialdeck/internal/models"
	"trialdeck/pkg/db"
)

// UpsertStudy replaces the cached snapshot of one study, keyed by
// (configuration, external id).
func (s *Store) UpsertStudy(ctx context.Context, study models.Study) error {
	raw, err := json.Marshal(study.Raw)
	if err != nil {
		return fmt.Errorf("marshal raw payload: %w", err)
	}

	id := study.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	query := `
        INSERT INTO studies (id, configuration_id, external_id, name, phase, status, raw, refreshed_at, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7::jsonb, $8, $8, $8)
        ON CONFLICT (configuration_id, external_id) DO UPDATE SET
            name = EXCLUDED.name,
            phase = EXCLUDED.phase,
            status = EXCLUDED.status,
            raw = EXCLUDED.raw,
            refreshed_at = EXCLUDED.refreshed_at,
            updated_at = EXCLUDED.updated_at;
    `

	_, err = db.Exec(ctx, s.DB, query,
		id, study.ConfigurationID, study.ExternalID,
		study.Name, study.Phase, study.Status,
		string(raw), study.RefreshedAt)
	return err
}

// UpsertMilestones replaces the cached milestone snapshots in one batch,
// keyed by (configuration, study id, site id, title).
func (s *Store) UpsertMilestones(ctx context.Context, milestones []models.Milestone) error {
	if len(milestones) == 0 {
		return nil
	}

	return s.ORM.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "configuration_id"},
			{Name: "study_external_id"},
			{Name: "site_id"},
			{Name: "title"},
		},
		DoUpdates: clause.AssignmentColumns([]string{
			"kind", "status",
			"original_planned_date", "current_planned_date", "baseline_date", "actual_date",
			"progress", "assignee", "priority",
			"raw", "refreshed_at", "updated_at",
		}),
	}).Create(&milestones).Error
}

// ListStudies returns the cached studies of one owned configuration.
func (s *Store) ListStudies(ctx context.Context, userID, configurationID uuid.UUID) ([]models.Study, error) {
	var studies []models.Study
	err := db.Select(ctx, s.DB, &studies, `
        SELECT st.id, st.configuration_id, st.external_id, st.name, st.phase, st.status,
               st.raw, st.refreshed_at, st.created_at, st.updated_at
        FROM studies st
        JOIN configurations c ON c.id = st.configuration_id
        WHERE st.configuration_id = $1 AND c.user_id = $2
        ORDER BY st.external_id
    `, configurationID, userID)
	if err != nil {
		return nil, err
	}
	return studies, nil
}

// ListMilestones returns the cached milestones of one owned configuration,
// optionally filtered to a single study.
func (s *Store) ListMilestones(ctx context.Context, userID, configurationID uuid.UUID, studyExternalID string) ([]models.Milestone, error) {
	query := `
        SELECT m.id, m.configuration_id, m.study_external_id, m.site_id, m.kind, m.title, m.status,
               m.original_planned_date, m.current_planned_date, m.baseline_date, m.actual_date,
               m.progress, m.assignee, m.priority, m.raw, m.refreshed_at, m.created_at, m.updated_at
        FROM milestones m
        JOIN configurations c ON c.id = m.configuration_id
        WHERE m.configuration_id = $1 AND c.user_id = $2`
	args := []any{configurationID, userID}
	if studyExternalID != "" {
		query += ` AND m.study_external_id = $3`
		args = append(args, studyExternalID)
	}
	query += ` ORDER BY m.study_external_id, m.title`

	var milestones []models.Milestone
	if err := db.Select(ctx, s.DB, &milestones, query, args...); err != nil {
		return nil, err
	}
	return milestones, nil
}
