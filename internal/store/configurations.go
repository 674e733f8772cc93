package store

import (
	"context"
	"errors"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"trialdeck/internal/models"
	"trialdeck/pkg/db"
)

const configurationColumns = `
        id, user_id, name, environment, veeva_url, username,
        is_active, last_sync_at, created_at, updated_at`

// CreateConfiguration inserts a new connection profile for its owner.
func (s *Store) CreateConfiguration(ctx context.Context, cfg *models.Configuration) error {
	return s.ORM.WithContext(ctx).Create(cfg).Error
}

// ConfigurationByID fetches one configuration scoped to the owning user.
func (s *Store) ConfigurationByID(ctx context.Context, userID, id uuid.UUID) (models.Configuration, error) {
	var cfg models.Configuration
	err := db.Get(ctx, s.DB, &cfg, `
        SELECT`+configurationColumns+`
        FROM configurations
        WHERE id = $1 AND user_id = $2
    `, id, userID)
	if pgxscan.NotFound(err) {
		return models.Configuration{}, ErrNotFound
	}
	if err != nil {
		return models.Configuration{}, err
	}
	return cfg, nil
}

// ConfigurationByConnection locates the owner's configuration matching the
// vault URL and username used during authentication.
func (s *Store) ConfigurationByConnection(ctx context.Context, userID uuid.UUID, veevaURL, username string) (models.Configuration, error) {
	var cfg models.Configuration
	err := db.Get(ctx, s.DB, &cfg, `
        SELECT`+configurationColumns+`
        FROM configurations
        WHERE user_id = $1 AND veeva_url = $2 AND username = $3
        ORDER BY created_at DESC
        LIMIT 1
    `, userID, veevaURL, username)
	if pgxscan.NotFound(err) {
		return models.Configuration{}, ErrNotFound
	}
	if err != nil {
		return models.Configuration{}, err
	}
	return cfg, nil
}

// ListConfigurations returns the owner's configurations, newest first.
func (s *Store) ListConfigurations(ctx context.Context, userID uuid.UUID) ([]models.Configuration, error) {
	var cfgs []models.Configuration
	err := db.Select(ctx, s.DB, &cfgs, `
        SELECT`+configurationColumns+`
        FROM configurations
        WHERE user_id = $1
        ORDER BY created_at DESC
    `, userID)
	if err != nil {
		return nil, err
	}
	return cfgs, nil
}

// DeleteConfiguration removes the configuration and, through the cascade
// constraints, its sessions and cached studies/milestones.
func (s *Store) DeleteConfiguration(ctx context.Context, userID, id uuid.UUID) error {
	res := s.ORM.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Configuration{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// ActivateExclusive marks one configuration active and clears the flag on all
// of the owner's others inside a single transaction, so no interleaving can
// observe two active rows.
func (s *Store) ActivateExclusive(ctx context.Context, userID, id uuid.UUID) error {
	return s.ORM.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cfg models.Configuration
		if err := tx.Where("id = ? AND user_id = ?", id, userID).First(&cfg).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}

		if err := tx.Model(&models.Configuration{}).
			Where("user_id = ? AND id <> ? AND is_active", userID, id).
			Update("is_active", false).Error; err != nil {
			return err
		}

		return tx.Model(&models.Configuration{}).
			Where("id = ?", id).
			Update("is_active", true).Error
	})
}

// Deactivate clears the active flag on one owned configuration.
func (s *Store) Deactivate(ctx context.Context, userID, id uuid.UUID) error {
	res := s.ORM.WithContext(ctx).Model(&models.Configuration{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastSync stamps the configuration's sync timestamp. Called after a
// fresh login and unconditionally at the end of a sync run, even after soft
// failures.
func (s *Store) TouchLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	return s.ORM.WithContext(ctx).Model(&models.Configuration{}).
		Where("id = ?", id).
		Updates(map[string]any{"last_sync_at": at, "updated_at": at}).Error
}
