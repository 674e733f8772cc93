package store

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"trialdeck/internal/models"
	"trialdeck/pkg/db"
)

// CreateSession inserts a new vault session row. Sessions are never updated;
// newer logins supersede older rows.
func (s *Store) CreateSession(ctx context.Context, session *models.Session) error {
	return s.ORM.WithContext(ctx).Create(session).Error
}

// LatestValidSession returns the newest active, non-expired session for a
// configuration. Ordering by creation time and taking the most recent row is
// the authoritative policy; older valid sessions are ignored, not errors.
func (s *Store) LatestValidSession(ctx context.Context, configurationID uuid.UUID, now time.Time) (models.Session, error) {
	var session models.Session
	err := db.Get(ctx, s.DB, &session, `
        SELECT id, configuration_id, token, expires_at, is_active, created_at
        FROM sessions
        WHERE configuration_id = $1 AND is_active AND expires_at > $2
        ORDER BY created_at DESC
        LIMIT 1
    `, configurationID, now)
	if pgxscan.NotFound(err) {
		return models.Session{}, ErrNotFound
	}
	if err != nil {
		return models.Session{}, err
	}
	return session, nil
}

// ListSessions returns the sessions of one owned configuration, newest first.
func (s *Store) ListSessions(ctx context.Context, userID, configurationID uuid.UUID) ([]models.Session, error) {
	var sessions []models.Session
	err := db.Select(ctx, s.DB, &sessions, `
        SELECT s.id, s.configuration_id, s.token, s.expires_at, s.is_active, s.created_at
        FROM sessions s
        JOIN configurations c ON c.id = s.configuration_id
        WHERE s.configuration_id = $1 AND c.user_id = $2
        ORDER BY s.created_at DESC
    `, configurationID, userID)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
