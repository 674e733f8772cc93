package store

import (
	"context"
	"errors"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"
	"gorm.io/gorm"

	"trialdeck/internal/models"
	"trialdeck/pkg/db"
)

// ErrNotFound is returned when a lookup matches no row visible to the caller.
var ErrNotFound = errors.New("record not found")

// Store provides owner-scoped access to all persisted entities. The pgx pool
// serves reads and single-row upserts; the GORM handle serves model-level
// writes and the exclusive-activate transaction.
type Store struct {
	DB  *pgxpool.Pool
	ORM *gorm.DB
}

// New wires a Store from the shared database handles.
func New(pool *pgxpool.Pool, orm *gorm.DB) (*Store, error) {
	if pool == nil {
		return nil, errors.New("pgx pool is required")
	}
	if orm == nil {
		return nil, errors.New("gorm handle is required")
	}
	return &Store{DB: pool, ORM: orm}, nil
}

// UserByToken resolves the caller identity behind a bearer token.
func (s *Store) UserByToken(ctx context.Context, token string) (models.User, error) {
	var u models.User
	err := db.Get(ctx, s.DB, &u, `
        SELECT id, email, name, api_token, created_at, updated_at
        FROM users
        WHERE api_token = $1
    `, token)
	if pgxscan.NotFound(err) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, err
	}
	return u, nil
}
