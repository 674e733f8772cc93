package store

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialdeck/internal/models"
	"trialdeck/pkg/db"
)

// openTestStore connects to the database named by TEST_DB_DSN and runs the
// migrations. Tests using it are skipped when the variable is unset.
func openTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()
	pool, err := db.Open(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))

	orm, err := db.OpenORM(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.CloseORM(orm) })

	st, err := New(pool, orm)
	require.NoError(t, err)
	return st
}

func createTestUser(t *testing.T, st *Store) models.User {
	t.Helper()

	user := models.User{
		Email:    fmt.Sprintf("owner-%s@example.com", uuid.NewString()),
		Name:     "Owner",
		APIToken: uuid.NewString(),
	}
	require.NoError(t, st.ORM.Create(&user).Error)
	// Cascades clean up the user's configurations, sessions and cached rows.
	t.Cleanup(func() { st.ORM.Delete(&models.User{}, "id = ?", user.ID) })
	return user
}

func createTestConfiguration(t *testing.T, st *Store, userID uuid.UUID, name string) models.Configuration {
	t.Helper()

	cfg := models.Configuration{
		UserID:      userID,
		Name:        name,
		Environment: "test",
		VeevaURL:    fmt.Sprintf("https://%s.example.com/api/v24.1", uuid.NewString()),
		Username:    "owner@example.com",
	}
	require.NoError(t, st.CreateConfiguration(context.Background(), &cfg))
	return cfg
}

func TestActivateExclusive(t *testing.T) {
	st := openTestStore(t)
	user := createTestUser(t, st)
	ctx := context.Background()

	cfgs := []models.Configuration{
		createTestConfiguration(t, st, user.ID, "vault a"),
		createTestConfiguration(t, st, user.ID, "vault b"),
		createTestConfiguration(t, st, user.ID, "vault c"),
	}

	activeIDs := func() []uuid.UUID {
		listed, err := st.ListConfigurations(ctx, user.ID)
		require.NoError(t, err)
		var out []uuid.UUID
		for _, cfg := range listed {
			if cfg.IsActive {
				out = append(out, cfg.ID)
			}
		}
		return out
	}

	require.NoError(t, st.ActivateExclusive(ctx, user.ID, cfgs[0].ID))
	assert.Equal(t, []uuid.UUID{cfgs[0].ID}, activeIDs())

	// switching clears the previous one in the same transaction
	require.NoError(t, st.ActivateExclusive(ctx, user.ID, cfgs[2].ID))
	assert.Equal(t, []uuid.UUID{cfgs[2].ID}, activeIDs())

	// re-activating the current one is a no-op for the rest
	require.NoError(t, st.ActivateExclusive(ctx, user.ID, cfgs[2].ID))
	assert.Equal(t, []uuid.UUID{cfgs[2].ID}, activeIDs())

	require.NoError(t, st.Deactivate(ctx, user.ID, cfgs[2].ID))
	assert.Empty(t, activeIDs())

	// a caller who does not own the configuration cannot activate it
	require.ErrorIs(t, st.ActivateExclusive(ctx, uuid.New(), cfgs[0].ID), ErrNotFound)
	assert.Empty(t, activeIDs())
}

func TestTouchLastSync(t *testing.T) {
	st := openTestStore(t)
	user := createTestUser(t, st)
	ctx := context.Background()

	cfg := createTestConfiguration(t, st, user.ID, "vault")
	require.Nil(t, cfg.LastSyncAt)

	stamped, err := st.ConfigurationByID(ctx, user.ID, cfg.ID)
	require.NoError(t, err)
	require.Nil(t, stamped.LastSyncAt)

	at := stamped.CreatedAt
	require.NoError(t, st.TouchLastSync(ctx, cfg.ID, at))

	stamped, err = st.ConfigurationByID(ctx, user.ID, cfg.ID)
	require.NoError(t, err)
	require.NotNil(t, stamped.LastSyncAt)
	assert.WithinDuration(t, at, *stamped.LastSyncAt, time.Microsecond)
}
