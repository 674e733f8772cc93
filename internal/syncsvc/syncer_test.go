package syncsvc

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trialdeck/internal/models"
	"trialdeck/internal/store"
	"trialdeck/internal/veeva"
)

type fakeStore struct {
	cfg        models.Configuration
	cfgErr     error
	session    models.Session
	sessionErr error

	studyUpsertErr     error
	milestoneUpsertErr error

	studies    []models.Study
	milestones []models.Milestone
	lastSync   *time.Time
}

func (f *fakeStore) ConfigurationByID(_ context.Context, userID, id uuid.UUID) (models.Configuration, error) {
	if f.cfgErr != nil {
		return models.Configuration{}, f.cfgErr
	}
	if f.cfg.UserID != userID || f.cfg.ID != id {
		return models.Configuration{}, store.ErrNotFound
	}
	return f.cfg, nil
}

func (f *fakeStore) LatestValidSession(_ context.Context, _ uuid.UUID, _ time.Time) (models.Session, error) {
	if f.sessionErr != nil {
		return models.Session{}, f.sessionErr
	}
	return f.session, nil
}

func (f *fakeStore) UpsertStudy(_ context.Context, study models.Study) error {
	if f.studyUpsertErr != nil {
		return f.studyUpsertErr
	}
	f.studies = append(f.studies, study)
	return nil
}

func (f *fakeStore) UpsertMilestones(_ context.Context, milestones []models.Milestone) error {
	if f.milestoneUpsertErr != nil {
		return f.milestoneUpsertErr
	}
	f.milestones = append(f.milestones, milestones...)
	return nil
}

func (f *fakeStore) TouchLastSync(_ context.Context, _ uuid.UUID, at time.Time) error {
	f.lastSync = &at
	return nil
}

type fakeVault struct {
	resolution veeva.Resolution
	resolveErr error

	// milestone records keyed by object + "/" + study external id
	milestoneRecords map[string][]veeva.Record
	milestoneErrs    map[string]error
}

func (f *fakeVault) ResolveStudyObject(_ context.Context, _, _ string, _ []string) (veeva.Resolution, error) {
	if f.resolveErr != nil {
		return veeva.Resolution{}, f.resolveErr
	}
	return f.resolution, nil
}

func (f *fakeVault) FetchMilestones(_ context.Context, _, _, object, _, studyExternalID string) ([]veeva.Record, error) {
	key := object + "/" + studyExternalID
	if err, ok := f.milestoneErrs[key]; ok {
		return nil, err
	}
	return f.milestoneRecords[key], nil
}

func testConfiguration() models.Configuration {
	return models.Configuration{
		ID:       uuid.New(),
		UserID:   uuid.New(),
		VeevaURL: "https://vault.example.com/api/v24.1",
		Username: "alice@example.com",
	}
}

func validSession(cfg models.Configuration) models.Session {
	return models.Session{
		ID:              uuid.New(),
		ConfigurationID: cfg.ID,
		Token:           "vault-token",
		ExpiresAt:       time.Now().Add(time.Hour),
		IsActive:        true,
	}
}

func TestRunHappyPath(t *testing.T) {
	cfg := testConfiguration()
	st := &fakeStore{cfg: cfg, session: validSession(cfg)}
	vault := &fakeVault{
		resolution: veeva.Resolution{
			Object: "study__v",
			Records: []veeva.Record{
				{"id": "S1", "name__v": "Trial One", "study_phase__v": "Phase III", "status__v": "active"},
				{"id": "S2", "name__v": "Trial Two"},
			},
		},
		milestoneRecords: map[string][]veeva.Record{
			"study_milestone__v/S1": {
				{"name__v": "Database Lock", "progress__v": float64(75), "priority__v": "High"},
			},
		},
	}

	syncer, err := New(st, vault, nil)
	require.NoError(t, err)

	summary, err := syncer.Run(context.Background(), cfg.UserID, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, Summary{Studies: 2, Milestones: 1}, summary)

	require.Len(t, st.studies, 2)
	assert.Equal(t, "S1", st.studies[0].ExternalID)
	assert.Equal(t, "Trial One", st.studies[0].Name)
	assert.Equal(t, "Phase III", st.studies[0].Phase)
	assert.Equal(t, cfg.ID, st.studies[0].ConfigurationID)
	assert.NotNil(t, st.studies[0].Raw)

	require.Len(t, st.milestones, 1)
	m := st.milestones[0]
	assert.Equal(t, "Database Lock", m.Title)
	assert.Equal(t, models.MilestoneKindStudy, m.Kind)
	assert.Equal(t, 75, m.Progress)
	assert.Equal(t, "high", m.Priority)
	assert.Equal(t, "S1", m.StudyExternalID)
	assert.Empty(t, m.SiteID)

	require.NotNil(t, st.lastSync)
}

func TestRunMilestoneFetchFailureIsSoft(t *testing.T) {
	cfg := testConfiguration()
	st := &fakeStore{cfg: cfg, session: validSession(cfg)}
	vault := &fakeVault{
		resolution: veeva.Resolution{
			Object:  "study__v",
			Records: []veeva.Record{{"id": "S1"}, {"id": "S2"}},
		},
		milestoneRecords: map[string][]veeva.Record{
			"study_milestone__v/S1": {{"name__v": "Database Lock", "progress__v": float64(75)}},
		},
		milestoneErrs: map[string]error{
			"study_milestone__v/S2": &veeva.UpstreamError{Status: 500, Body: "boom"},
		},
	}

	syncer, err := New(st, vault, nil)
	require.NoError(t, err)

	summary, err := syncer.Run(context.Background(), cfg.UserID, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, Summary{Studies: 2, Milestones: 1}, summary)
	require.NotNil(t, st.lastSync)
}

func TestRunSessionExpired(t *testing.T) {
	cfg := testConfiguration()
	st := &fakeStore{cfg: cfg, sessionErr: store.ErrNotFound}

	syncer, err := New(st, &fakeVault{}, nil)
	require.NoError(t, err)

	_, err = syncer.Run(context.Background(), cfg.UserID, cfg.ID)
	require.ErrorIs(t, err, ErrSessionExpired)
	assert.Empty(t, st.studies)
	assert.Empty(t, st.milestones)
	assert.Nil(t, st.lastSync)
}

func TestRunConfigurationNotFound(t *testing.T) {
	cfg := testConfiguration()
	st := &fakeStore{cfg: cfg}

	syncer, err := New(st, &fakeVault{}, nil)
	require.NoError(t, err)

	_, err = syncer.Run(context.Background(), uuid.New(), cfg.ID)
	require.ErrorIs(t, err, store.ErrNotFound)
	assert.Nil(t, st.lastSync)
}

func TestRunEndpointNotFound(t *testing.T) {
	cfg := testConfiguration()
	st := &fakeStore{cfg: cfg, session: validSession(cfg)}
	vault := &fakeVault{
		resolveErr: &veeva.EndpointNotFoundError{Tried: veeva.DefaultStudyObjects},
	}

	syncer, err := New(st, vault, nil)
	require.NoError(t, err)

	_, err = syncer.Run(context.Background(), cfg.UserID, cfg.ID)
	var notFound *veeva.EndpointNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Empty(t, st.studies)
	assert.Nil(t, st.lastSync)
}

func TestRunStudyUpsertFailureIsSoft(t *testing.T) {
	cfg := testConfiguration()
	st := &fakeStore{
		cfg:            cfg,
		session:        validSession(cfg),
		studyUpsertErr: errors.New("constraint violation"),
	}
	vault := &fakeVault{
		resolution: veeva.Resolution{
			Object:  "study__v",
			Records: []veeva.Record{{"id": "S1"}},
		},
		milestoneRecords: map[string][]veeva.Record{
			"study_milestone__v/S1": {{"name__v": "First Patient In"}},
		},
	}

	syncer, err := New(st, vault, nil)
	require.NoError(t, err)

	summary, err := syncer.Run(context.Background(), cfg.UserID, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, Summary{Studies: 1, Milestones: 1}, summary)
	require.NotNil(t, st.lastSync)
}

func TestRunMilestoneDefaults(t *testing.T) {
	cfg := testConfiguration()
	st := &fakeStore{cfg: cfg, session: validSession(cfg)}
	vault := &fakeVault{
		resolution: veeva.Resolution{
			Object:  "study__v",
			Records: []veeva.Record{{"id": "S1"}},
		},
		milestoneRecords: map[string][]veeva.Record{
			"study_milestone__v/S1": {{"name__v": "Site Initiation"}},
			"site_milestone__v/S1": {
				{"name__v": "Site Activation", "site__v": "SITE-01", "progress__v": float64(120)},
			},
		},
	}

	syncer, err := New(st, vault, nil)
	require.NoError(t, err)

	summary, err := syncer.Run(context.Background(), cfg.UserID, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, Summary{Studies: 1, Milestones: 2}, summary)

	require.Len(t, st.milestones, 2)
	study := st.milestones[0]
	assert.Equal(t, 0, study.Progress)
	assert.Equal(t, models.DefaultMilestonePriority, study.Priority)
	assert.Empty(t, study.SiteID)

	site := st.milestones[1]
	assert.Equal(t, models.MilestoneKindSite, site.Kind)
	assert.Equal(t, "SITE-01", site.SiteID)
	assert.Equal(t, 100, site.Progress)
}

func TestRunCollidingMilestoneTitlesLastWins(t *testing.T) {
	cfg := testConfiguration()
	st := &fakeStore{cfg: cfg, session: validSession(cfg)}
	// A site-level record without a site id lands on the same
	// (study, site, title) tuple as the study-level one.
	vault := &fakeVault{
		resolution: veeva.Resolution{
			Object:  "study__v",
			Records: []veeva.Record{{"id": "S1"}},
		},
		milestoneRecords: map[string][]veeva.Record{
			"study_milestone__v/S1": {{"name__v": "Database Lock", "progress__v": float64(40)}},
			"site_milestone__v/S1":  {{"name__v": "Database Lock", "progress__v": float64(75)}},
		},
	}

	syncer, err := New(st, vault, nil)
	require.NoError(t, err)

	summary, err := syncer.Run(context.Background(), cfg.UserID, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, Summary{Studies: 1, Milestones: 1}, summary)

	require.Len(t, st.milestones, 1)
	m := st.milestones[0]
	assert.Equal(t, models.MilestoneKindSite, m.Kind)
	assert.Equal(t, 75, m.Progress)
	assert.Empty(t, m.SiteID)
}

func TestRunIsRepeatable(t *testing.T) {
	cfg := testConfiguration()
	st := &fakeStore{cfg: cfg, session: validSession(cfg)}
	vault := &fakeVault{
		resolution: veeva.Resolution{
			Object:  "study__v",
			Records: []veeva.Record{{"id": "S1"}, {"id": "S2"}},
		},
		milestoneRecords: map[string][]veeva.Record{
			"study_milestone__v/S1": {{"name__v": "Database Lock"}},
		},
	}

	syncer, err := New(st, vault, nil)
	require.NoError(t, err)

	first, err := syncer.Run(context.Background(), cfg.UserID, cfg.ID)
	require.NoError(t, err)
	second, err := syncer.Run(context.Background(), cfg.UserID, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRunSkipsUnkeyableRecords(t *testing.T) {
	cfg := testConfiguration()
	st := &fakeStore{cfg: cfg, session: validSession(cfg)}
	vault := &fakeVault{
		resolution: veeva.Resolution{
			Object: "study__v",
			Records: []veeva.Record{
				{"name__v": "No external id"},
				{"id": "S1"},
			},
		},
		milestoneRecords: map[string][]veeva.Record{
			"study_milestone__v/S1": {
				{"status__v": "untitled record"},
				{"name__v": "Database Lock"},
			},
		},
	}

	syncer, err := New(st, vault, nil)
	require.NoError(t, err)

	summary, err := syncer.Run(context.Background(), cfg.UserID, cfg.ID)
	require.NoError(t, err)
	assert.Equal(t, Summary{Studies: 1, Milestones: 1}, summary)
}
