package syncsvc

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"trialdeck/internal/metrics"
	"trialdeck/internal/models"
	"trialdeck/internal/store"
	"trialdeck/internal/veeva"
)

// ErrSessionExpired means no active, non-expired session exists for the
// configuration; the caller must authenticate again before syncing.
var ErrSessionExpired = errors.New("veeva session expired or missing, authenticate again")

// Store is the persistence surface the sync workflow consumes.
type Store interface {
	ConfigurationByID(ctx context.Context, userID, id uuid.UUID) (models.Configuration, error)
	LatestValidSession(ctx context.Context, configurationID uuid.UUID, now time.Time) (models.Session, error)
	UpsertStudy(ctx context.Context, study models.Study) error
	UpsertMilestones(ctx context.Context, milestones []models.Milestone) error
	TouchLastSync(ctx context.Context, id uuid.UUID, at time.Time) error
}

// Vault is the upstream CTMS surface the sync workflow consumes.
type Vault interface {
	ResolveStudyObject(ctx context.Context, baseURL, token string, candidates []string) (veeva.Resolution, error)
	FetchMilestones(ctx context.Context, baseURL, token, object, studyField, studyExternalID string) ([]veeva.Record, error)
}

// Summary reports aggregate counts for one sync run. Soft failures inside the
// run are logged and counted in metrics but not broken out per record here.
type Summary struct {
	Studies    int
	Milestones int
}

// Syncer refreshes the cached study and milestone snapshots of one
// configuration from its vault. Runs are sequential, non-resumable passes:
// hard preconditions (configuration, session, endpoint) abort the run, while
// individual fetch/upsert failures are swallowed so one bad record cannot
// block the rest of the batch.
type Syncer struct {
	store      Store
	vault      Vault
	candidates []string
	now        func() time.Time
}

// New constructs a Syncer. candidates overrides the probed study object
// names; nil keeps the built-in list.
func New(st Store, vault Vault, candidates []string) (*Syncer, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if vault == nil {
		return nil, errors.New("vault client is required")
	}
	return &Syncer{store: st, vault: vault, candidates: candidates, now: time.Now}, nil
}

// Run executes one full sync of the configuration, scoped to the caller.
func (s *Syncer) Run(ctx context.Context, userID, configurationID uuid.UUID) (Summary, error) {
	started := s.now()
	summary, err := s.run(ctx, userID, configurationID)
	metrics.SyncDuration.Observe(s.now().Sub(started).Seconds())
	metrics.SyncRuns.WithLabelValues(outcomeLabel(err)).Inc()
	return summary, err
}

func (s *Syncer) run(ctx context.Context, userID, configurationID uuid.UUID) (Summary, error) {
	cfg, err := s.store.ConfigurationByID(ctx, userID, configurationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Summary{}, fmt.Errorf("configuration %s: %w", configurationID, store.ErrNotFound)
		}
		return Summary{}, err
	}

	now := s.now().UTC()

	session, err := s.store.LatestValidSession(ctx, cfg.ID, now)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return Summary{}, ErrSessionExpired
		}
		return Summary{}, err
	}

	resolution, err := s.vault.ResolveStudyObject(ctx, cfg.VeevaURL, session.Token, s.candidates)
	if err != nil {
		return Summary{}, err
	}

	logger := log.With().
		Stringer("configuration_id", cfg.ID).
		Str("study_object", resolution.Object).
		Logger()

	studies := make([]models.Study, 0, len(resolution.Records))
	for _, rec := range resolution.Records {
		study, ok := studyFromRecord(cfg.ID, rec, now)
		if !ok {
			logger.Warn().Msg("skipping study record without an external id")
			continue
		}
		studies = append(studies, study)
	}

	for _, study := range studies {
		if err := s.store.UpsertStudy(ctx, study); err != nil {
			metrics.UpsertFailures.WithLabelValues("study").Inc()
			logger.Error().Err(err).Str("study_id", study.ExternalID).Msg("study upsert failed")
		}
	}

	milestones := s.collectMilestones(ctx, logger, cfg, session.Token, resolution.Object, studies, now)

	if err := s.store.UpsertMilestones(ctx, milestones); err != nil {
		metrics.UpsertFailures.WithLabelValues("milestone").Inc()
		logger.Error().Err(err).Int("count", len(milestones)).Msg("milestone upsert failed")
	}

	if err := s.store.TouchLastSync(ctx, cfg.ID, now); err != nil {
		logger.Error().Err(err).Msg("failed to stamp last sync time")
	}

	logger.Info().
		Int("studies", len(studies)).
		Int("milestones", len(milestones)).
		Msg("sync completed")

	return Summary{Studies: len(studies), Milestones: len(milestones)}, nil
}

// milestoneKey is the conflict target of the milestone batch upsert within
// one configuration.
type milestoneKey struct {
	study string
	site  string
	title string
}

// collectMilestones fetches study- and site-level milestones per study,
// sequentially. A failed fetch means zero milestones for that study/kind.
// Rows sharing the upsert key overwrite earlier ones; Postgres rejects a
// multi-row ON CONFLICT statement that touches the same tuple twice, and
// last-wins is how repeated syncs resolve the collision anyway.
func (s *Syncer) collectMilestones(ctx context.Context, logger zerolog.Logger, cfg models.Configuration, token, studyObject string, studies []models.Study, now time.Time) []models.Milestone {
	studyMilestoneObject, siteMilestoneObject, studyField := veeva.MilestoneObjects(studyObject)

	var milestones []models.Milestone
	index := make(map[milestoneKey]int)
	for _, study := range studies {
		for _, fetch := range []struct {
			object string
			kind   string
		}{
			{object: studyMilestoneObject, kind: models.MilestoneKindStudy},
			{object: siteMilestoneObject, kind: models.MilestoneKindSite},
		} {
			records, err := s.vault.FetchMilestones(ctx, cfg.VeevaURL, token, fetch.object, studyField, study.ExternalID)
			if err != nil {
				metrics.MilestoneFetchFailures.WithLabelValues(fetch.kind).Inc()
				logger.Warn().Err(err).
					Str("study_id", study.ExternalID).
					Str("kind", fetch.kind).
					Msg("milestone fetch failed, treating as empty")
				continue
			}
			for _, rec := range records {
				milestone, ok := milestoneFromRecord(cfg.ID, study.ExternalID, fetch.kind, rec, now)
				if !ok {
					logger.Warn().Str("study_id", study.ExternalID).Msg("skipping milestone record without a title")
					continue
				}
				key := milestoneKey{study: milestone.StudyExternalID, site: milestone.SiteID, title: milestone.Title}
				if i, seen := index[key]; seen {
					milestones[i] = milestone
					continue
				}
				index[key] = len(milestones)
				milestones = append(milestones, milestone)
			}
		}
	}
	return milestones
}

func outcomeLabel(err error) string {
	var endpointErr *veeva.EndpointNotFoundError
	var upstreamErr *veeva.UpstreamError
	switch {
	case err == nil:
		return "succeeded"
	case errors.Is(err, ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, store.ErrNotFound):
		return "not_found"
	case errors.As(err, &endpointErr):
		return "endpoint_not_found"
	case errors.As(err, &upstreamErr):
		return "upstream_error"
	default:
		return "error"
	}
}
