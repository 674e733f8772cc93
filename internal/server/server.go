package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trialdeck/internal/models"
	"trialdeck/internal/syncsvc"
	"trialdeck/pkg/bus"
)

const defaultSessionTTL = 8 * time.Hour

// Store is the persistence surface the HTTP layer consumes.
type Store interface {
	UserByToken(ctx context.Context, token string) (models.User, error)

	CreateConfiguration(ctx context.Context, cfg *models.Configuration) error
	ConfigurationByID(ctx context.Context, userID, id uuid.UUID) (models.Configuration, error)
	ConfigurationByConnection(ctx context.Context, userID uuid.UUID, veevaURL, username string) (models.Configuration, error)
	ListConfigurations(ctx context.Context, userID uuid.UUID) ([]models.Configuration, error)
	DeleteConfiguration(ctx context.Context, userID, id uuid.UUID) error
	ActivateExclusive(ctx context.Context, userID, id uuid.UUID) error
	Deactivate(ctx context.Context, userID, id uuid.UUID) error
	TouchLastSync(ctx context.Context, id uuid.UUID, at time.Time) error

	CreateSession(ctx context.Context, session *models.Session) error
	ListSessions(ctx context.Context, userID, configurationID uuid.UUID) ([]models.Session, error)

	ListStudies(ctx context.Context, userID, configurationID uuid.UUID) ([]models.Study, error)
	ListMilestones(ctx context.Context, userID, configurationID uuid.UUID, studyExternalID string) ([]models.Milestone, error)
}

// Authenticator exchanges vault credentials for a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, baseURL, username, password string) (string, error)
}

// Syncer runs one full data refresh for a configuration.
type Syncer interface {
	Run(ctx context.Context, userID, configurationID uuid.UUID) (syncsvc.Summary, error)
}

// Config controls runtime behaviour for the API handlers.
type Config struct {
	AllowedOrigins []string
	RateLimit      int
	SessionTTL     time.Duration
}

// API wires dependencies and configuration for the HTTP handlers.
type API struct {
	store  Store
	vault  Authenticator
	syncer Syncer
	bus    *bus.Bus
	config Config
	now    func() time.Time
}

// New initialises the API layer with sane defaults applied to the provided
// configuration. The bus may be nil; event publishing is then skipped.
func New(st Store, vault Authenticator, syncer Syncer, eventBus *bus.Bus, cfg Config) (*API, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if vault == nil {
		return nil, errors.New("vault authenticator is required")
	}
	if syncer == nil {
		return nil, errors.New("syncer is required")
	}

	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = defaultSessionTTL
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 100
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}

	return &API{
		store:  st,
		vault:  vault,
		syncer: syncer,
		bus:    eventBus,
		config: cfg,
		now:    time.Now,
	}, nil
}

// Routes constructs the chi router containing all API endpoints.
func (a *API) Routes() (http.Handler, error) {
	if a == nil {
		return nil, errors.New("nil api")
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(120 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   a.config.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           int((10 * time.Minute).Seconds()),
	}))

	r.Use(httprate.Limit(a.config.RateLimit, time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(a.requireUser)

			r.Post("/auth/veeva", a.handleVeevaAuth)
			r.Post("/sync", a.handleSync)

			r.Get("/me", a.handleMe)

			r.Route("/configurations", func(r chi.Router) {
				r.Get("/", a.handleListConfigurations)
				r.Post("/", a.handleCreateConfiguration)
				r.Route("/{configurationID}", func(r chi.Router) {
					r.Delete("/", a.handleDeleteConfiguration)
					r.Post("/activate", a.handleActivateConfiguration)
					r.Post("/deactivate", a.handleDeactivateConfiguration)
					r.Get("/sessions", a.handleListSessions)
					r.Get("/studies", a.handleListStudies)
					r.Get("/milestones", a.handleListMilestones)
				})
			})
		})
	})

	return r, nil
}
