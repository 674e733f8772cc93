package config

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"
)

// Config holds runtime configuration for the trialdeck service.
type Config struct {
	Addr           string        `env:"ADDR,default=:8080"`
	DBDSN          string        `env:"DB_DSN,required"`
	NATSURL        string        `env:"NATS_URL"`
	OTLPEndpoint   string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	AllowedOrigins []string      `env:"CORS_ALLOWED_ORIGINS,default=*"`
	RateLimit      int           `env:"RATE_LIMIT,default=100"`
	SessionTTL     time.Duration `env:"VEEVA_SESSION_TTL,default=8h"`
	RequestTimeout time.Duration `env:"UPSTREAM_REQUEST_TIMEOUT,default=30s"`

	// StudyObjectsFile optionally overrides the built-in list of candidate
	// Veeva study object names, one name per line of a YAML sequence.
	StudyObjectsFile string `env:"STUDY_OBJECTS_FILE"`
}

// Load returns a Config populated from environment variables.
func Load(ctx context.Context) (Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return Config{}, err
	}
	if cfg.RateLimit <= 0 {
		return Config{}, fmt.Errorf("RATE_LIMIT must be positive, got %d", cfg.RateLimit)
	}
	if cfg.SessionTTL <= 0 {
		return Config{}, fmt.Errorf("VEEVA_SESSION_TTL must be positive, got %s", cfg.SessionTTL)
	}
	return cfg, nil
}

// StudyObjects returns the candidate object names to probe, either the
// operator-supplied override file or nil to use the built-in defaults.
func (c Config) StudyObjects() ([]string, error) {
	if c.StudyObjectsFile == "" {
		return nil, nil
	}

	data, err := os.ReadFile(c.StudyObjectsFile)
	if err != nil {
		return nil, fmt.Errorf("read study objects file: %w", err)
	}
	return parseStudyObjects(data)
}

func parseStudyObjects(data []byte) ([]string, error) {
	var names []string
	if err := yaml.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse study objects file: %w", err)
	}

	out := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("study objects file contains no object names")
	}
	return out, nil
}
