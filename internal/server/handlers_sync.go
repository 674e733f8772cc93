package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"trialdeck/internal/store"
	"trialdeck/internal/syncsvc"
	"trialdeck/internal/veeva"
	"trialdeck/pkg/bus"
)

// handleSync refreshes all cached study and milestone data for one
// configuration. Hard precondition failures map to 4xx responses; soft
// failures inside the run only show up in the aggregate counts.
func (a *API) handleSync(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, errors.New("no caller identity"))
		return
	}

	var req struct {
		ConfigurationID string `json:"configurationId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	configurationID, err := uuid.Parse(req.ConfigurationID)
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid configurationId is required"))
		return
	}

	summary, err := a.syncer.Run(r.Context(), user.ID, configurationID)
	if err != nil {
		respondError(w, syncStatus(err), err)
		return
	}

	if err := a.bus.Publish(r.Context(), bus.SubjectSyncCompleted, map[string]any{
		"configuration_id": configurationID,
		"studies":          summary.Studies,
		"milestones":       summary.Milestones,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to publish sync event")
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"studiesCount":    summary.Studies,
		"milestonesCount": summary.Milestones,
		"message":         fmt.Sprintf("synced %d studies and %d milestones", summary.Studies, summary.Milestones),
	})
}

func syncStatus(err error) int {
	var endpointErr *veeva.EndpointNotFoundError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, syncsvc.ErrSessionExpired):
		return http.StatusUnauthorized
	case errors.As(err, &endpointErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
