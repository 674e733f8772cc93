package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"trialdeck/internal/models"
	"trialdeck/internal/store"
	"trialdeck/internal/veeva"
	"trialdeck/pkg/bus"
)

// handleVeevaAuth exchanges vault credentials for a session, persists it, and
// marks the matching configuration as the caller's active one.
func (a *API) handleVeevaAuth(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, errors.New("no caller identity"))
		return
	}

	var req struct {
		VeevaURL string `json:"veevaUrl"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	req.VeevaURL = strings.TrimRight(strings.TrimSpace(req.VeevaURL), "/")
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, errors.New("username and password are required"))
		return
	}
	if parsed, err := url.Parse(req.VeevaURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		respondError(w, http.StatusBadRequest, errors.New("veevaUrl must be an absolute URL"))
		return
	}

	token, err := a.vault.Authenticate(r.Context(), req.VeevaURL, req.Username, req.Password)
	if err != nil {
		var authErr *veeva.AuthError
		if errors.As(err, &authErr) {
			respondError(w, http.StatusUnauthorized, authErr)
			return
		}
		respondError(w, http.StatusBadRequest, err)
		return
	}

	cfg, err := a.store.ConfigurationByConnection(r.Context(), user.ID, req.VeevaURL, req.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, errors.New("no configuration found for this vault and username, create one first"))
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	session := models.Session{
		ConfigurationID: cfg.ID,
		Token:           token,
		ExpiresAt:       a.now().UTC().Add(a.config.SessionTTL),
		IsActive:        true,
	}
	if err := a.store.CreateSession(r.Context(), &session); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	if err := a.store.ActivateExclusive(r.Context(), user.ID, cfg.ID); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	// A fresh login also stamps the configuration's sync timestamp, matching
	// the upstream dashboard's "connected" indicator.
	if err := a.store.TouchLastSync(r.Context(), cfg.ID, a.now().UTC()); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	if err := a.bus.Publish(r.Context(), bus.SubjectSessionCreated, map[string]any{
		"configuration_id": cfg.ID,
		"session_id":       session.ID,
		"expires_at":       session.ExpiresAt,
	}); err != nil {
		log.Warn().Err(err).Msg("failed to publish session event")
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"sessionId": session.ID,
		"expiresAt": session.ExpiresAt.Format(time.RFC3339),
		"message":   "authenticated with Veeva",
	})
}
