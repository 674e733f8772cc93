package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"trialdeck/internal/models"
	"trialdeck/internal/store"
)

func (a *API) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, errors.New("no caller identity"))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"id":    user.ID,
		"email": user.Email,
		"name":  user.Name,
	})
}

func (a *API) handleListConfigurations(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, errors.New("no caller identity"))
		return
	}

	cfgs, err := a.store.ListConfigurations(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"configurations": cfgs})
}

func (a *API) handleCreateConfiguration(w http.ResponseWriter, r *http.Request) {
	user, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, errors.New("no caller identity"))
		return
	}

	var req struct {
		Name        string `json:"name"`
		Environment string `json:"environment"`
		VeevaURL    string `json:"veevaUrl"`
		Username    string `json:"username"`
	}
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Environment = strings.TrimSpace(req.Environment)
	req.VeevaURL = strings.TrimRight(strings.TrimSpace(req.VeevaURL), "/")
	req.Username = strings.TrimSpace(req.Username)
	if req.Name == "" || req.VeevaURL == "" || req.Username == "" {
		respondError(w, http.StatusBadRequest, errors.New("name, veevaUrl and username are required"))
		return
	}
	if parsed, err := url.Parse(req.VeevaURL); err != nil || parsed.Scheme == "" || parsed.Host == "" {
		respondError(w, http.StatusBadRequest, errors.New("veevaUrl must be an absolute URL"))
		return
	}
	if req.Environment == "" {
		req.Environment = "production"
	}

	cfg := models.Configuration{
		UserID:      user.ID,
		Name:        req.Name,
		Environment: req.Environment,
		VeevaURL:    req.VeevaURL,
		Username:    req.Username,
	}
	if err := a.store.CreateConfiguration(r.Context(), &cfg); err != nil {
		respondError(w, http.StatusConflict, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"configuration": cfg})
}

func (a *API) handleDeleteConfiguration(w http.ResponseWriter, r *http.Request) {
	user, configurationID, ok := a.ownedConfiguration(w, r)
	if !ok {
		return
	}

	if err := a.store.DeleteConfiguration(r.Context(), user.ID, configurationID); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) handleActivateConfiguration(w http.ResponseWriter, r *http.Request) {
	user, configurationID, ok := a.ownedConfiguration(w, r)
	if !ok {
		return
	}

	if err := a.store.ActivateExclusive(r.Context(), user.ID, configurationID); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (a *API) handleDeactivateConfiguration(w http.ResponseWriter, r *http.Request) {
	user, configurationID, ok := a.ownedConfiguration(w, r)
	if !ok {
		return
	}

	if err := a.store.Deactivate(r.Context(), user.ID, configurationID); err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

// ownedConfiguration pulls the caller and the configuration id path
// parameter; it writes the error response itself when either is missing.
func (a *API) ownedConfiguration(w http.ResponseWriter, r *http.Request) (models.User, uuid.UUID, bool) {
	user, ok := userFrom(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, errors.New("no caller identity"))
		return models.User{}, uuid.Nil, false
	}

	configurationID, err := uuid.Parse(chi.URLParam(r, "configurationID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid configuration id is required"))
		return models.User{}, uuid.Nil, false
	}
	return user, configurationID, true
}

func respondStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, errors.New("configuration not found"))
		return
	}
	respondError(w, http.StatusInternalServerError, err)
}
