package server

import (
	"net/http"
)

func (a *API) handleListStudies(w http.ResponseWriter, r *http.Request) {
	user, configurationID, ok := a.ownedConfiguration(w, r)
	if !ok {
		return
	}

	studies, err := a.store.ListStudies(r.Context(), user.ID, configurationID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"studies": studies})
}

func (a *API) handleListMilestones(w http.ResponseWriter, r *http.Request) {
	user, configurationID, ok := a.ownedConfiguration(w, r)
	if !ok {
		return
	}

	studyID := r.URL.Query().Get("study_id")
	milestones, err := a.store.ListMilestones(r.Context(), user.ID, configurationID, studyID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"milestones": milestones})
}

// handleListSessions lists a configuration's sessions with tokens redacted;
// the dashboard only needs validity windows.
func (a *API) handleListSessions(w http.ResponseWriter, r *http.Request) {
	user, configurationID, ok := a.ownedConfiguration(w, r)
	if !ok {
		return
	}

	sessions, err := a.store.ListSessions(r.Context(), user.ID, configurationID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	now := a.now()
	out := make([]map[string]any, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, map[string]any{
			"id":         s.ID,
			"expires_at": s.ExpiresAt,
			"is_active":  s.IsActive,
			"valid":      s.Valid(now),
			"created_at": s.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"sessions": out})
}
