package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"trialdeck/internal/models"
)

type contextKey string

const userContextKey contextKey = "trialdeck.user"

// requireUser resolves the caller from the bearer token and stores the user
// on the request context. Every data and workflow route sits behind it.
func (a *API) requireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, errors.New("missing bearer token"))
			return
		}

		user, err := a.store.UserByToken(r.Context(), token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, errors.New("invalid bearer token"))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey, user)))
	})
}

func userFrom(ctx context.Context) (models.User, bool) {
	user, ok := ctx.Value(userContextKey).(models.User)
	return user, ok
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return strings.TrimSpace(header[len("bearer "):])
	}
	return header
}
