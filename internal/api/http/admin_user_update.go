package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	authmw "github.com/mind-engage/elearn/internal/auth/middleware"
	syncx "github.com/mind-engage/elearn/internal/sync"
)

// PATCH /admin/users/{userID}/role/  {"role": "teacher"}; userID may be an id or a username.
func AdminUpdateUserRoleHandler(users *authmw.UserStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := chi.URLParam(r, "userID")
		var req struct {
			Role string `json:"role"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		u, err := users.SetRole(r.Context(), target, req.Role)
		if err != nil {
			authmw.WriteUserError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, u)
	}
}

// GET /admin/events/?since=&limit=
func AdminEventsHandler(events *syncx.EventRepo) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := events.Since(r.Context(), int64(parseIntDefault(q.Get("since"), 0)), parseIntDefault(q.Get("limit"), 100))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}
