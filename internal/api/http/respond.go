package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	authmw "github.com/mind-engage/elearn/internal/auth/middleware"
	"github.com/mind-engage/elearn/internal/course"
	"github.com/mind-engage/elearn/internal/practice"
	"github.com/mind-engage/elearn/internal/rbac"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func detail(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"detail": msg})
}

// writeError maps domain sentinels to status codes. Anything unknown is
// logged with the request id and reported as a 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, course.ErrNotFound):
		detail(w, http.StatusNotFound, err.Error())
	case errors.Is(err, practice.ErrForbidden):
		detail(w, http.StatusForbidden, err.Error())
	case errors.Is(err, course.ErrInvalidInput):
		detail(w, http.StatusBadRequest, err.Error())
	default:
		log.Printf("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
		detail(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		detail(w, http.StatusBadRequest, "bad json")
		return false
	}
	return true
}

// idParam reads a positive integer URL parameter. On failure it writes a 404
// and returns false.
func idParam(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		detail(w, http.StatusNotFound, fmt.Sprintf("not found: %s %q", name, chi.URLParam(r, name)))
		return 0, false
	}
	return id, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil && v >= 0 {
		return v
	}
	return def
}

func subject(r *http.Request) string { return authmw.SubjectFromContext(r.Context()) }

// authorScope is the author id authoring calls are scoped to; admins see every course.
func authorScope(r *http.Request) string {
	if rbac.RoleFromContext(r.Context()) == rbac.RoleAdmin {
		return ""
	}
	return subject(r)
}
