package http

import (
	"net/http"
	"strings"

	"github.com/mind-engage/elearn/internal/course"
)

// GET /courses/?q=&author_id=&limit=&offset=
func ListPublicCoursesHandler(cat course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		list, err := cat.ListCourses(r.Context(), course.ListOpts{
			Q:        strings.TrimSpace(q.Get("q")),
			AuthorID: strings.TrimSpace(q.Get("author_id")),
			Limit:    parseIntDefault(q.Get("limit"), 50),
			Offset:   parseIntDefault(q.Get("offset"), 0),
		})
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

func GetPublicCourseHandler(cat course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "courseID")
		if !ok {
			return
		}
		c, err := cat.GetCourse(r.Context(), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, c)
	}
}

// POST /courses/{courseID}/enroll/  (idempotent)
func EnrollHandler(cat course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "courseID")
		if !ok {
			return
		}
		if err := cat.Enroll(r.Context(), id, subject(r)); err != nil {
			writeError(w, r, err)
			return
		}
		detail(w, http.StatusOK, "Enrolled.")
	}
}

func MyCoursesHandler(cat course.Catalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := cat.ListEnrolled(r.Context(), subject(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}
