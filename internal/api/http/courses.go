package http

import (
	"net/http"

	"github.com/mind-engage/elearn/internal/course"
)

// Handlers only; routes are mounted in cmd/gateway.

func ListAuthoredCoursesHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list, err := store.ListAuthored(r.Context(), authorScope(r))
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, list)
	}
}

// POST /teacher/courses/ accepts the whole modules/topics/questions/options tree.
func CreateCourseHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in course.CourseInput
		if !decodeJSON(w, r, &in) {
			return
		}
		c, err := store.CreateCourse(r.Context(), subject(r), in)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, c)
	}
}

func GetAuthoredCourseHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "courseID")
		if !ok {
			return
		}
		c, err := store.GetCourseTree(r.Context(), authorScope(r), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, c)
	}
}

func UpdateCourseHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "courseID")
		if !ok {
			return
		}
		var p course.CoursePatch
		if !decodeJSON(w, r, &p) {
			return
		}
		c, err := store.UpdateCourse(r.Context(), authorScope(r), id, p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, c)
	}
}

func DeleteCourseHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "courseID")
		if !ok {
			return
		}
		if err := store.DeleteCourse(r.Context(), authorScope(r), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
