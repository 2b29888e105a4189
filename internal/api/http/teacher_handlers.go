package http

import (
	"net/http"

	"github.com/mind-engage/elearn/internal/course"
)

// ---- modules ----

func CreateModuleHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			CourseID int64 `json:"course_id"`
			course.ModuleInput
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		m, err := store.CreateModule(r.Context(), authorScope(r), req.CourseID, req.ModuleInput)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, m)
	}
}

func UpdateModuleHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "moduleID")
		if !ok {
			return
		}
		var p course.ModulePatch
		if !decodeJSON(w, r, &p) {
			return
		}
		m, err := store.UpdateModule(r.Context(), authorScope(r), id, p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, m)
	}
}

func DeleteModuleHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "moduleID")
		if !ok {
			return
		}
		if err := store.DeleteModule(r.Context(), authorScope(r), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ---- topics ----

func CreateTopicHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ModuleID int64 `json:"module_id"`
			course.TopicInput
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		t, err := store.CreateTopic(r.Context(), authorScope(r), req.ModuleID, req.TopicInput)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, t)
	}
}

func GetAuthoredTopicHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "topicID")
		if !ok {
			return
		}
		t, err := store.GetAuthoredTopic(r.Context(), authorScope(r), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, t)
	}
}

func UpdateTopicHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "topicID")
		if !ok {
			return
		}
		var p course.TopicPatch
		if !decodeJSON(w, r, &p) {
			return
		}
		t, err := store.UpdateTopic(r.Context(), authorScope(r), id, p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, t)
	}
}

func DeleteTopicHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "topicID")
		if !ok {
			return
		}
		if err := store.DeleteTopic(r.Context(), authorScope(r), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ---- questions ----

func CreateQuestionHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			TopicID int64 `json:"topic_id"`
			course.QuestionInput
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		q, err := store.CreateQuestion(r.Context(), authorScope(r), req.TopicID, req.QuestionInput)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusCreated, q)
	}
}

// PATCH /teacher/questions/{questionID}/ ; "options" present replaces the option set.
func UpdateQuestionHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "questionID")
		if !ok {
			return
		}
		var p course.QuestionPatch
		if !decodeJSON(w, r, &p) {
			return
		}
		q, err := store.UpdateQuestion(r.Context(), authorScope(r), id, p)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, q)
	}
}

func DeleteQuestionHandler(store course.Authoring) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := idParam(w, r, "questionID")
		if !ok {
			return
		}
		if err := store.DeleteQuestion(r.Context(), authorScope(r), id); err != nil {
			writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}
