package http

import (
	"net/http"

	"github.com/mind-engage/elearn/internal/practice"
)

// GET /learning/topics/{topicID}/next-question/
func NextQuestionHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topicID, ok := idParam(w, r, "topicID")
		if !ok {
			return
		}
		out, err := svc.NextQuestion(r.Context(), subject(r), topicID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// POST /learning/questions/{questionID}/answer/  {"selected_options":[...]}
func SubmitAnswerHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		questionID, ok := idParam(w, r, "questionID")
		if !ok {
			return
		}
		var req struct {
			SelectedOptions []int64 `json:"selected_options"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}
		out, err := svc.SubmitAnswer(r.Context(), subject(r), questionID, req.SelectedOptions)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

func ResetTopicHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topicID, ok := idParam(w, r, "topicID")
		if !ok {
			return
		}
		if _, err := svc.Reset(r.Context(), subject(r), topicID); err != nil {
			writeError(w, r, err)
			return
		}
		detail(w, http.StatusOK, "Practice progress has been reset.")
	}
}

func TopicHistoryHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topicID, ok := idParam(w, r, "topicID")
		if !ok {
			return
		}
		out, err := svc.History(r.Context(), subject(r), topicID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// GET /learning/topics/{topicID}/
func TopicTheoryHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		topicID, ok := idParam(w, r, "topicID")
		if !ok {
			return
		}
		out, err := svc.TopicTheory(r.Context(), subject(r), topicID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// GET /learning/courses/{courseID}/
func CourseProgressHandler(svc *practice.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		courseID, ok := idParam(w, r, "courseID")
		if !ok {
			return
		}
		out, err := svc.CourseProgress(r.Context(), subject(r), courseID)
		if err != nil {
			writeError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, out)
	}
}
