package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openlingo/openlingo/internal/auth"
	"github.com/openlingo/openlingo/internal/progress"
)

// Learner-facing endpoints. The subject from the validated token selects
// whose progress annotates the content.

func ListTopicsHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		topics, err := svc.Topics(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "", topics)
	}
}

func GetTopicHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		tv, err := svc.Topic(r.Context(), userID, chi.URLParam(r, "topicID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "", tv)
	}
}

func ListReadingLessonsHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		ls, err := svc.ReadingLessons(r.Context(), userID)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "", ls)
	}
}

func GetLessonHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		l, err := svc.Lesson(r.Context(), userID, chi.URLParam(r, "lessonID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "", l)
	}
}

func SubmitPracticeHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		var req struct {
			Answers map[string]string `json:"answers"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		res, err := svc.SubmitPractice(r.Context(), userID, chi.URLParam(r, "lessonID"), req.Answers)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		msg := "keep practicing"
		if res.IsPassed {
			msg = "lesson completed"
		}
		writeJSON(w, http.StatusOK, msg, res)
	}
}

func CompleteTheoryHandler(svc *progress.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := auth.SubjectFromContext(r.Context())
		var req struct {
			ReadSeconds int `json:"read_seconds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		res, err := svc.CompleteTheory(r.Context(), userID, chi.URLParam(r, "lessonID"), req.ReadSeconds)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "lesson completed", res)
	}
}
