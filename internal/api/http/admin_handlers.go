package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/openlingo/openlingo/internal/content"
	"github.com/openlingo/openlingo/internal/storage"
)

// Admin authoring endpoints. Create vs update dispatches on the presence of
// an id in the payload; invalid payloads never touch the store.

func CreateTopicHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var t content.Topic
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		if t.RequiredLevel == "" {
			t.RequiredLevel = content.LevelA1
		}
		if errs := content.ValidateTopic(t); len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}
		if t.ID == "" {
			t.ID = uuid.NewString()
		}
		if err := store.PutTopic(r.Context(), t); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, "topic saved", t)
	}
}

func UpdateTopicHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "topicID")
		if _, err := store.GetTopic(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		var t content.Topic
		if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		t.ID = id
		if errs := content.ValidateTopic(t); len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}
		if err := store.PutTopic(r.Context(), t); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "topic saved", t)
	}
}

func ListTopicsAdminHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts, err := store.ListTopics(r.Context(), listOptsFromQuery(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "", ts)
	}
}

func DeleteTopicHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteTopic(r.Context(), chi.URLParam(r, "topicID")); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "topic deleted", nil)
	}
}

func CreateLessonHandler(store content.Store, kind content.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var l content.Lesson
		if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		l.Kind = kind
		if tid := chi.URLParam(r, "topicID"); tid != "" {
			l.TopicID = tid
		}
		if errs := content.ValidateLesson(l); len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}
		if l.ID == "" {
			l.ID = uuid.NewString()
		}
		if err := store.PutLesson(r.Context(), l); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, "lesson saved", l)
	}
}

func UpdateLessonHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "lessonID")
		prev, err := store.GetLesson(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		var l content.Lesson
		if err := json.NewDecoder(r.Body).Decode(&l); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		l.ID = id
		l.Kind = prev.Kind
		if l.TopicID == "" {
			l.TopicID = prev.TopicID
		}
		if errs := content.ValidateLesson(l); len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}
		if err := store.PutLesson(r.Context(), l); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "lesson saved", l)
	}
}

func ListLessonsAdminHandler(store content.Store, kind content.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ls, err := store.ListLessons(r.Context(), kind, chi.URLParam(r, "topicID"), listOptsFromQuery(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "", ls)
	}
}

func GetLessonAdminHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := store.GetLesson(r.Context(), chi.URLParam(r, "lessonID"))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "", l)
	}
}

func DeleteLessonHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteLesson(r.Context(), chi.URLParam(r, "lessonID")); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "lesson deleted", nil)
	}
}

func CreateQuestionHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		lessonID := chi.URLParam(r, "lessonID")
		if _, err := store.GetLesson(r.Context(), lessonID); err != nil {
			writeDomainError(w, err)
			return
		}
		var q content.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		q.LessonID = lessonID
		if errs := content.ValidateQuestion(q); len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}
		if q.ID == "" {
			q.ID = uuid.NewString()
		}
		for i := range q.Options {
			if q.Options[i].ID == "" {
				q.Options[i].ID = uuid.NewString()
			}
		}
		if err := store.PutQuestion(r.Context(), q); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, "question saved", q)
	}
}

func UpdateQuestionHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "questionID")
		prev, err := store.GetQuestion(r.Context(), id)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		var q content.Question
		if err := json.NewDecoder(r.Body).Decode(&q); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		q.ID = id
		q.LessonID = prev.LessonID
		if errs := content.ValidateQuestion(q); len(errs) > 0 {
			writeFieldErrors(w, errs)
			return
		}
		for i := range q.Options {
			if q.Options[i].ID == "" {
				q.Options[i].ID = uuid.NewString()
			}
		}
		if err := store.PutQuestion(r.Context(), q); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "question saved", q)
	}
}

func ListQuestionsHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		qs, err := store.ListQuestions(r.Context(), chi.URLParam(r, "lessonID"), listOptsFromQuery(r))
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "", qs)
	}
}

func DeleteQuestionHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := store.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "question deleted", nil)
	}
}

func BulkDeleteQuestionsHandler(store content.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			IDs []string `json:"ids"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "bad json")
			return
		}
		if len(req.IDs) == 0 {
			writeError(w, http.StatusBadRequest, "ids required")
			return
		}
		n, err := store.DeleteQuestions(r.Context(), req.IDs)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, "questions deleted", map[string]int{"deleted": n})
	}
}

// lessonImport is the file format accepted by the parse-to-lessons endpoint:
// a JSON array of lessons with inline questions.
type lessonImport struct {
	Lessons []content.Lesson `json:"lessons"`
}

// ImportLessonsHandler accepts a multipart JSON upload, archives the raw
// file and creates every lesson (and its questions) it contains.
func ImportLessonsHandler(store content.Store, bs storage.BlobStore, kind content.Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "file required")
			return
		}
		defer f.Close()

		var imp lessonImport
		if err := json.NewDecoder(f).Decode(&imp); err != nil {
			writeError(w, http.StatusBadRequest, "bad lesson file: "+err.Error())
			return
		}
		if len(imp.Lessons) == 0 {
			writeError(w, http.StatusBadRequest, "no lessons in file")
			return
		}

		topicID := chi.URLParam(r, "topicID")
		created := []string{}
		for i := range imp.Lessons {
			l := imp.Lessons[i]
			l.Kind = kind
			if topicID != "" {
				l.TopicID = topicID
			}
			if errs := content.ValidateLesson(l); len(errs) > 0 {
				writeFieldErrors(w, prefixKeys(fmt.Sprintf("lessons[%d].", i), errs))
				return
			}
			questions := l.Questions
			for j, q := range questions {
				q.LessonID = "" // assigned after the lesson id is known
				if errs := content.ValidateQuestion(q); len(errs) > 0 {
					writeFieldErrors(w, prefixKeys(fmt.Sprintf("lessons[%d].questions[%d].", i, j), errs))
					return
				}
			}
			if l.ID == "" {
				l.ID = uuid.NewString()
			}
			if err := store.PutLesson(r.Context(), l); err != nil {
				writeDomainError(w, err)
				return
			}
			for _, q := range questions {
				q.LessonID = l.ID
				if q.ID == "" {
					q.ID = uuid.NewString()
				}
				for k := range q.Options {
					if q.Options[k].ID == "" {
						q.Options[k].ID = uuid.NewString()
					}
				}
				if err := store.PutQuestion(r.Context(), q); err != nil {
					writeDomainError(w, err)
					return
				}
			}
			created = append(created, l.ID)
		}

		// archive the upload for audit; failure is not fatal
		if bs != nil {
			if seeker, ok := f.(interface {
				Seek(int64, int) (int64, error)
			}); ok {
				if _, err := seeker.Seek(0, 0); err == nil {
					key := fmt.Sprintf("imports/%s/%d.json", kind, time.Now().Unix())
					_, _ = bs.Put(key, f)
				}
			}
		}
		writeJSON(w, http.StatusCreated, "lessons imported", map[string]any{"lesson_ids": created})
	}
}

func prefixKeys(prefix string, errs map[string]string) map[string]string {
	out := make(map[string]string, len(errs))
	for k, v := range errs {
		out[prefix+k] = v
	}
	return out
}
