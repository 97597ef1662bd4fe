package progress

import (
	"errors"

	"github.com/openlingo/openlingo/internal/content"
)

// PassThreshold is the minimum score percentage required to complete a
// practice lesson. The server is the single source of truth for pass/fail;
// clients render whatever the submit response reports.
const PassThreshold = 80.0

var (
	ErrLocked     = errors.New("lesson is locked")
	ErrTooFast    = errors.New("reading time below required duration")
	ErrUnanswered = errors.New("all questions must be answered")
)

// Record is one user's state for one lesson.
type Record struct {
	UserID      string  `json:"user_id"`
	LessonID    string  `json:"lesson_id"`
	Completed   bool    `json:"completed"`
	Score       float64 `json:"score"` // best score percentage
	Attempts    int     `json:"attempts"`
	ReadSeconds int     `json:"read_seconds"`
	CompletedAt int64   `json:"completed_at,omitempty"`
}

// LessonStatus is a lesson annotated with the viewing user's progress.
type LessonStatus struct {
	content.Lesson
	Unlocked  bool    `json:"unlocked"`
	Completed bool    `json:"completed"`
	Score     float64 `json:"score"`
	Attempts  int     `json:"attempts"`
}

// TopicView is a topic with per-user lesson statuses and progress counters.
type TopicView struct {
	content.Topic
	Lessons        []LessonStatus `json:"lessons"`
	CompletedCount int            `json:"completed_count"`
	TotalCount     int            `json:"total_count"`
}

// SubmitResult is the grading outcome for a practice submission.
type SubmitResult struct {
	Results         map[string]QuestionResult `json:"results"` // keyed by question id
	ScorePercent    float64                   `json:"score_percent"`
	IsPassed        bool                      `json:"is_passed"`
	PassThreshold   float64                   `json:"pass_threshold"`
	EarnedPoints    int                       `json:"earned_points"`
	Attempts        int                       `json:"attempts"`
	HasUnlockedNext bool                      `json:"has_unlocked_next"`
	NextLessonID    string                    `json:"next_lesson_id,omitempty"`
}

type QuestionResult struct {
	Correct     bool   `json:"correct"`
	Expected    string `json:"expected,omitempty"`
	Explanation string `json:"explanation,omitempty"`
	Points      int    `json:"points"`
}

// TheoryResult reports what completing a theory lesson unlocked.
type TheoryResult struct {
	HasUnlockedNext bool   `json:"has_unlocked_next"`
	NextLessonID    string `json:"next_lesson_id,omitempty"`
}
