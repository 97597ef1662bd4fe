package client

import "github.com/openlingo/openlingo/pkg/client/session"

// Response schemas for every endpoint the SDK calls. Payloads are parsed
// into these at the boundary; nothing downstream touches raw JSON.

type Topic struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Description    string   `json:"description,omitempty"`
	RequiredLevel  string   `json:"required_level"`
	OrderIndex     int      `json:"order_index"`
	Active         bool     `json:"active"`
	Lessons        []Lesson `json:"lessons"`
	CompletedCount int      `json:"completed_count"`
	TotalCount     int      `json:"total_count"`
}

type Lesson struct {
	ID          string     `json:"id"`
	TopicID     string     `json:"topic_id,omitempty"`
	Kind        string     `json:"kind"`
	Type        string     `json:"type"` // THEORY or PRACTICE
	Title       string     `json:"title"`
	Content     string     `json:"content,omitempty"`
	OrderIndex  int        `json:"order_index"`
	Points      int        `json:"points"`
	DurationSec int        `json:"duration_sec"`
	Active      bool       `json:"active"`
	Unlocked    bool       `json:"unlocked"`
	Completed   bool       `json:"completed"`
	Score       float64    `json:"score"`
	Attempts    int        `json:"attempts"`
	Questions   []Question `json:"questions,omitempty"`
}

type Question struct {
	ID          string   `json:"id"`
	LessonID    string   `json:"lesson_id"`
	Type        string   `json:"type"`
	Text        string   `json:"text"`
	Answer      string   `json:"answer,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Points      int      `json:"points"`
	OrderIndex  int      `json:"order_index"`
	Options     []Option `json:"options,omitempty"`
}

type Option struct {
	ID         string `json:"id"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct,omitempty"`
	OrderIndex int    `json:"order_index"`
}

type SubmitResult struct {
	Results         map[string]QuestionResult `json:"results"`
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

type TheoryResult struct {
	HasUnlockedNext bool   `json:"has_unlocked_next"`
	NextLessonID    string `json:"next_lesson_id,omitempty"`
}

type LoginResult struct {
	AccessToken string       `json:"access_token"`
	User        session.User `json:"user"`
}
