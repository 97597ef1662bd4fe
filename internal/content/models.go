package content

import "strings"

type Level string

const (
	LevelA1 Level = "A1"
	LevelA2 Level = "A2"
	LevelB1 Level = "B1"
	LevelB2 Level = "B2"
	LevelC1 Level = "C1"
	LevelC2 Level = "C2"
)

func ValidLevel(l Level) bool {
	switch l {
	case LevelA1, LevelA2, LevelB1, LevelB2, LevelC1, LevelC2:
		return true
	}
	return false
}

// Kind separates the two lesson tracks. Grammar lessons hang off a topic,
// reading lessons form a flat ordered list.
type Kind string

const (
	KindGrammar Kind = "grammar"
	KindReading Kind = "reading"
)

type LessonType string

const (
	LessonTheory   LessonType = "THEORY"
	LessonPractice LessonType = "PRACTICE"
)

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionFillBlank      QuestionType = "FILL_BLANK"
	QuestionTranslate      QuestionType = "TRANSLATE"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionShortAnswer    QuestionType = "SHORT_ANSWER"
)

func ValidQuestionType(t QuestionType) bool {
	switch t {
	case QuestionMultipleChoice, QuestionFillBlank, QuestionTranslate, QuestionTrueFalse, QuestionShortAnswer:
		return true
	}
	return false
}

type Topic struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	RequiredLevel Level    `json:"required_level"`
	OrderIndex    int      `json:"order_index"`
	Active        bool     `json:"active"`
	Lessons       []Lesson `json:"lessons,omitempty"`
	CreatedAt     int64    `json:"created_at,omitempty"`
}

type Lesson struct {
	ID          string     `json:"id"`
	TopicID     string     `json:"topic_id,omitempty"` // empty for reading lessons
	Kind        Kind       `json:"kind"`
	Type        LessonType `json:"type"`
	Title       string     `json:"title"`
	Content     string     `json:"content,omitempty"` // HTML
	OrderIndex  int        `json:"order_index"`
	Points      int        `json:"points"`
	DurationSec int        `json:"duration_sec"`
	Active      bool       `json:"active"`
	Questions   []Question `json:"questions,omitempty"`
	CreatedAt   int64      `json:"created_at,omitempty"`
}

type Question struct {
	ID       string       `json:"id"`
	LessonID string       `json:"lesson_id"`
	Type     QuestionType `json:"type"`
	Text     string       `json:"text"`
	// Answer holds the expected answer for non-choice types. Alternative
	// accepted answers are pipe-delimited ("colour|color").
	Answer      string   `json:"answer,omitempty"`
	Explanation string   `json:"explanation,omitempty"`
	Points      int      `json:"points"`
	OrderIndex  int      `json:"order_index"`
	Options     []Option `json:"options,omitempty"`
}

type Option struct {
	ID         string `json:"id"`
	QuestionID string `json:"question_id,omitempty"`
	Text       string `json:"text"`
	Correct    bool   `json:"correct,omitempty"`
	OrderIndex int    `json:"order_index"`
}

// Alternatives splits the pipe-delimited answer into its accepted forms.
func (q Question) Alternatives() []string {
	if q.Answer == "" {
		return nil
	}
	parts := strings.Split(q.Answer, "|")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// CorrectOption returns the option marked correct, if any.
func (q Question) CorrectOption() (Option, bool) {
	for _, o := range q.Options {
		if o.Correct {
			return o, true
		}
	}
	return Option{}, false
}

// SetCorrect marks option i as the single correct one, clearing all other
// correct flags. Last write wins.
func SetCorrect(opts []Option, i int) {
	if i < 0 || i >= len(opts) {
		return
	}
	for j := range opts {
		opts[j].Correct = j == i
	}
}

// StripAnswers removes grading material from a lesson served to learners.
func StripAnswers(l *Lesson) {
	for i := range l.Questions {
		l.Questions[i].Answer = ""
		l.Questions[i].Explanation = ""
		for j := range l.Questions[i].Options {
			l.Questions[i].Options[j].Correct = false
		}
	}
}
