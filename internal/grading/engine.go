package grading

import (
	"strings"

	"github.com/openlingo/openlingo/internal/content"
)

// Result is the outcome of grading a single question response.
type Result struct {
	QuestionID  string `json:"question_id"`
	Correct     bool   `json:"correct"`
	Points      int    `json:"points"`   // points awarded
	Expected    string `json:"expected"` // canonical correct answer, for review
	Explanation string `json:"explanation,omitempty"`
}

// Strategy grades a single question.
type Strategy interface {
	Grade(q content.Question, response string) Result
}

// Grader routes by question type to the correct Strategy.
type Grader interface {
	Grade(q content.Question, response string) Result
}

type defaultGrader struct {
	strategies map[content.QuestionType]Strategy
}

// NewDefaultGrader installs built-in strategies for every question type.
func NewDefaultGrader() Grader {
	return &defaultGrader{
		strategies: map[content.QuestionType]Strategy{
			content.QuestionMultipleChoice: choiceStrategy{},
			content.QuestionTrueFalse:      textStrategy{},
			content.QuestionFillBlank:      fillBlankStrategy{},
			content.QuestionTranslate:      textStrategy{},
			content.QuestionShortAnswer:    textStrategy{},
		},
	}
}

func (g *defaultGrader) Grade(q content.Question, response string) Result {
	s, ok := g.strategies[q.Type]
	if !ok {
		return Result{QuestionID: q.ID, Expected: q.Answer, Explanation: q.Explanation}
	}
	res := s.Grade(q, response)
	res.QuestionID = q.ID
	res.Explanation = q.Explanation
	return res
}

// choiceStrategy matches the response against the option flagged correct,
// by option id or option text.
type choiceStrategy struct{}

func (choiceStrategy) Grade(q content.Question, response string) Result {
	res := Result{}
	co, ok := q.CorrectOption()
	if !ok {
		return res
	}
	res.Expected = co.Text
	if response == co.ID || strings.EqualFold(strings.TrimSpace(response), co.Text) {
		res.Correct = true
		res.Points = q.Points
	}
	return res
}

// textStrategy accepts any of the pipe-delimited alternative answers.
type textStrategy struct{}

func (textStrategy) Grade(q content.Question, response string) Result {
	res := Result{}
	alts := q.Alternatives()
	if len(alts) > 0 {
		res.Expected = alts[0]
	}
	norm := normalize(response)
	for _, a := range alts {
		if normalize(a) == norm {
			res.Correct = true
			res.Points = q.Points
			return res
		}
	}
	return res
}

// fillBlankStrategy handles multi-blank answers: the learner's blanks arrive
// pipe-joined in order. A response is correct when the whole string matches
// one of the alternatives, or when it matches the full answer blank by blank.
type fillBlankStrategy struct{}

func (fillBlankStrategy) Grade(q content.Question, response string) Result {
	res := Result{}
	alts := q.Alternatives()
	if len(alts) > 0 {
		res.Expected = alts[0]
	}
	norm := normalize(response)
	for _, a := range alts {
		if normalize(a) == norm {
			res.Correct = true
			res.Points = q.Points
			return res
		}
	}
	want := strings.Split(q.Answer, "|")
	got := strings.Split(response, "|")
	if len(want) > 1 && len(want) == len(got) {
		for i := range want {
			if normalize(want[i]) != normalize(got[i]) {
				return res
			}
		}
		res.Correct = true
		res.Points = q.Points
	}
	return res
}
