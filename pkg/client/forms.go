package client

import (
	"strconv"
	"strings"
)

// Client-side form validation. The rules mirror what the server enforces so
// an invalid form is rejected before any request is made; the server remains
// the authority and its field errors surface through APIError.Fields.

var levels = map[string]bool{
	"A1": true, "A2": true, "B1": true, "B2": true, "C1": true, "C2": true,
}

var questionTypes = map[string]bool{
	"MULTIPLE_CHOICE": true,
	"FILL_BLANK":      true,
	"TRANSLATE":       true,
	"TRUE_FALSE":      true,
	"SHORT_ANSWER":    true,
}

func ValidateTopicForm(t Topic) map[string]string {
	errs := map[string]string{}
	name := strings.TrimSpace(t.Name)
	switch {
	case name == "":
		errs["name"] = "name is required"
	case len(name) > 100:
		errs["name"] = "name must be at most 100 characters"
	}
	if len(t.Description) > 500 {
		errs["description"] = "description must be at most 500 characters"
	}
	if !levels[t.RequiredLevel] {
		errs["required_level"] = "required_level must be one of A1, A2, B1, B2, C1, C2"
	}
	if t.OrderIndex < 0 {
		errs["order_index"] = "order_index must not be negative"
	}
	return errs
}

func ValidateLessonForm(l Lesson) map[string]string {
	errs := map[string]string{}
	title := strings.TrimSpace(l.Title)
	switch {
	case title == "":
		errs["title"] = "title is required"
	case len(title) > 200:
		errs["title"] = "title must be at most 200 characters"
	}
	switch l.Type {
	case "THEORY":
		if strings.TrimSpace(l.Content) == "" {
			errs["content"] = "content is required for theory lessons"
		}
	case "PRACTICE":
	default:
		errs["type"] = "type must be THEORY or PRACTICE"
	}
	switch l.Kind {
	case "grammar":
		if l.TopicID == "" {
			errs["topic_id"] = "topic_id is required for grammar lessons"
		}
	case "reading":
		if l.TopicID != "" {
			errs["topic_id"] = "reading lessons do not belong to a topic"
		}
	default:
		errs["kind"] = "kind must be grammar or reading"
	}
	if l.DurationSec <= 0 {
		errs["duration_sec"] = "duration_sec must be positive"
	}
	if l.Points < 0 {
		errs["points"] = "points must not be negative"
	}
	return errs
}

func ValidateQuestionForm(q Question) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(q.Text) == "" {
		errs["text"] = "text is required"
	}
	if !questionTypes[q.Type] {
		errs["type"] = "unknown question type"
	}
	if q.Points <= 0 {
		errs["points"] = "points must be positive"
	}
	if q.Type == "MULTIPLE_CHOICE" {
		if len(q.Options) < 2 {
			errs["options"] = "at least two options are required"
		}
		correct := 0
		for i, o := range q.Options {
			if strings.TrimSpace(o.Text) == "" {
				errs["options"] = "option " + strconv.Itoa(i+1) + " has no text"
			}
			if o.Correct {
				correct++
			}
		}
		if correct != 1 && errs["options"] == "" {
			errs["options"] = "exactly one option must be marked correct"
		}
	} else if strings.TrimSpace(q.Answer) == "" {
		errs["answer"] = "answer is required"
	}
	return errs
}

// SetCorrectOption marks option i correct and clears the flag on every other
// option, so toggling in the editor always leaves exactly one correct answer.
func SetCorrectOption(opts []Option, i int) {
	if i < 0 || i >= len(opts) {
		return
	}
	for j := range opts {
		opts[j].Correct = j == i
	}
}
