package content

import "strings"

// Validation mirrors the admin authoring rules. Each function returns a
// field-keyed error map; an empty map means the entity is valid and may be
// persisted.

func ValidateTopic(t Topic) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(t.Name) == "" {
		errs["name"] = "name is required"
	} else if len(t.Name) > 100 {
		errs["name"] = "name must be at most 100 characters"
	}
	if len(t.Description) > 500 {
		errs["description"] = "description must be at most 500 characters"
	}
	if !ValidLevel(t.RequiredLevel) {
		errs["required_level"] = "required_level must be one of A1..C2"
	}
	if t.OrderIndex < 0 {
		errs["order_index"] = "order_index must not be negative"
	}
	return errs
}

func ValidateLesson(l Lesson) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(l.Title) == "" {
		errs["title"] = "title is required"
	} else if len(l.Title) > 200 {
		errs["title"] = "title must be at most 200 characters"
	}
	switch l.Type {
	case LessonTheory:
		if strings.TrimSpace(l.Content) == "" {
			errs["content"] = "content is required for theory lessons"
		}
	case LessonPractice:
	default:
		errs["type"] = "type must be THEORY or PRACTICE"
	}
	if l.Kind != KindGrammar && l.Kind != KindReading {
		errs["kind"] = "kind must be grammar or reading"
	}
	if l.Kind == KindGrammar && l.TopicID == "" {
		errs["topic_id"] = "topic_id is required for grammar lessons"
	}
	if l.DurationSec <= 0 {
		errs["duration_sec"] = "duration_sec must be positive"
	}
	if l.Points < 0 {
		errs["points"] = "points must not be negative"
	}
	if l.OrderIndex < 0 {
		errs["order_index"] = "order_index must not be negative"
	}
	return errs
}

func ValidateQuestion(q Question) map[string]string {
	errs := map[string]string{}
	if strings.TrimSpace(q.Text) == "" {
		errs["text"] = "text is required"
	}
	if !ValidQuestionType(q.Type) {
		errs["type"] = "unknown question type"
	}
	if q.Points <= 0 {
		errs["points"] = "points must be positive"
	}
	if q.Type == QuestionMultipleChoice {
		if len(q.Options) < 2 {
			errs["options"] = "multiple choice needs at least 2 options"
		} else {
			correct := 0
			for _, o := range q.Options {
				if strings.TrimSpace(o.Text) == "" {
					errs["options"] = "option text must not be empty"
				}
				if o.Correct {
					correct++
				}
			}
			if _, ok := errs["options"]; !ok && correct != 1 {
				errs["options"] = "exactly one option must be marked correct"
			}
		}
	} else if len(q.Alternatives()) == 0 {
		errs["answer"] = "answer is required"
	}
	return errs
}
