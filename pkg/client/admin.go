package client

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

// Admin authoring calls. Create vs update is dispatched on the entity id,
// matching the form components: an empty id creates, a present id updates.

// ListQuery carries the list-view controls: free-text filter, enum filters
// and paging.
type ListQuery struct {
	Q      string
	Type   string
	Active string // "", "true" or "false"
	Limit  int
	Offset int
}

func (q ListQuery) encode() string {
	v := url.Values{}
	if q.Q != "" {
		v.Set("q", q.Q)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Active != "" {
		v.Set("active", q.Active)
	}
	if q.Limit > 0 {
		v.Set("limit", strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		v.Set("offset", strconv.Itoa(q.Offset))
	}
	if len(v) == 0 {
		return ""
	}
	return "?" + v.Encode()
}

func (c *Client) AdminListTopics(ctx context.Context, q ListQuery) ([]Topic, error) {
	res, err := do[[]Topic](c, ctx, http.MethodGet, "/admin/grammar/topics"+q.encode(), nil)
	return res.Data, err
}

// SaveTopic validates locally, then creates or updates depending on t.ID.
// Invalid forms never reach the network.
func (c *Client) SaveTopic(ctx context.Context, t Topic) (Topic, error) {
	if errs := ValidateTopicForm(t); len(errs) > 0 {
		return Topic{}, &APIError{Status: 0, Message: "validation failed", Fields: errs}
	}
	if t.ID == "" {
		res, err := do[Topic](c, ctx, http.MethodPost, "/admin/grammar/topics", t)
		return res.Data, err
	}
	res, err := do[Topic](c, ctx, http.MethodPut, "/admin/grammar/topics/"+t.ID, t)
	return res.Data, err
}

func (c *Client) DeleteTopic(ctx context.Context, id string) error {
	_, err := do[struct{}](c, ctx, http.MethodDelete, "/admin/grammar/topics/"+id, nil)
	return err
}

func (c *Client) AdminListLessons(ctx context.Context, kind, topicID string, q ListQuery) ([]Lesson, error) {
	path := "/admin/reading/lessons"
	if kind == "grammar" {
		path = "/admin/grammar/topics/" + topicID + "/lessons"
	}
	res, err := do[[]Lesson](c, ctx, http.MethodGet, path+q.encode(), nil)
	return res.Data, err
}

func (c *Client) AdminGetLesson(ctx context.Context, kind, id string) (Lesson, error) {
	res, err := do[Lesson](c, ctx, http.MethodGet, "/admin/"+kind+"/lessons/"+id, nil)
	return res.Data, err
}

func (c *Client) SaveLesson(ctx context.Context, kind string, l Lesson) (Lesson, error) {
	if errs := ValidateLessonForm(l); len(errs) > 0 {
		return Lesson{}, &APIError{Status: 0, Message: "validation failed", Fields: errs}
	}
	if l.ID == "" {
		path := "/admin/reading/lessons"
		if kind == "grammar" {
			path = "/admin/grammar/topics/" + l.TopicID + "/lessons"
		}
		res, err := do[Lesson](c, ctx, http.MethodPost, path, l)
		return res.Data, err
	}
	res, err := do[Lesson](c, ctx, http.MethodPut, "/admin/"+kind+"/lessons/"+l.ID, l)
	return res.Data, err
}

func (c *Client) DeleteLesson(ctx context.Context, kind, id string) error {
	_, err := do[struct{}](c, ctx, http.MethodDelete, "/admin/"+kind+"/lessons/"+id, nil)
	return err
}

func (c *Client) AdminListQuestions(ctx context.Context, kind, lessonID string, q ListQuery) ([]Question, error) {
	res, err := do[[]Question](c, ctx, http.MethodGet,
		"/admin/"+kind+"/lessons/"+lessonID+"/questions"+q.encode(), nil)
	return res.Data, err
}

func (c *Client) SaveQuestion(ctx context.Context, kind string, q Question) (Question, error) {
	if errs := ValidateQuestionForm(q); len(errs) > 0 {
		return Question{}, &APIError{Status: 0, Message: "validation failed", Fields: errs}
	}
	if q.ID == "" {
		res, err := do[Question](c, ctx, http.MethodPost,
			"/admin/"+kind+"/lessons/"+q.LessonID+"/questions", q)
		return res.Data, err
	}
	res, err := do[Question](c, ctx, http.MethodPut, "/admin/"+kind+"/questions/"+q.ID, q)
	return res.Data, err
}

func (c *Client) DeleteQuestion(ctx context.Context, kind, id string) error {
	_, err := do[struct{}](c, ctx, http.MethodDelete, "/admin/"+kind+"/questions/"+id, nil)
	return err
}

// DeleteQuestionsBulk removes a checkbox-selection set of questions.
func (c *Client) DeleteQuestionsBulk(ctx context.Context, kind string, ids []string) (int, error) {
	res, err := do[map[string]int](c, ctx, http.MethodPost,
		"/admin/"+kind+"/questions/bulk-delete", map[string][]string{"ids": ids})
	if err != nil {
		return 0, err
	}
	return res.Data["deleted"], nil
}
