package client

import (
	"context"
	"net/http"
)

// Learner-facing content calls, one pair per track.

func (c *Client) GrammarTopics(ctx context.Context) ([]Topic, error) {
	res, err := do[[]Topic](c, ctx, http.MethodGet, "/grammar/topics", nil)
	return res.Data, err
}

func (c *Client) GrammarTopic(ctx context.Context, id string) (Topic, error) {
	res, err := do[Topic](c, ctx, http.MethodGet, "/grammar/topics/"+id, nil)
	return res.Data, err
}

func (c *Client) GrammarLesson(ctx context.Context, id string) (Lesson, error) {
	res, err := do[Lesson](c, ctx, http.MethodGet, "/grammar/lessons/"+id, nil)
	return res.Data, err
}

func (c *Client) SubmitGrammarPractice(ctx context.Context, lessonID string, answers map[string]string) (SubmitResult, error) {
	res, err := do[SubmitResult](c, ctx, http.MethodPost, "/grammar/lessons/"+lessonID+"/submit",
		map[string]any{"answers": answers})
	return res.Data, err
}

func (c *Client) CompleteGrammarTheory(ctx context.Context, lessonID string, readSeconds int) (TheoryResult, error) {
	res, err := do[TheoryResult](c, ctx, http.MethodPost, "/grammar/lessons/"+lessonID+"/complete-theory",
		map[string]any{"read_seconds": readSeconds})
	return res.Data, err
}

func (c *Client) ReadingLessons(ctx context.Context) ([]Lesson, error) {
	res, err := do[[]Lesson](c, ctx, http.MethodGet, "/reading/lessons", nil)
	return res.Data, err
}

func (c *Client) ReadingLesson(ctx context.Context, id string) (Lesson, error) {
	res, err := do[Lesson](c, ctx, http.MethodGet, "/reading/lessons/"+id, nil)
	return res.Data, err
}

func (c *Client) SubmitReadingPractice(ctx context.Context, lessonID string, answers map[string]string) (SubmitResult, error) {
	res, err := do[SubmitResult](c, ctx, http.MethodPost, "/reading/lessons/"+lessonID+"/submit",
		map[string]any{"answers": answers})
	return res.Data, err
}

func (c *Client) CompleteReadingTheory(ctx context.Context, lessonID string, readSeconds int) (TheoryResult, error) {
	res, err := do[TheoryResult](c, ctx, http.MethodPost, "/reading/lessons/"+lessonID+"/complete-theory",
		map[string]any{"read_seconds": readSeconds})
	return res.Data, err
}

// grammarTrack and readingTrack present the two tracks behind one shape so
// the progression flow does not care which it drives. The reading track has
// no topics; its lessons surface as one synthetic topic.

type grammarTrack struct{ c *Client }

func (t grammarTrack) LoadTree(ctx context.Context) ([]Topic, error) {
	return t.c.GrammarTopics(ctx)
}
func (t grammarTrack) LoadLesson(ctx context.Context, id string) (Lesson, error) {
	return t.c.GrammarLesson(ctx, id)
}
func (t grammarTrack) Submit(ctx context.Context, id string, answers map[string]string) (SubmitResult, error) {
	return t.c.SubmitGrammarPractice(ctx, id, answers)
}
func (t grammarTrack) CompleteTheory(ctx context.Context, id string, readSeconds int) (TheoryResult, error) {
	return t.c.CompleteGrammarTheory(ctx, id, readSeconds)
}

type readingTrack struct{ c *Client }

func (t readingTrack) LoadTree(ctx context.Context) ([]Topic, error) {
	ls, err := t.c.ReadingLessons(ctx)
	if err != nil {
		return nil, err
	}
	topic := Topic{ID: "reading", Name: "Reading", Lessons: ls, TotalCount: len(ls)}
	for _, l := range ls {
		if l.Completed {
			topic.CompletedCount++
		}
	}
	return []Topic{topic}, nil
}
func (t readingTrack) LoadLesson(ctx context.Context, id string) (Lesson, error) {
	return t.c.ReadingLesson(ctx, id)
}
func (t readingTrack) Submit(ctx context.Context, id string, answers map[string]string) (SubmitResult, error) {
	return t.c.SubmitReadingPractice(ctx, id, answers)
}
func (t readingTrack) CompleteTheory(ctx context.Context, id string, readSeconds int) (TheoryResult, error) {
	return t.c.CompleteReadingTheory(ctx, id, readSeconds)
}

// Grammar returns the grammar track service for a progression flow.
func (c *Client) Grammar() grammarTrack { return grammarTrack{c: c} }

// Reading returns the reading track service for a progression flow.
func (c *Client) Reading() readingTrack { return readingTrack{c: c} }
