package content

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
)

var ErrNotFound = errors.New("not found")

// ListOpts carries the list-endpoint filters: free-text substring match,
// exact enum filters, and paging.
type ListOpts struct {
	Q      string
	Type   string // lesson or question type, exact match
	Active *bool
	Limit  int
	Offset int
}

type Store interface {
	ListTopics(ctx context.Context, opts ListOpts) ([]Topic, error)
	GetTopic(ctx context.Context, id string) (Topic, error)
	PutTopic(ctx context.Context, t Topic) error
	DeleteTopic(ctx context.Context, id string) error

	ListLessons(ctx context.Context, kind Kind, topicID string, opts ListOpts) ([]Lesson, error)
	GetLesson(ctx context.Context, id string) (Lesson, error)
	PutLesson(ctx context.Context, l Lesson) error
	DeleteLesson(ctx context.Context, id string) error

	ListQuestions(ctx context.Context, lessonID string, opts ListOpts) ([]Question, error)
	GetQuestion(ctx context.Context, id string) (Question, error)
	PutQuestion(ctx context.Context, q Question) error
	DeleteQuestion(ctx context.Context, id string) error
	DeleteQuestions(ctx context.Context, ids []string) (int, error)
}

type memoryStore struct {
	mu        sync.RWMutex
	topics    map[string]Topic
	lessons   map[string]Lesson
	questions map[string]Question
}

// NewInMemoryStore is used by tests and by the gateway when no database is
// configured.
func NewInMemoryStore() Store {
	return &memoryStore{
		topics:    map[string]Topic{},
		lessons:   map[string]Lesson{},
		questions: map[string]Question{},
	}
}

func (m *memoryStore) ListTopics(_ context.Context, opts ListOpts) ([]Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Topic{}
	for _, t := range m.topics {
		if opts.Q != "" && !containsFold(t.Name, opts.Q) && !containsFold(t.Description, opts.Q) {
			continue
		}
		if opts.Active != nil && t.Active != *opts.Active {
			continue
		}
		t.Lessons = m.lessonsOfTopic(t.ID)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return page(out, opts), nil
}

func (m *memoryStore) lessonsOfTopic(topicID string) []Lesson {
	ls := []Lesson{}
	for _, l := range m.lessons {
		if l.TopicID == topicID {
			l.Questions = nil
			ls = append(ls, l)
		}
	}
	sort.Slice(ls, func(i, j int) bool { return ls[i].OrderIndex < ls[j].OrderIndex })
	return ls
}

func (m *memoryStore) GetTopic(_ context.Context, id string) (Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.topics[id]
	if !ok {
		return Topic{}, ErrNotFound
	}
	t.Lessons = m.lessonsOfTopic(id)
	return t, nil
}

func (m *memoryStore) PutTopic(_ context.Context, t Topic) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.Lessons = nil
	m.topics[t.ID] = t
	return nil
}

func (m *memoryStore) DeleteTopic(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.topics[id]; !ok {
		return ErrNotFound
	}
	delete(m.topics, id)
	for lid, l := range m.lessons {
		if l.TopicID == id {
			m.deleteLessonLocked(lid)
		}
	}
	return nil
}

func (m *memoryStore) ListLessons(_ context.Context, kind Kind, topicID string, opts ListOpts) ([]Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Lesson{}
	for _, l := range m.lessons {
		if kind != "" && l.Kind != kind {
			continue
		}
		if topicID != "" && l.TopicID != topicID {
			continue
		}
		if opts.Q != "" && !containsFold(l.Title, opts.Q) && !containsFold(l.Content, opts.Q) {
			continue
		}
		if opts.Type != "" && string(l.Type) != opts.Type {
			continue
		}
		if opts.Active != nil && l.Active != *opts.Active {
			continue
		}
		l.Questions = nil
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return page(out, opts), nil
}

func (m *memoryStore) GetLesson(_ context.Context, id string) (Lesson, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	l, ok := m.lessons[id]
	if !ok {
		return Lesson{}, ErrNotFound
	}
	l.Questions = m.questionsOfLesson(id)
	return l, nil
}

func (m *memoryStore) questionsOfLesson(lessonID string) []Question {
	qs := []Question{}
	for _, q := range m.questions {
		if q.LessonID == lessonID {
			qs = append(qs, q)
		}
	}
	sort.Slice(qs, func(i, j int) bool { return qs[i].OrderIndex < qs[j].OrderIndex })
	return qs
}

func (m *memoryStore) PutLesson(_ context.Context, l Lesson) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.Questions = nil
	m.lessons[l.ID] = l
	return nil
}

func (m *memoryStore) DeleteLesson(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.lessons[id]; !ok {
		return ErrNotFound
	}
	m.deleteLessonLocked(id)
	return nil
}

func (m *memoryStore) deleteLessonLocked(id string) {
	delete(m.lessons, id)
	for qid, q := range m.questions {
		if q.LessonID == id {
			delete(m.questions, qid)
		}
	}
}

func (m *memoryStore) ListQuestions(_ context.Context, lessonID string, opts ListOpts) ([]Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := []Question{}
	for _, q := range m.questions {
		if lessonID != "" && q.LessonID != lessonID {
			continue
		}
		if opts.Q != "" && !containsFold(q.Text, opts.Q) && !containsFold(q.Explanation, opts.Q) {
			continue
		}
		if opts.Type != "" && string(q.Type) != opts.Type {
			continue
		}
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrderIndex < out[j].OrderIndex })
	return page(out, opts), nil
}

func (m *memoryStore) GetQuestion(_ context.Context, id string) (Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.questions[id]
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

func (m *memoryStore) PutQuestion(_ context.Context, q Question) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.questions[q.ID] = q
	return nil
}

func (m *memoryStore) DeleteQuestion(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.questions[id]; !ok {
		return ErrNotFound
	}
	delete(m.questions, id)
	return nil
}

func (m *memoryStore) DeleteQuestions(_ context.Context, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, id := range ids {
		if _, ok := m.questions[id]; ok {
			delete(m.questions, id)
			n++
		}
	}
	return n, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func page[T any](items []T, opts ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(items) {
			return []T{}
		}
		items = items[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(items) {
		items = items[:opts.Limit]
	}
	return items
}
