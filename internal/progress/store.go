package progress

import (
	"context"
	"sync"
)

// Store persists per-user lesson records and the user's points/streak
// bookkeeping.
type Store interface {
	Get(ctx context.Context, userID, lessonID string) (Record, error)
	Put(ctx context.Context, rec Record) error
	ByUser(ctx context.Context, userID string) (map[string]Record, error)

	// Activity returns the user's last-completion timestamp and streak.
	Activity(ctx context.Context, userID string) (lastCompletedAt int64, streak int, err error)
	// RecordCompletion updates streak/last-completion and adds points.
	RecordCompletion(ctx context.Context, userID string, completedAt int64, streak int, addPoints int) error
}

type memoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]Record // userID -> lessonID -> record
	users   map[string]*userActivity
}

type userActivity struct {
	lastCompletedAt int64
	streak          int
	points          int
}

func NewInMemoryStore() Store {
	return &memoryStore{
		records: map[string]map[string]Record{},
		users:   map[string]*userActivity{},
	}
}

func (m *memoryStore) Get(_ context.Context, userID, lessonID string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if recs, ok := m.records[userID]; ok {
		if r, ok := recs[lessonID]; ok {
			return r, nil
		}
	}
	// absent record means "never attempted", not an error
	return Record{UserID: userID, LessonID: lessonID}, nil
}

func (m *memoryStore) Put(_ context.Context, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	recs, ok := m.records[rec.UserID]
	if !ok {
		recs = map[string]Record{}
		m.records[rec.UserID] = recs
	}
	recs[rec.LessonID] = rec
	return nil
}

func (m *memoryStore) ByUser(_ context.Context, userID string) (map[string]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := map[string]Record{}
	for id, r := range m.records[userID] {
		out[id] = r
	}
	return out, nil
}

func (m *memoryStore) Activity(_ context.Context, userID string) (int64, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[userID]; ok {
		return u.lastCompletedAt, u.streak, nil
	}
	return 0, 0, nil
}

func (m *memoryStore) RecordCompletion(_ context.Context, userID string, completedAt int64, streak int, addPoints int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[userID]
	if !ok {
		u = &userActivity{}
		m.users[userID] = u
	}
	u.lastCompletedAt = completedAt
	u.streak = streak
	u.points += addPoints
	return nil
}
