package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
)

// User is the decoded account attached to a session.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Fullname string `json:"fullname,omitempty"`
	Role     string `json:"role"`
	Points   int    `json:"points"`
	Streak   int    `json:"streak"`
}

// State is everything a client persists between runs. Key names mirror the
// platform's web storage keys.
type State struct {
	AuthToken              string `json:"authToken,omitempty"`
	User                   *User  `json:"user,omitempty"`
	CurrentLessonID        string `json:"currentLessonId,omitempty"`
	CurrentReadingLessonID string `json:"currentReadingLessonId,omitempty"`
}

// Storage persists State. Implementations must tolerate a missing state
// (return the zero State, not an error).
type Storage interface {
	Load() (State, error)
	Save(State) error
	Clear() error
}

// FileStorage keeps state in a JSON file, typically under the user's
// config directory.
type FileStorage struct {
	path string
}

func NewFileStorage(path string) (*FileStorage, error) {
	if path == "" {
		return nil, errors.New("empty state path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	return &FileStorage{path: path}, nil
}

func (f *FileStorage) Load() (State, error) {
	buf, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return State{}, nil
		}
		return State{}, err
	}
	var st State
	if err := json.Unmarshal(buf, &st); err != nil {
		// corrupt state file: start clean rather than lock the user out
		return State{}, nil
	}
	return st, nil
}

func (f *FileStorage) Save(st State) error {
	buf, err := json.Marshal(st)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, buf, 0o600)
}

func (f *FileStorage) Clear() error {
	err := os.Remove(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}

// MemStorage is an in-memory Storage for tests.
type MemStorage struct {
	mu sync.Mutex
	st State
}

func NewMemStorage() *MemStorage { return &MemStorage{} }

func (m *MemStorage) Load() (State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.st, nil
}

func (m *MemStorage) Save(st State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = st
	return nil
}

func (m *MemStorage) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st = State{}
	return nil
}
