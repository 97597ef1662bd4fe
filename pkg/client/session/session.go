// Package session holds the client-side auth session: the bearer token, the
// decoded user, and the last-viewed lesson pointers. Every accessor degrades
// to a safe zero value when no session exists; callers never see a panic or
// an error from a missing session.
package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	// ExpiryPollInterval bounds how long the client can keep operating on an
	// expired token before the watcher forces a logout.
	ExpiryPollInterval = 5 * time.Second
)

// Track selects which current-lesson pointer an operation touches.
type Track int

const (
	TrackGrammar Track = iota
	TrackReading
)

// Store is the in-process session with write-through persistence.
type Store struct {
	mu      sync.RWMutex
	storage Storage
	state   State

	// serverLogout is the best-effort logout API call; its failure never
	// blocks clearing local state.
	serverLogout func(ctx context.Context) error
}

func NewStore(storage Storage) (*Store, error) {
	st, err := storage.Load()
	if err != nil {
		return nil, err
	}
	return &Store{storage: storage, state: st}, nil
}

// SetServerLogout registers the API call Logout fires before clearing state.
func (s *Store) SetServerLogout(fn func(ctx context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.serverLogout = fn
}

func (s *Store) SetSession(token string, u User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.AuthToken = token
	s.state.User = &u
	return s.storage.Save(s.state)
}

func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AuthToken
}

func (s *Store) User() *User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.User == nil {
		return nil
	}
	u := *s.state.User
	return &u
}

// IsAuthenticated reports whether both a token and a user are present.
func (s *Store) IsAuthenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.AuthToken != "" && s.state.User != nil
}

// IsTokenExpired decodes the token's payload segment and compares its exp
// claim against the current time. Any decode failure counts as expired:
// failing closed beats operating on a token we cannot read.
func (s *Store) IsTokenExpired() bool {
	return tokenExpired(s.Token(), time.Now())
}

func tokenExpired(token string, now time.Time) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return true
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return true
	}
	var claims struct {
		Exp int64 `json:"exp"`
	}
	if err := json.Unmarshal(payload, &claims); err != nil || claims.Exp == 0 {
		return true
	}
	return now.Unix() >= claims.Exp
}

func (s *Store) Role() string {
	if u := s.User(); u != nil {
		return u.Role
	}
	return ""
}

func (s *Store) HasRole(role string) bool {
	return s.Role() == role && role != ""
}

// DisplayName returns the best available display string for the user.
func (s *Store) DisplayName() string {
	u := s.User()
	if u == nil {
		return "Guest"
	}
	if u.Fullname != "" {
		return u.Fullname
	}
	return u.Username
}

func (s *Store) Email() string {
	if u := s.User(); u != nil {
		return u.Email
	}
	return ""
}

func (s *Store) CurrentLessonID(t Track) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t == TrackReading {
		return s.state.CurrentReadingLessonID
	}
	return s.state.CurrentLessonID
}

// SetCurrentLessonID persists the last-viewed lesson so position survives
// restarts.
func (s *Store) SetCurrentLessonID(t Track, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t == TrackReading {
		s.state.CurrentReadingLessonID = id
	} else {
		s.state.CurrentLessonID = id
	}
	return s.storage.Save(s.state)
}

// Logout fires the best-effort server logout, clears all local state and
// returns the login route the caller should navigate to, marked loggedOut.
func (s *Store) Logout(ctx context.Context) string {
	s.mu.Lock()
	role := ""
	if s.state.User != nil {
		role = s.state.User.Role
	}
	logout := s.serverLogout
	s.mu.Unlock()

	if logout != nil {
		_ = logout(ctx) // failure is ignored; local state clears regardless
	}

	s.mu.Lock()
	s.state = State{}
	_ = s.storage.Clear()
	s.mu.Unlock()

	return LoginRoute(role) + "?loggedOut=true"
}

// Invalidate clears local state without a server call. Used when the server
// already rejected the token (401).
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = State{}
	_ = s.storage.Clear()
}

// LoginRoute maps a role onto its login path.
func LoginRoute(role string) string {
	if role == RoleAdmin {
		return "/admin/login"
	}
	return "/user/login"
}

// HomeRoute maps a role onto its landing path.
func HomeRoute(role string) string {
	if role == RoleAdmin {
		return "/admin/dashboard"
	}
	return "/user/dashboard"
}

// WatchExpiry polls the session on a fixed interval and forces a logout the
// first time the token is observed expired. onLogout receives the redirect
// route. The watcher stops when ctx is cancelled.
func (s *Store) WatchExpiry(ctx context.Context, onLogout func(route string)) {
	go func() {
		t := time.NewTicker(ExpiryPollInterval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if s.IsAuthenticated() && s.IsTokenExpired() {
					route := s.Logout(ctx)
					if onLogout != nil {
						onLogout(route)
					}
					return
				}
			}
		}
	}()
}
