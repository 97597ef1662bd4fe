package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionStore tracks issued tokens so logout and logout-all can revoke them
// before their JWT expiry.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore { return &SessionStore{db: db} }

func (s *SessionStore) Create(ctx context.Context, userID string, ttl time.Duration) (string, error) {
	id := uuid.NewString()
	now := time.Now()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id,user_id,issued_at,expires_at,revoked) VALUES ($1,$2,$3,$4,$5)`,
		id, userID, now.Unix(), now.Add(ttl).Unix(), false)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Alive reports whether the session exists, is unrevoked and unexpired.
func (s *SessionStore) Alive(ctx context.Context, id string) bool {
	var revoked bool
	var expiresAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT revoked, expires_at FROM sessions WHERE id=$1`, id).Scan(&revoked, &expiresAt)
	if err != nil {
		return false
	}
	return !revoked && time.Now().Unix() < expiresAt
}

func (s *SessionStore) Revoke(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE sessions SET revoked=$1 WHERE id=$2`, true, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errors.New("session not found")
	}
	return nil
}

func (s *SessionStore) RevokeAll(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET revoked=$1 WHERE user_id=$2`, true, userID)
	return err
}

// SweepExpired deletes sessions past their expiry. Run periodically.
func (s *SessionStore) SweepExpired(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < $1`, time.Now().Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
