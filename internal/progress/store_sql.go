package progress

import (
	"context"
	"database/sql"
	"errors"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore { return &SQLStore{db: db} }

func (s *SQLStore) Get(ctx context.Context, userID, lessonID string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT user_id,lesson_id,completed,score,attempts,read_seconds,COALESCE(completed_at,0)
		 FROM lesson_progress WHERE user_id=$1 AND lesson_id=$2`, userID, lessonID)
	var r Record
	if err := row.Scan(&r.UserID, &r.LessonID, &r.Completed, &r.Score, &r.Attempts, &r.ReadSeconds, &r.CompletedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{UserID: userID, LessonID: lessonID}, nil
		}
		return Record{}, err
	}
	return r, nil
}

func (s *SQLStore) Put(ctx context.Context, rec Record) error {
	var completedAt any
	if rec.CompletedAt != 0 {
		completedAt = rec.CompletedAt
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO lesson_progress (user_id,lesson_id,completed,score,attempts,read_seconds,completed_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)
		 ON CONFLICT (user_id,lesson_id) DO UPDATE SET completed=EXCLUDED.completed, score=EXCLUDED.score,
		 attempts=EXCLUDED.attempts, read_seconds=EXCLUDED.read_seconds, completed_at=EXCLUDED.completed_at`,
		rec.UserID, rec.LessonID, rec.Completed, rec.Score, rec.Attempts, rec.ReadSeconds, completedAt)
	return err
}

func (s *SQLStore) ByUser(ctx context.Context, userID string) (map[string]Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id,lesson_id,completed,score,attempts,read_seconds,COALESCE(completed_at,0)
		 FROM lesson_progress WHERE user_id=$1`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := map[string]Record{}
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.UserID, &r.LessonID, &r.Completed, &r.Score, &r.Attempts, &r.ReadSeconds, &r.CompletedAt); err != nil {
			return nil, err
		}
		out[r.LessonID] = r
	}
	return out, rows.Err()
}

func (s *SQLStore) Activity(ctx context.Context, userID string) (int64, int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COALESCE(last_completed_at,0), streak FROM users WHERE id=$1`, userID)
	var last int64
	var streak int
	if err := row.Scan(&last, &streak); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	return last, streak, nil
}

func (s *SQLStore) RecordCompletion(ctx context.Context, userID string, completedAt int64, streak int, addPoints int) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE users SET last_completed_at=$1, streak=$2, points=points+$3 WHERE id=$4`,
		completedAt, streak, addPoints, userID)
	return err
}
