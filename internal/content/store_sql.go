package content

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) ListTopics(ctx context.Context, opts ListOpts) ([]Topic, error) {
	q := `SELECT id,name,description,required_level,order_index,active,created_at FROM topics`
	where, args := listFilters(opts, "name", "description")
	if where != "" {
		q += " WHERE " + where
	}
	q += " ORDER BY order_index" + limitOffset(opts)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Topic{}
	for rows.Next() {
		var t Topic
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &t.RequiredLevel, &t.OrderIndex, &t.Active, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		ls, err := s.ListLessons(ctx, KindGrammar, out[i].ID, ListOpts{})
		if err != nil {
			return nil, err
		}
		out[i].Lessons = ls
	}
	return out, nil
}

func (s *SQLStore) GetTopic(ctx context.Context, id string) (Topic, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,name,description,required_level,order_index,active,created_at FROM topics WHERE id=$1`, id)
	var t Topic
	if err := row.Scan(&t.ID, &t.Name, &t.Description, &t.RequiredLevel, &t.OrderIndex, &t.Active, &t.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Topic{}, ErrNotFound
		}
		return Topic{}, err
	}
	ls, err := s.ListLessons(ctx, KindGrammar, id, ListOpts{})
	if err != nil {
		return Topic{}, err
	}
	t.Lessons = ls
	return t, nil
}

func (s *SQLStore) PutTopic(ctx context.Context, t Topic) error {
	if t.CreatedAt == 0 {
		t.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO topics (id,name,description,required_level,order_index,active,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, description=EXCLUDED.description,
		required_level=EXCLUDED.required_level, order_index=EXCLUDED.order_index, active=EXCLUDED.active`,
		t.ID, t.Name, t.Description, string(t.RequiredLevel), t.OrderIndex, t.Active, t.CreatedAt)
	return err
}

func (s *SQLStore) DeleteTopic(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM topics WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) ListLessons(ctx context.Context, kind Kind, topicID string, opts ListOpts) ([]Lesson, error) {
	q := `SELECT id,COALESCE(topic_id,''),kind,type,title,content,order_index,points,duration_sec,active,created_at FROM lessons`
	where, args := listFilters(opts, "title", "content")
	clauses := []string{}
	if where != "" {
		clauses = append(clauses, where)
	}
	if kind != "" {
		args = append(args, string(kind))
		clauses = append(clauses, fmt.Sprintf("kind=$%d", len(args)))
	}
	if topicID != "" {
		args = append(args, topicID)
		clauses = append(clauses, fmt.Sprintf("topic_id=$%d", len(args)))
	}
	if opts.Type != "" {
		args = append(args, opts.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY order_index" + limitOffset(opts)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Lesson{}
	for rows.Next() {
		var l Lesson
		if err := rows.Scan(&l.ID, &l.TopicID, &l.Kind, &l.Type, &l.Title, &l.Content,
			&l.OrderIndex, &l.Points, &l.DurationSec, &l.Active, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetLesson(ctx context.Context, id string) (Lesson, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,COALESCE(topic_id,''),kind,type,title,content,order_index,points,duration_sec,active,created_at
		 FROM lessons WHERE id=$1`, id)
	var l Lesson
	if err := row.Scan(&l.ID, &l.TopicID, &l.Kind, &l.Type, &l.Title, &l.Content,
		&l.OrderIndex, &l.Points, &l.DurationSec, &l.Active, &l.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Lesson{}, ErrNotFound
		}
		return Lesson{}, err
	}
	qs, err := s.ListQuestions(ctx, id, ListOpts{})
	if err != nil {
		return Lesson{}, err
	}
	l.Questions = qs
	return l, nil
}

func (s *SQLStore) PutLesson(ctx context.Context, l Lesson) error {
	if l.CreatedAt == 0 {
		l.CreatedAt = time.Now().Unix()
	}
	var topicID any
	if l.TopicID != "" {
		topicID = l.TopicID
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO lessons (id,topic_id,kind,type,title,content,order_index,points,duration_sec,active,created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (id) DO UPDATE SET topic_id=EXCLUDED.topic_id, kind=EXCLUDED.kind, type=EXCLUDED.type,
		title=EXCLUDED.title, content=EXCLUDED.content, order_index=EXCLUDED.order_index,
		points=EXCLUDED.points, duration_sec=EXCLUDED.duration_sec, active=EXCLUDED.active`,
		l.ID, topicID, string(l.Kind), string(l.Type), l.Title, l.Content,
		l.OrderIndex, l.Points, l.DurationSec, l.Active, l.CreatedAt)
	return err
}

func (s *SQLStore) DeleteLesson(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM lessons WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) ListQuestions(ctx context.Context, lessonID string, opts ListOpts) ([]Question, error) {
	q := `SELECT id,lesson_id,type,text,answer,explanation,points,order_index FROM questions`
	opts.Active = nil // questions have no active column
	where, args := listFilters(opts, "text", "explanation")
	clauses := []string{}
	if where != "" {
		clauses = append(clauses, where)
	}
	if lessonID != "" {
		args = append(args, lessonID)
		clauses = append(clauses, fmt.Sprintf("lesson_id=$%d", len(args)))
	}
	if opts.Type != "" {
		args = append(args, opts.Type)
		clauses = append(clauses, fmt.Sprintf("type=$%d", len(args)))
	}
	if len(clauses) > 0 {
		q += " WHERE " + strings.Join(clauses, " AND ")
	}
	q += " ORDER BY order_index" + limitOffset(opts)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		var qu Question
		if err := rows.Scan(&qu.ID, &qu.LessonID, &qu.Type, &qu.Text, &qu.Answer, &qu.Explanation, &qu.Points, &qu.OrderIndex); err != nil {
			return nil, err
		}
		out = append(out, qu)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		os, err := s.optionsOf(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Options = os
	}
	return out, nil
}

func (s *SQLStore) optionsOf(ctx context.Context, questionID string) ([]Option, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id,question_id,text,correct,order_index FROM options WHERE question_id=$1 ORDER BY order_index`, questionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []Option{}
	for rows.Next() {
		var o Option
		if err := rows.Scan(&o.ID, &o.QuestionID, &o.Text, &o.Correct, &o.OrderIndex); err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (s *SQLStore) GetQuestion(ctx context.Context, id string) (Question, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id,lesson_id,type,text,answer,explanation,points,order_index FROM questions WHERE id=$1`, id)
	var q Question
	if err := row.Scan(&q.ID, &q.LessonID, &q.Type, &q.Text, &q.Answer, &q.Explanation, &q.Points, &q.OrderIndex); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Question{}, ErrNotFound
		}
		return Question{}, err
	}
	os, err := s.optionsOf(ctx, id)
	if err != nil {
		return Question{}, err
	}
	q.Options = os
	return q, nil
}

// PutQuestion upserts the question and replaces its option rows.
func (s *SQLStore) PutQuestion(ctx context.Context, q Question) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		} else {
			err = tx.Commit()
		}
	}()

	_, err = tx.ExecContext(ctx, `INSERT INTO questions (id,lesson_id,type,text,answer,explanation,points,order_index)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		ON CONFLICT (id) DO UPDATE SET type=EXCLUDED.type, text=EXCLUDED.text, answer=EXCLUDED.answer,
		explanation=EXCLUDED.explanation, points=EXCLUDED.points, order_index=EXCLUDED.order_index`,
		q.ID, q.LessonID, string(q.Type), q.Text, q.Answer, q.Explanation, q.Points, q.OrderIndex)
	if err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM options WHERE question_id=$1`, q.ID); err != nil {
		return err
	}
	for _, o := range q.Options {
		if _, err = tx.ExecContext(ctx, `INSERT INTO options (id,question_id,text,correct,order_index) VALUES ($1,$2,$3,$4,$5)`,
			o.ID, q.ID, o.Text, o.Correct, o.OrderIndex); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLStore) DeleteQuestion(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	return checkAffected(res)
}

func (s *SQLStore) DeleteQuestions(ctx context.Context, ids []string) (int, error) {
	n := 0
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx, `DELETE FROM questions WHERE id=$1`, id)
		if err != nil {
			return n, err
		}
		if aff, _ := res.RowsAffected(); aff > 0 {
			n++
		}
	}
	return n, nil
}

func listFilters(opts ListOpts, textCols ...string) (string, []any) {
	clauses := []string{}
	args := []any{}
	if opts.Q != "" {
		args = append(args, "%"+strings.ToLower(opts.Q)+"%")
		like := []string{}
		for _, c := range textCols {
			like = append(like, fmt.Sprintf("LOWER(%s) LIKE $%d", c, len(args)))
		}
		clauses = append(clauses, "("+strings.Join(like, " OR ")+")")
	}
	if opts.Active != nil {
		args = append(args, *opts.Active)
		clauses = append(clauses, fmt.Sprintf("active=$%d", len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

func limitOffset(opts ListOpts) string {
	s := ""
	if opts.Limit > 0 {
		s += fmt.Sprintf(" LIMIT %d", opts.Limit)
	}
	if opts.Offset > 0 {
		s += fmt.Sprintf(" OFFSET %d", opts.Offset)
	}
	return s
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
