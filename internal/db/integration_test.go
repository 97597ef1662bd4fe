package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/openlingo/openlingo/internal/auth"
	"github.com/openlingo/openlingo/internal/content"
	"github.com/openlingo/openlingo/internal/db"
	"github.com/openlingo/openlingo/internal/progress"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	h, err := db.Open(context.Background(), db.DriverSQLite,
		"file:"+t.TempDir()+"/test.db?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestContentSQLStoreRoundTrip(t *testing.T) {
	h := openTestDB(t)
	s := content.NewSQLStore(h)
	ctx := context.Background()

	topic := content.Topic{ID: "t1", Name: "Articles", RequiredLevel: content.LevelA2, OrderIndex: 3, Active: true}
	if err := s.PutTopic(ctx, topic); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetTopic(ctx, "t1")
	if err != nil {
		t.Fatal(err)
	}
	if got.Name != "Articles" || got.RequiredLevel != content.LevelA2 || got.OrderIndex != 3 {
		t.Errorf("topic = %+v", got)
	}

	lesson := content.Lesson{
		ID: "l1", TopicID: "t1", Kind: content.KindGrammar, Type: content.LessonPractice,
		Title: "Use of a/an", DurationSec: 90, Points: 15, Active: true,
	}
	if err := s.PutLesson(ctx, lesson); err != nil {
		t.Fatal(err)
	}

	q := content.Question{
		ID: "q1", LessonID: "l1", Type: content.QuestionMultipleChoice,
		Text: "___ apple", Points: 5,
		Options: []content.Option{
			{ID: "o1", Text: "a"},
			{ID: "o2", Text: "an", Correct: true},
		},
	}
	if err := s.PutQuestion(ctx, q); err != nil {
		t.Fatal(err)
	}

	l, err := s.GetLesson(ctx, "l1")
	if err != nil {
		t.Fatal(err)
	}
	if len(l.Questions) != 1 || len(l.Questions[0].Options) != 2 {
		t.Fatalf("lesson = %+v", l)
	}
	co, ok := l.Questions[0].CorrectOption()
	if !ok || co.ID != "o2" {
		t.Errorf("correct option = %+v (%v)", co, ok)
	}

	// rewriting a question replaces its option set
	q.Options = []content.Option{{ID: "o3", Text: "the", Correct: true}, {ID: "o4", Text: "an"}}
	if err := s.PutQuestion(ctx, q); err != nil {
		t.Fatal(err)
	}
	l, _ = s.GetLesson(ctx, "l1")
	if len(l.Questions[0].Options) != 2 || l.Questions[0].Options[0].ID != "o3" {
		t.Errorf("options after rewrite = %+v", l.Questions[0].Options)
	}

	// questions have no active flag, so the filter is ignored instead of
	// referencing a missing column
	active := true
	qs, err := s.ListQuestions(ctx, "l1", content.ListOpts{Active: &active})
	if err != nil {
		t.Fatal(err)
	}
	if len(qs) != 1 {
		t.Errorf("questions with active filter = %d, want 1", len(qs))
	}

	if err := s.DeleteTopic(ctx, "t1"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetLesson(ctx, "l1"); !errors.Is(err, content.ErrNotFound) {
		t.Errorf("lesson survived topic delete: %v", err)
	}
}

func TestProgressSQLStore(t *testing.T) {
	h := openTestDB(t)
	s := progress.NewSQLStore(h)
	ctx := context.Background()

	_, err := h.ExecContext(ctx,
		`INSERT INTO users (id,username,email,password_hash,role,active,email_verified,created_at)
		 VALUES ('u1','ann','ann@example.com','x','user',1,1,0)`)
	if err != nil {
		t.Fatal(err)
	}

	cs := content.NewSQLStore(h)
	if err := cs.PutLesson(ctx, content.Lesson{
		ID: "l1", Kind: content.KindReading, Type: content.LessonTheory,
		Title: "Story", DurationSec: 30, Active: true,
	}); err != nil {
		t.Fatal(err)
	}

	rec, err := s.Get(ctx, "u1", "l1")
	if err != nil {
		t.Fatal(err)
	}
	if rec.Attempts != 0 || rec.Completed {
		t.Errorf("fresh record = %+v", rec)
	}

	rec.Attempts = 2
	rec.Score = 80
	rec.Completed = true
	rec.CompletedAt = time.Now().Unix()
	if err := s.Put(ctx, rec); err != nil {
		t.Fatal(err)
	}
	all, err := s.ByUser(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if all["l1"].Score != 80 || !all["l1"].Completed {
		t.Errorf("records = %+v", all)
	}

	if err := s.RecordCompletion(ctx, "u1", 1000, 3, 15); err != nil {
		t.Fatal(err)
	}
	last, streak, err := s.Activity(ctx, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if last != 1000 || streak != 3 {
		t.Errorf("activity = %d %d", last, streak)
	}
}

func TestSessionLifecycle(t *testing.T) {
	h := openTestDB(t)
	sessions := auth.NewSessionStore(h)
	ctx := context.Background()

	for _, u := range []string{"u1", "u2"} {
		_, err := h.ExecContext(ctx,
			`INSERT INTO users (id,username,email,password_hash,role,active,email_verified,created_at)
			 VALUES ($1,$1,$1 || '@example.com','x','user',1,1,0)`, u)
		if err != nil {
			t.Fatal(err)
		}
	}

	id, err := sessions.Create(ctx, "u1", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if !sessions.Alive(ctx, id) {
		t.Fatal("fresh session not alive")
	}
	if sessions.Alive(ctx, "nope") {
		t.Error("unknown session reported alive")
	}

	if err := sessions.Revoke(ctx, id); err != nil {
		t.Fatal(err)
	}
	if sessions.Alive(ctx, id) {
		t.Error("revoked session still alive")
	}
	if err := sessions.Revoke(ctx, "nope"); err == nil {
		t.Error("revoking a missing session should fail")
	}

	// expired sessions are swept
	id2, _ := sessions.Create(ctx, "u1", -time.Minute)
	if sessions.Alive(ctx, id2) {
		t.Error("expired session reported alive")
	}
	n, err := sessions.SweepExpired(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Errorf("swept = %d, want 1", n)
	}

	id3, _ := sessions.Create(ctx, "u2", time.Hour)
	if err := sessions.RevokeAll(ctx, "u2"); err != nil {
		t.Fatal(err)
	}
	if sessions.Alive(ctx, id3) {
		t.Error("revoke-all missed a session")
	}
}
