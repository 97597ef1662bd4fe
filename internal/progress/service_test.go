package progress_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/openlingo/openlingo/internal/content"
	"github.com/openlingo/openlingo/internal/grading"
	"github.com/openlingo/openlingo/internal/progress"
)

const uid = "u1"

// seed builds one topic with theory -> practice -> practice, plus a flat
// reading track with two lessons.
func seed(t *testing.T) content.Store {
	t.Helper()
	s := content.NewInMemoryStore()
	ctx := context.Background()

	must := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
	}
	must(s.PutTopic(ctx, content.Topic{ID: "t1", Name: "Present Simple", RequiredLevel: content.LevelA1, Active: true}))
	must(s.PutLesson(ctx, content.Lesson{
		ID: "l1", TopicID: "t1", Kind: content.KindGrammar, Type: content.LessonTheory,
		Title: "Intro", Content: "<p>rules</p>", DurationSec: 60, Points: 10, OrderIndex: 0, Active: true,
	}))
	must(s.PutLesson(ctx, content.Lesson{
		ID: "l2", TopicID: "t1", Kind: content.KindGrammar, Type: content.LessonPractice,
		Title: "Drill", DurationSec: 120, Points: 20, OrderIndex: 1, Active: true,
	}))
	must(s.PutLesson(ctx, content.Lesson{
		ID: "l3", TopicID: "t1", Kind: content.KindGrammar, Type: content.LessonPractice,
		Title: "More drills", DurationSec: 120, Points: 20, OrderIndex: 2, Active: true,
	}))
	// five equal-weight questions so score percentages land on 20% steps
	for i, id := range []string{"q1", "q2", "q3", "q4", "q5"} {
		must(s.PutQuestion(ctx, content.Question{
			ID: id, LessonID: "l2", Type: content.QuestionShortAnswer,
			Text: "answer me", Answer: "yes", Points: 5, OrderIndex: i,
		}))
	}

	must(s.PutLesson(ctx, content.Lesson{
		ID: "r1", Kind: content.KindReading, Type: content.LessonTheory,
		Title: "Story", Content: "<p>once</p>", DurationSec: 30, Points: 5, OrderIndex: 0, Active: true,
	}))
	must(s.PutLesson(ctx, content.Lesson{
		ID: "r2", Kind: content.KindReading, Type: content.LessonTheory,
		Title: "Sequel", Content: "<p>twice</p>", DurationSec: 30, Points: 5, OrderIndex: 1, Active: true,
	}))
	return s
}

func newService(t *testing.T, opts ...progress.Option) (*progress.Service, content.Store) {
	t.Helper()
	cs := seed(t)
	svc := progress.NewService(cs, progress.NewInMemoryStore(), grading.NewDefaultGrader(), opts...)
	return svc, cs
}

func answers(vals ...string) map[string]string {
	out := map[string]string{}
	ids := []string{"q1", "q2", "q3", "q4", "q5"}
	for i, v := range vals {
		out[ids[i]] = v
	}
	return out
}

func completeTheory(t *testing.T, svc *progress.Service, lessonID string) {
	t.Helper()
	if _, err := svc.CompleteTheory(context.Background(), uid, lessonID, 60); err != nil {
		t.Fatalf("complete %s: %v", lessonID, err)
	}
}

func TestOnlyFirstLessonUnlockedInitially(t *testing.T) {
	svc, _ := newService(t)
	views, err := svc.Topics(context.Background(), uid)
	if err != nil {
		t.Fatal(err)
	}
	ls := views[0].Lessons
	if !ls[0].Unlocked || ls[1].Unlocked || ls[2].Unlocked {
		t.Errorf("unlock flags = %v %v %v", ls[0].Unlocked, ls[1].Unlocked, ls[2].Unlocked)
	}
	if views[0].TotalCount != 3 || views[0].CompletedCount != 0 {
		t.Errorf("counters = %d/%d", views[0].CompletedCount, views[0].TotalCount)
	}
}

func TestLockedLessonIsUnreachable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	if _, err := svc.Lesson(ctx, uid, "l2"); !errors.Is(err, progress.ErrLocked) {
		t.Errorf("Lesson err = %v", err)
	}
	if _, err := svc.SubmitPractice(ctx, uid, "l2", answers("yes", "yes", "yes", "yes", "yes")); !errors.Is(err, progress.ErrLocked) {
		t.Errorf("Submit err = %v", err)
	}
}

func TestLessonStripsGradingMaterial(t *testing.T) {
	svc, _ := newService(t)
	completeTheory(t, svc, "l1")
	l, err := svc.Lesson(context.Background(), uid, "l2")
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range l.Questions {
		if q.Answer != "" || q.Explanation != "" {
			t.Fatalf("answers leaked in %s", q.ID)
		}
	}
}

func TestTheoryTooFastIsRejected(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.CompleteTheory(context.Background(), uid, "l1", 59); !errors.Is(err, progress.ErrTooFast) {
		t.Errorf("err = %v", err)
	}
}

func TestTheoryCompletionUnlocksNext(t *testing.T) {
	svc, _ := newService(t)
	res, err := svc.CompleteTheory(context.Background(), uid, "l1", 61)
	if err != nil {
		t.Fatal(err)
	}
	if !res.HasUnlockedNext || res.NextLessonID != "l2" {
		t.Errorf("result = %+v", res)
	}

	// repeat completion is idempotent and unlocks nothing further
	res, err = svc.CompleteTheory(context.Background(), uid, "l1", 61)
	if err != nil {
		t.Fatal(err)
	}
	if res.HasUnlockedNext {
		t.Error("second completion reported an unlock")
	}
}

func TestSubmitRejectsPartialAnswers(t *testing.T) {
	svc, _ := newService(t)
	completeTheory(t, svc, "l1")
	_, err := svc.SubmitPractice(context.Background(), uid, "l2",
		answers("yes", "yes", "yes", "yes")) // q5 missing
	if !errors.Is(err, progress.ErrUnanswered) {
		t.Errorf("err = %v", err)
	}
}

func TestSubmitExactlyAtThresholdPasses(t *testing.T) {
	svc, _ := newService(t)
	completeTheory(t, svc, "l1")

	// 4 of 5 correct is exactly 80%
	res, err := svc.SubmitPractice(context.Background(), uid, "l2",
		answers("yes", "yes", "yes", "yes", "no"))
	if err != nil {
		t.Fatal(err)
	}
	if res.ScorePercent != 80 {
		t.Fatalf("score = %v", res.ScorePercent)
	}
	if !res.IsPassed {
		t.Error("80% should pass at an 80% threshold")
	}
	if res.PassThreshold != 80 {
		t.Errorf("threshold = %v", res.PassThreshold)
	}
	if !res.HasUnlockedNext || res.NextLessonID != "l3" {
		t.Errorf("unlock = %v %q", res.HasUnlockedNext, res.NextLessonID)
	}
}

func TestSubmitBelowThresholdFailsAndCountsAttempt(t *testing.T) {
	svc, _ := newService(t)
	completeTheory(t, svc, "l1")
	ctx := context.Background()

	res, err := svc.SubmitPractice(ctx, uid, "l2", answers("yes", "yes", "yes", "no", "no"))
	if err != nil {
		t.Fatal(err)
	}
	if res.IsPassed || res.ScorePercent != 60 {
		t.Fatalf("result = %+v", res)
	}
	if res.HasUnlockedNext {
		t.Error("failing submission unlocked the next lesson")
	}
	if res.Attempts != 1 {
		t.Errorf("attempts = %d", res.Attempts)
	}

	// failing again bumps attempts; best score is kept
	res, _ = svc.SubmitPractice(ctx, uid, "l2", answers("yes", "no", "no", "no", "no"))
	if res.Attempts != 2 {
		t.Errorf("attempts = %d", res.Attempts)
	}
	l, _ := svc.Lesson(ctx, uid, "l2")
	if l.Score != 60 {
		t.Errorf("best score = %v", l.Score)
	}
}

func TestPassingTwiceAwardsPointsOnce(t *testing.T) {
	svc, _ := newService(t)
	completeTheory(t, svc, "l1")
	ctx := context.Background()
	all := answers("yes", "yes", "yes", "yes", "yes")

	first, err := svc.SubmitPractice(ctx, uid, "l2", all)
	if err != nil {
		t.Fatal(err)
	}
	if !first.HasUnlockedNext {
		t.Fatal("first pass did not unlock")
	}
	second, err := svc.SubmitPractice(ctx, uid, "l2", all)
	if err != nil {
		t.Fatal(err)
	}
	if second.HasUnlockedNext {
		t.Error("repeat pass reported a fresh unlock")
	}
	if second.Attempts != 2 {
		t.Errorf("attempts = %d", second.Attempts)
	}
}

func TestReadingTrackUnlocksSequentially(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	ls, err := svc.ReadingLessons(ctx, uid)
	if err != nil {
		t.Fatal(err)
	}
	if !ls[0].Unlocked || ls[1].Unlocked {
		t.Errorf("initial unlocks = %v %v", ls[0].Unlocked, ls[1].Unlocked)
	}

	res, err := svc.CompleteTheory(ctx, uid, "r1", 30)
	if err != nil {
		t.Fatal(err)
	}
	if !res.HasUnlockedNext || res.NextLessonID != "r2" {
		t.Errorf("result = %+v", res)
	}
	ls, _ = svc.ReadingLessons(ctx, uid)
	if !ls[1].Unlocked {
		t.Error("second reading lesson still locked")
	}
}

func TestStreakAcrossDays(t *testing.T) {
	day1 := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
	now := day1
	svc, _ := newService(t, progress.WithClock(func() time.Time { return now }))
	ctx := context.Background()

	completeTheory(t, svc, "l1")
	if got := streakOf(t, svc); got != 1 {
		t.Fatalf("streak after first completion = %d", got)
	}

	// same day: streak holds
	now = day1.Add(2 * time.Hour)
	mustSubmitPass(t, svc, "l2")
	if got := streakOf(t, svc); got != 1 {
		t.Errorf("same-day streak = %d", got)
	}

	// next day: streak grows
	now = day1.Add(26 * time.Hour)
	completeTheory(t, svc, "r1")
	if got := streakOf(t, svc); got != 2 {
		t.Errorf("next-day streak = %d", got)
	}

	// a skipped day resets to 1
	now = day1.Add(4 * 24 * time.Hour)
	if _, err := svc.CompleteTheory(ctx, uid, "r2", 30); err != nil {
		t.Fatal(err)
	}
	if got := streakOf(t, svc); got != 1 {
		t.Errorf("post-gap streak = %d", got)
	}
}

func mustSubmitPass(t *testing.T, svc *progress.Service, lessonID string) {
	t.Helper()
	res, err := svc.SubmitPractice(context.Background(), uid, lessonID,
		answers("yes", "yes", "yes", "yes", "yes"))
	if err != nil || !res.IsPassed {
		t.Fatalf("pass %s: %v %+v", lessonID, err, res)
	}
}

func streakOf(t *testing.T, svc *progress.Service) int {
	t.Helper()
	st, err := svc.Streak(context.Background(), uid)
	if err != nil {
		t.Fatal(err)
	}
	return st
}
