package progress

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/openlingo/openlingo/internal/content"
	"github.com/openlingo/openlingo/internal/grading"
	syncx "github.com/openlingo/openlingo/internal/sync"
)

// Service implements the lesson-progression rules: sequential unlock within a
// topic (grammar) or across the flat list (reading), theory completion gated
// on reading time, practice completion gated on the pass threshold.
type Service struct {
	content content.Store
	store   Store
	grader  grading.Grader
	events  *syncx.EventRepo // optional
	now     func() time.Time
}

type Option func(*Service)

func WithEventRepo(r *syncx.EventRepo) Option { return func(s *Service) { s.events = r } }
func WithClock(now func() time.Time) Option   { return func(s *Service) { s.now = now } }

func NewService(c content.Store, p Store, g grading.Grader, opts ...Option) *Service {
	s := &Service{content: c, store: p, grader: g, now: time.Now}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Topics returns the grammar topic tree annotated with the user's progress.
func (s *Service) Topics(ctx context.Context, userID string) ([]TopicView, error) {
	active := true
	topics, err := s.content.ListTopics(ctx, content.ListOpts{Active: &active})
	if err != nil {
		return nil, err
	}
	recs, err := s.store.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]TopicView, 0, len(topics))
	for _, t := range topics {
		tv := TopicView{Topic: t}
		tv.Topic.Lessons = nil
		tv.Lessons = annotate(activeOnly(t.Lessons), recs)
		tv.TotalCount = len(tv.Lessons)
		for _, l := range tv.Lessons {
			if l.Completed {
				tv.CompletedCount++
			}
		}
		out = append(out, tv)
	}
	return out, nil
}

// Topic returns a single annotated topic.
func (s *Service) Topic(ctx context.Context, userID, topicID string) (TopicView, error) {
	t, err := s.content.GetTopic(ctx, topicID)
	if err != nil {
		return TopicView{}, err
	}
	recs, err := s.store.ByUser(ctx, userID)
	if err != nil {
		return TopicView{}, err
	}
	tv := TopicView{Topic: t}
	tv.Topic.Lessons = nil
	tv.Lessons = annotate(activeOnly(t.Lessons), recs)
	tv.TotalCount = len(tv.Lessons)
	for _, l := range tv.Lessons {
		if l.Completed {
			tv.CompletedCount++
		}
	}
	return tv, nil
}

// ReadingLessons returns the flat reading track annotated with progress.
func (s *Service) ReadingLessons(ctx context.Context, userID string) ([]LessonStatus, error) {
	active := true
	ls, err := s.content.ListLessons(ctx, content.KindReading, "", content.ListOpts{Active: &active})
	if err != nil {
		return nil, err
	}
	recs, err := s.store.ByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return annotate(ls, recs), nil
}

// Lesson returns full lesson content for the user, with grading material
// stripped. Returns ErrLocked when the unlock chain has not reached it.
func (s *Service) Lesson(ctx context.Context, userID, lessonID string) (LessonStatus, error) {
	l, err := s.content.GetLesson(ctx, lessonID)
	if err != nil {
		return LessonStatus{}, err
	}
	unlocked, _, err := s.unlockState(ctx, userID, l)
	if err != nil {
		return LessonStatus{}, err
	}
	if !unlocked {
		return LessonStatus{}, ErrLocked
	}
	rec, err := s.store.Get(ctx, userID, lessonID)
	if err != nil {
		return LessonStatus{}, err
	}
	content.StripAnswers(&l)
	return LessonStatus{
		Lesson:    l,
		Unlocked:  true,
		Completed: rec.Completed,
		Score:     rec.Score,
		Attempts:  rec.Attempts,
	}, nil
}

// SubmitPractice grades a practice submission and advances progress when the
// pass threshold is met. Every question must be answered; partial
// submissions are rejected before any grading happens.
func (s *Service) SubmitPractice(ctx context.Context, userID, lessonID string, answers map[string]string) (SubmitResult, error) {
	l, err := s.content.GetLesson(ctx, lessonID)
	if err != nil {
		return SubmitResult{}, err
	}
	if l.Type != content.LessonPractice {
		return SubmitResult{}, fmt.Errorf("lesson %s is not a practice lesson", lessonID)
	}
	unlocked, next, err := s.unlockState(ctx, userID, l)
	if err != nil {
		return SubmitResult{}, err
	}
	if !unlocked {
		return SubmitResult{}, ErrLocked
	}
	for _, q := range l.Questions {
		if answers[q.ID] == "" {
			return SubmitResult{}, ErrUnanswered
		}
	}

	res := SubmitResult{
		Results:       map[string]QuestionResult{},
		PassThreshold: PassThreshold,
	}
	earned, total := 0, 0
	for _, q := range l.Questions {
		total += q.Points
		g := s.grader.Grade(q, answers[q.ID])
		earned += g.Points
		res.Results[q.ID] = QuestionResult{
			Correct:     g.Correct,
			Expected:    g.Expected,
			Explanation: g.Explanation,
			Points:      g.Points,
		}
	}
	if total > 0 {
		res.ScorePercent = float64(earned) * 100 / float64(total)
	}
	res.IsPassed = res.ScorePercent >= PassThreshold
	res.EarnedPoints = earned

	rec, err := s.store.Get(ctx, userID, lessonID)
	if err != nil {
		return SubmitResult{}, err
	}
	rec.Attempts++
	if res.ScorePercent > rec.Score {
		rec.Score = res.ScorePercent
	}
	firstCompletion := res.IsPassed && !rec.Completed
	if res.IsPassed {
		rec.Completed = true
		if rec.CompletedAt == 0 {
			rec.CompletedAt = s.now().Unix()
		}
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return SubmitResult{}, err
	}
	res.Attempts = rec.Attempts

	if firstCompletion {
		if err := s.completeUser(ctx, userID, l.Points); err != nil {
			return SubmitResult{}, err
		}
		if next != "" {
			res.HasUnlockedNext = true
			res.NextLessonID = next
		}
	}
	s.logEvent(ctx, "PracticeSubmitted", userID+"|"+lessonID, res)
	return res, nil
}

// CompleteTheory marks a theory lesson done once the reported reading time
// meets the lesson's estimated duration.
func (s *Service) CompleteTheory(ctx context.Context, userID, lessonID string, readSeconds int) (TheoryResult, error) {
	l, err := s.content.GetLesson(ctx, lessonID)
	if err != nil {
		return TheoryResult{}, err
	}
	if l.Type != content.LessonTheory {
		return TheoryResult{}, fmt.Errorf("lesson %s is not a theory lesson", lessonID)
	}
	unlocked, next, err := s.unlockState(ctx, userID, l)
	if err != nil {
		return TheoryResult{}, err
	}
	if !unlocked {
		return TheoryResult{}, ErrLocked
	}
	if readSeconds < l.DurationSec {
		return TheoryResult{}, ErrTooFast
	}

	rec, err := s.store.Get(ctx, userID, lessonID)
	if err != nil {
		return TheoryResult{}, err
	}
	if rec.ReadSeconds < readSeconds {
		rec.ReadSeconds = readSeconds
	}
	firstCompletion := !rec.Completed
	rec.Completed = true
	if rec.CompletedAt == 0 {
		rec.CompletedAt = s.now().Unix()
	}
	if err := s.store.Put(ctx, rec); err != nil {
		return TheoryResult{}, err
	}

	var out TheoryResult
	if firstCompletion {
		if err := s.completeUser(ctx, userID, l.Points); err != nil {
			return TheoryResult{}, err
		}
		if next != "" {
			out.HasUnlockedNext = true
			out.NextLessonID = next
		}
	}
	s.logEvent(ctx, "TheoryCompleted", userID+"|"+lessonID, out)
	return out, nil
}

// Streak returns the user's current daily completion streak.
func (s *Service) Streak(ctx context.Context, userID string) (int, error) {
	_, streak, err := s.store.Activity(ctx, userID)
	return streak, err
}

// unlockState reports whether the lesson is reachable for the user and which
// lesson follows it in the chain.
func (s *Service) unlockState(ctx context.Context, userID string, l content.Lesson) (unlocked bool, next string, err error) {
	siblings, err := s.siblings(ctx, l)
	if err != nil {
		return false, "", err
	}
	recs, err := s.store.ByUser(ctx, userID)
	if err != nil {
		return false, "", err
	}
	prevCompleted := true
	for i, sib := range siblings {
		if sib.ID == l.ID {
			if i+1 < len(siblings) {
				next = siblings[i+1].ID
			}
			return prevCompleted, next, nil
		}
		prevCompleted = recs[sib.ID].Completed
	}
	// lesson not in its own chain: inactive or orphaned
	return false, "", ErrLocked
}

func (s *Service) siblings(ctx context.Context, l content.Lesson) ([]content.Lesson, error) {
	active := true
	if l.Kind == content.KindReading {
		return s.content.ListLessons(ctx, content.KindReading, "", content.ListOpts{Active: &active})
	}
	return s.content.ListLessons(ctx, content.KindGrammar, l.TopicID, content.ListOpts{Active: &active})
}

func (s *Service) completeUser(ctx context.Context, userID string, points int) error {
	last, streak, err := s.store.Activity(ctx, userID)
	if err != nil {
		return err
	}
	now := s.now()
	return s.store.RecordCompletion(ctx, userID, now.Unix(), nextStreak(last, streak, now), points)
}

// nextStreak keeps a streak alive across consecutive days, leaves it alone
// within a day and resets it after a gap.
func nextStreak(lastCompletedAt int64, streak int, now time.Time) int {
	if lastCompletedAt == 0 || streak <= 0 {
		return 1
	}
	last := time.Unix(lastCompletedAt, 0).UTC()
	today := now.UTC().Truncate(24 * time.Hour)
	lastDay := last.Truncate(24 * time.Hour)
	switch today.Sub(lastDay) {
	case 0:
		return streak
	case 24 * time.Hour:
		return streak + 1
	default:
		return 1
	}
}

func annotate(lessons []content.Lesson, recs map[string]Record) []LessonStatus {
	out := make([]LessonStatus, 0, len(lessons))
	prevCompleted := true
	for _, l := range lessons {
		rec := recs[l.ID]
		out = append(out, LessonStatus{
			Lesson:    l,
			Unlocked:  prevCompleted,
			Completed: rec.Completed,
			Score:     rec.Score,
			Attempts:  rec.Attempts,
		})
		prevCompleted = rec.Completed
	}
	return out
}

func activeOnly(lessons []content.Lesson) []content.Lesson {
	out := make([]content.Lesson, 0, len(lessons))
	for _, l := range lessons {
		if l.Active {
			out = append(out, l)
		}
	}
	return out
}

func (s *Service) logEvent(ctx context.Context, typ, key string, data any) {
	if s.events == nil {
		return
	}
	buf, err := json.Marshal(data)
	if err != nil {
		return
	}
	// best-effort; progression state is already persisted
	_ = s.events.Append(ctx, syncx.Event{Type: typ, Key: key, DataJSON: string(buf)})
}
