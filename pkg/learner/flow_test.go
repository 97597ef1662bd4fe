package learner_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/openlingo/openlingo/pkg/client"
	"github.com/openlingo/openlingo/pkg/client/session"
	"github.com/openlingo/openlingo/pkg/learner"
)

// fakeService serves a canned tree and counts calls so tests can assert
// that certain operations never hit the network.
type fakeService struct {
	topics []client.Topic

	treeCalls   int
	lessonCalls int
	submitCalls int
	theoryCalls int

	submitResult client.SubmitResult
	submitErr    error
	lessonErr    error
	theoryResult client.TheoryResult

	// onTree, when set, runs during LoadTree before the tree is read, so a
	// test can interleave other flow calls with an in-flight fetch.
	onTree func()
}

func (f *fakeService) LoadTree(ctx context.Context) ([]client.Topic, error) {
	f.treeCalls++
	if f.onTree != nil {
		f.onTree()
	}
	return f.topics, nil
}

func (f *fakeService) LoadLesson(ctx context.Context, id string) (client.Lesson, error) {
	f.lessonCalls++
	if f.lessonErr != nil {
		return client.Lesson{}, f.lessonErr
	}
	for _, t := range f.topics {
		for _, l := range t.Lessons {
			if l.ID == id {
				return l, nil
			}
		}
	}
	return client.Lesson{}, errors.New("lesson not found")
}

func (f *fakeService) Submit(ctx context.Context, id string, answers map[string]string) (client.SubmitResult, error) {
	f.submitCalls++
	return f.submitResult, f.submitErr
}

func (f *fakeService) CompleteTheory(ctx context.Context, id string, readSeconds int) (client.TheoryResult, error) {
	f.theoryCalls++
	return f.theoryResult, nil
}

type noticeLog struct{ notices []learner.Notice }

func (n *noticeLog) Notify(x learner.Notice) { n.notices = append(n.notices, x) }

func (n *noticeLog) containing(sub string) bool {
	for _, x := range n.notices {
		if strings.Contains(x.Text, sub) {
			return true
		}
	}
	return false
}

func sampleTree() []client.Topic {
	return []client.Topic{{
		ID: "t1", Name: "Present Simple",
		Lessons: []client.Lesson{
			{ID: "l1", Type: "THEORY", Title: "Intro", DurationSec: 60,
				Unlocked: true, Completed: true},
			{ID: "l2", Type: "PRACTICE", Title: "Drill", Unlocked: true,
				Questions: []client.Question{
					{ID: "q1", Type: "MULTIPLE_CHOICE", Text: "Pick one"},
					{ID: "q2", Type: "FILL_BLANK", Text: "She ___ tea"},
				}},
			{ID: "l3", Type: "THEORY", Title: "Negatives", DurationSec: 30},
		},
	}}
}

func newFlow(t *testing.T, svc *fakeService) (*learner.Flow, *session.Store, *noticeLog) {
	t.Helper()
	sess, err := session.NewStore(session.NewMemStorage())
	if err != nil {
		t.Fatal(err)
	}
	log := &noticeLog{}
	return learner.NewFlow(svc, sess, session.TrackGrammar, log), sess, log
}

func TestLoadFallsBackToFirstUnlockedUncompleted(t *testing.T) {
	svc := &fakeService{topics: sampleTree()}
	f, _, _ := newFlow(t, svc)

	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.Lesson().ID; got != "l2" {
		t.Errorf("current lesson = %q, want the first unlocked uncompleted", got)
	}
	if f.Phase() != learner.PhasePracticeActive {
		t.Errorf("phase = %v", f.Phase())
	}
}

func TestLoadRestoresSavedPosition(t *testing.T) {
	svc := &fakeService{topics: sampleTree()}
	f, sess, _ := newFlow(t, svc)
	_ = sess.SetCurrentLessonID(session.TrackGrammar, "l1")

	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.Lesson().ID; got != "l1" {
		t.Errorf("current lesson = %q, want the saved one", got)
	}
	if f.Phase() != learner.PhaseTheoryReading {
		t.Errorf("phase = %v", f.Phase())
	}
}

func TestLoadIgnoresSavedPointerToLockedLesson(t *testing.T) {
	svc := &fakeService{topics: sampleTree()}
	f, sess, _ := newFlow(t, svc)
	_ = sess.SetCurrentLessonID(session.TrackGrammar, "l3") // locked

	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.Lesson().ID; got != "l2" {
		t.Errorf("current lesson = %q, want the fallback", got)
	}
}

func TestLoadWithNothingUnlocked(t *testing.T) {
	tree := sampleTree()
	for i := range tree[0].Lessons {
		tree[0].Lessons[i].Unlocked = false
		tree[0].Lessons[i].Completed = false
	}
	svc := &fakeService{topics: tree}
	f, _, log := newFlow(t, svc)

	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if f.Phase() != learner.PhaseUnloaded {
		t.Errorf("phase = %v, want unloaded", f.Phase())
	}
	if !log.containing("no lessons") {
		t.Error("expected a notice about nothing being unlocked")
	}
}

func TestSelectLockedLessonIsRefusedWithoutNetwork(t *testing.T) {
	svc := &fakeService{topics: sampleTree()}
	f, _, log := newFlow(t, svc)
	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := svc.lessonCalls

	if err := f.SelectLesson(context.Background(), "l3"); err != nil {
		t.Fatal(err)
	}
	if svc.lessonCalls != before {
		t.Error("locked lesson selection still hit the API")
	}
	if got := f.Lesson().ID; got != "l2" {
		t.Errorf("current lesson changed to %q", got)
	}
	if !log.containing("unlock") {
		t.Error("expected a locked-lesson notice")
	}
}

func TestFailedSelectKeepsCurrentLessonAndPointer(t *testing.T) {
	tree := sampleTree()
	tree[0].Lessons[2].Unlocked = true
	svc := &fakeService{topics: tree}
	f, sess, log := newFlow(t, svc)
	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.Lesson().ID; got != "l2" {
		t.Fatalf("current lesson = %q", got)
	}

	svc.lessonErr = errors.New("server unavailable")
	if err := f.SelectLesson(context.Background(), "l3"); err == nil {
		t.Fatal("failed load did not report its error")
	}
	if got := f.Lesson().ID; got != "l2" {
		t.Errorf("current lesson = %q, want the one before the failed switch", got)
	}
	if f.Phase() != learner.PhasePracticeActive {
		t.Errorf("phase = %v, want the pre-switch phase", f.Phase())
	}
	if got := sess.CurrentLessonID(session.TrackGrammar); got != "l2" {
		t.Errorf("persisted pointer = %q, want l2", got)
	}
	if !log.containing("could not load lesson") {
		t.Error("expected a load-failure notice")
	}
}

func TestStaleTreeRefreshIsDiscarded(t *testing.T) {
	svc := &fakeService{topics: sampleTree()}
	f, _, _ := newFlow(t, svc)
	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	oldTree := sampleTree()
	newTree := sampleTree()
	newTree[0].Lessons[2].Unlocked = true

	fired := false
	svc.onTree = func() {
		if fired {
			return
		}
		fired = true
		// a newer load finishes while this refresh is still in flight
		svc.topics = newTree
		if err := f.Load(context.Background()); err != nil {
			t.Fatal(err)
		}
		// the slow refresh then comes back with the stale tree
		svc.topics = oldTree
	}
	if err := f.RefreshTree(context.Background()); err != nil {
		t.Fatal(err)
	}

	var l3 client.Lesson
	for _, l := range f.Topics()[0].Lessons {
		if l.ID == "l3" {
			l3 = l
		}
	}
	if !l3.Unlocked {
		t.Error("stale tree refresh overwrote the newer tree")
	}
}

func TestReloadingCurrentLessonIsNoop(t *testing.T) {
	svc := &fakeService{topics: sampleTree()}
	f, _, _ := newFlow(t, svc)
	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	before := svc.lessonCalls
	if err := f.SelectLesson(context.Background(), "l2"); err != nil {
		t.Fatal(err)
	}
	if svc.lessonCalls != before {
		t.Error("reselecting the current lesson refetched it")
	}
}

func TestTheoryGateNeedsScrollAndTime(t *testing.T) {
	svc := &fakeService{topics: sampleTree()}
	f, sess, _ := newFlow(t, svc)
	_ = sess.SetCurrentLessonID(session.TrackGrammar, "l1")
	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}

	if f.CanCompleteTheory() {
		t.Fatal("gate open with neither condition met")
	}
	f.SetScrolledToEnd()
	if f.CanCompleteTheory() {
		t.Fatal("gate open on scroll alone")
	}
	f.TickTheory(59)
	if f.CanCompleteTheory() {
		t.Fatal("gate open before the minimum reading time")
	}
	f.TickTheory(1)
	if !f.CanCompleteTheory() {
		t.Fatal("gate closed with both conditions met")
	}

	// CompleteTheory before the gate opens is refused without a call
	f2, _, log2 := newFlow(t, svc)
	_ = f2.Load(context.Background())
	before := svc.theoryCalls
	_ = f2.CompleteTheory(context.Background())
	if svc.theoryCalls != before {
		t.Error("ungated completion hit the API")
	}
	if !log2.containing("finish reading") {
		t.Error("expected a gate notice")
	}
}

func TestCompleteTheoryAdvancesToUnlockedLesson(t *testing.T) {
	svc := &fakeService{
		topics:       sampleTree(),
		theoryResult: client.TheoryResult{HasUnlockedNext: true, NextLessonID: "l2"},
	}
	f, sess, _ := newFlow(t, svc)
	_ = sess.SetCurrentLessonID(session.TrackGrammar, "l1")
	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.SetScrolledToEnd()
	f.TickTheory(60)

	if err := f.CompleteTheory(context.Background()); err != nil {
		t.Fatal(err)
	}
	if got := f.Lesson().ID; got != "l2" {
		t.Errorf("did not advance, current = %q", got)
	}
	if got := sess.CurrentLessonID(session.TrackGrammar); got != "l2" {
		t.Errorf("pointer not persisted, = %q", got)
	}
}

func TestSubmitRefusedWhileUnanswered(t *testing.T) {
	svc := &fakeService{topics: sampleTree()}
	f, _, log := newFlow(t, svc)
	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.SetAnswer("q1", "a")

	if err := f.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if svc.submitCalls != 0 {
		t.Error("incomplete submission hit the API")
	}
	if !log.containing("1 unanswered") {
		t.Errorf("expected an unanswered-count notice, got %v", log.notices)
	}
	if f.Phase() != learner.PhasePracticeActive {
		t.Errorf("phase = %v", f.Phase())
	}
}

func TestSubmitShowsResultAndNotices(t *testing.T) {
	svc := &fakeService{
		topics: sampleTree(),
		submitResult: client.SubmitResult{
			Results: map[string]client.QuestionResult{
				"q1": {Correct: true},
				"q2": {Correct: false, Expected: "drinks"},
			},
			ScorePercent:    50,
			IsPassed:        false,
			PassThreshold:   80,
			Attempts:        1,
			HasUnlockedNext: false,
		},
	}
	f, _, log := newFlow(t, svc)
	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.SetAnswer("q1", "a")
	f.SetAnswer("q2", "drank")

	if err := f.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if svc.submitCalls != 1 {
		t.Fatalf("submit calls = %d", svc.submitCalls)
	}
	if f.Phase() != learner.PhaseResultShown {
		t.Fatalf("phase = %v", f.Phase())
	}
	if !f.HasSubmitted() {
		t.Error("HasSubmitted = false after a submission")
	}
	if !log.containing("scored 50%") || !log.containing("80%") {
		t.Errorf("notice should carry score and threshold, got %v", log.notices)
	}

	// editing one answer clears only that question's feedback
	f.SetAnswer("q2", "drinks")
	res := f.Result()
	if _, ok := res.Results["q2"]; ok {
		t.Error("edited question kept its stale result")
	}
	if _, ok := res.Results["q1"]; !ok {
		t.Error("untouched question lost its result")
	}
	if !f.HasSubmitted() {
		t.Error("HasSubmitted reset by an edit")
	}
}

func TestSubmitPassNoticeAndUnlock(t *testing.T) {
	svc := &fakeService{
		topics: sampleTree(),
		submitResult: client.SubmitResult{
			Results:         map[string]client.QuestionResult{"q1": {Correct: true}, "q2": {Correct: true}},
			ScorePercent:    100,
			IsPassed:        true,
			PassThreshold:   80,
			HasUnlockedNext: true,
			NextLessonID:    "l3",
		},
	}
	f, _, log := newFlow(t, svc)
	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.SetAnswer("q1", "a")
	f.SetAnswer("q2", "b")

	if err := f.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !log.containing("passed with 100%") {
		t.Errorf("missing pass notice, got %v", log.notices)
	}
	if !log.containing("next lesson unlocked") {
		t.Errorf("missing unlock notice, got %v", log.notices)
	}
}

func TestRetryClearsAndRefetches(t *testing.T) {
	svc := &fakeService{
		topics: sampleTree(),
		submitResult: client.SubmitResult{
			Results:       map[string]client.QuestionResult{"q1": {}, "q2": {}},
			ScorePercent:  0,
			PassThreshold: 80,
		},
	}
	f, _, _ := newFlow(t, svc)
	if err := f.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	f.SetAnswer("q1", "a")
	f.SetAnswer("q2", "b")
	_ = f.Submit(context.Background())

	before := svc.lessonCalls
	if err := f.Retry(context.Background()); err != nil {
		t.Fatal(err)
	}
	if svc.lessonCalls != before+1 {
		t.Error("retry did not refetch the lesson")
	}
	if f.Result() != nil || f.HasSubmitted() {
		t.Error("retry kept stale results")
	}
	if f.Answer("q1") != "" {
		t.Error("retry kept stale answers")
	}
	if f.Phase() != learner.PhasePracticeActive {
		t.Errorf("phase = %v", f.Phase())
	}
}
