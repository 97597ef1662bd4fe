package learner

import (
	"context"
	"fmt"
	"sync"

	"github.com/openlingo/openlingo/pkg/client"
	"github.com/openlingo/openlingo/pkg/client/session"
)

// Phase is the progression state for the current lesson. Exactly one phase
// is active at a time; the transient fields below only mean something in the
// phase that owns them.
type Phase int

const (
	PhaseUnloaded Phase = iota
	PhaseLoading
	PhaseTheoryReading
	PhasePracticeActive
	PhaseSubmitting
	PhaseResultShown
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseTheoryReading:
		return "theory"
	case PhasePracticeActive:
		return "practice"
	case PhaseSubmitting:
		return "submitting"
	case PhaseResultShown:
		return "result"
	default:
		return "unloaded"
	}
}

// Service is what a flow needs from the API: the track adapters returned by
// client.Grammar and client.Reading both satisfy it.
type Service interface {
	LoadTree(ctx context.Context) ([]client.Topic, error)
	LoadLesson(ctx context.Context, id string) (client.Lesson, error)
	Submit(ctx context.Context, id string, answers map[string]string) (client.SubmitResult, error)
	CompleteTheory(ctx context.Context, id string, readSeconds int) (client.TheoryResult, error)
}

// Pointer persists the last-viewed lesson per track. *session.Store
// satisfies it.
type Pointer interface {
	CurrentLessonID(t session.Track) string
	SetCurrentLessonID(t session.Track, id string) error
}

// Level classifies a notice for display.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

// Notice is a user-facing message emitted by the flow.
type Notice struct {
	Level Level
	Text  string
}

// Notifier receives flow notices. A nil notifier drops them.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(n Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Flow is the progression state machine for one track. All methods are safe
// for concurrent use; network calls run without the lock held and a
// generation counter discards responses that arrive after a newer lesson was
// selected.
type Flow struct {
	svc    Service
	sess   Pointer
	track  session.Track
	notify Notifier

	mu     sync.Mutex
	gen    uint64
	phase  Phase
	topics []client.Topic
	lesson client.Lesson

	// theory gating
	elapsedSec    int
	scrolledToEnd bool

	// practice
	answers      map[string]string
	hasSubmitted bool
	result       *client.SubmitResult
}

func NewFlow(svc Service, sess Pointer, track session.Track, notify Notifier) *Flow {
	return &Flow{
		svc:     svc,
		sess:    sess,
		track:   track,
		notify:  notify,
		answers: map[string]string{},
	}
}

func (f *Flow) emit(level Level, format string, args ...any) {
	if f.notify != nil {
		f.notify.Notify(Notice{Level: level, Text: fmt.Sprintf(format, args...)})
	}
}

// Load fetches the lesson tree and restores the viewer position: the
// persisted lesson pointer when it still points at an unlocked lesson,
// otherwise the first unlocked lesson in order. When nothing is unlocked the
// flow stays unloaded and says so.
func (f *Flow) Load(ctx context.Context) error {
	f.mu.Lock()
	f.gen++
	g := f.gen
	f.phase = PhaseLoading
	f.mu.Unlock()

	topics, err := f.svc.LoadTree(ctx)

	f.mu.Lock()
	if f.gen != g {
		f.mu.Unlock()
		return nil
	}
	if err != nil {
		f.phase = PhaseUnloaded
		f.mu.Unlock()
		f.emit(LevelError, "could not load lessons: %v", err)
		return err
	}
	f.topics = topics
	target := ""
	if saved := f.sess.CurrentLessonID(f.track); saved != "" {
		if l, ok := findLesson(topics, saved); ok && l.Unlocked {
			target = saved
		}
	}
	if target == "" {
		if l, ok := firstUnlocked(topics); ok {
			target = l.ID
		}
	}
	if target == "" {
		f.phase = PhaseUnloaded
		f.mu.Unlock()
		f.emit(LevelInfo, "no lessons are unlocked yet")
		return nil
	}
	f.mu.Unlock()
	return f.load(ctx, target)
}

// SelectLesson switches to another lesson from the tree. Locked lessons are
// refused with a notice and the current lesson stays put.
func (f *Flow) SelectLesson(ctx context.Context, id string) error {
	f.mu.Lock()
	l, ok := findLesson(f.topics, id)
	f.mu.Unlock()
	if ok && !l.Unlocked {
		f.emit(LevelInfo, "complete the previous lesson to unlock %q", l.Title)
		return nil
	}
	return f.load(ctx, id)
}

// load fetches one lesson and makes it current, resetting all transient
// state. Reloading the lesson that is already current is a no-op. Nothing is
// committed before the fetch succeeds: a failed switch keeps the lesson that
// was on screen and leaves the persisted pointer where it was.
func (f *Flow) load(ctx context.Context, id string) error {
	f.mu.Lock()
	if f.lesson.ID == id && f.phase != PhaseUnloaded && f.phase != PhaseLoading {
		f.mu.Unlock()
		return nil
	}
	f.gen++
	g := f.gen
	prev := f.phase
	f.phase = PhaseLoading
	f.mu.Unlock()

	l, err := f.svc.LoadLesson(ctx, id)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen != g {
		return nil
	}
	if err != nil {
		if prev == PhaseLoading || f.lesson.ID == "" {
			prev = PhaseUnloaded
		}
		f.phase = prev
		f.emit(LevelError, "could not load lesson: %v", err)
		return err
	}
	if err := f.sess.SetCurrentLessonID(f.track, id); err != nil {
		f.emit(LevelError, "could not save position: %v", err)
	}
	f.lesson = l
	f.elapsedSec = 0
	f.scrolledToEnd = false
	f.answers = map[string]string{}
	f.hasSubmitted = false
	f.result = nil
	if l.Type == "THEORY" {
		f.phase = PhaseTheoryReading
	} else {
		f.phase = PhasePracticeActive
	}
	return nil
}

// RefreshTree reloads the lesson tree without touching the current lesson.
// A refresh overtaken by a newer load is discarded.
func (f *Flow) RefreshTree(ctx context.Context) error {
	f.mu.Lock()
	g := f.gen
	f.mu.Unlock()

	topics, err := f.svc.LoadTree(ctx)
	if err != nil {
		return err
	}
	f.mu.Lock()
	if f.gen == g {
		f.topics = topics
	}
	f.mu.Unlock()
	return nil
}

// TickTheory accrues reading time while a theory lesson is open.
func (f *Flow) TickTheory(seconds int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == PhaseTheoryReading {
		f.elapsedSec += seconds
	}
}

// SetScrolledToEnd records that the reader reached the end of the text.
func (f *Flow) SetScrolledToEnd() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase == PhaseTheoryReading {
		f.scrolledToEnd = true
	}
}

// CanCompleteTheory reports whether the completion button should be live:
// the reader must have scrolled to the end AND spent the lesson's minimum
// reading time. Either one alone is not enough.
func (f *Flow) CanCompleteTheory() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase == PhaseTheoryReading &&
		f.scrolledToEnd &&
		f.elapsedSec >= f.lesson.DurationSec
}

// CompleteTheory marks the current theory lesson read. On success the flow
// advances to the newly unlocked lesson, or refreshes the tree when there is
// nothing further to advance to.
func (f *Flow) CompleteTheory(ctx context.Context) error {
	if !f.CanCompleteTheory() {
		f.emit(LevelInfo, "finish reading the lesson first")
		return nil
	}
	f.mu.Lock()
	id := f.lesson.ID
	elapsed := f.elapsedSec
	f.mu.Unlock()

	res, err := f.svc.CompleteTheory(ctx, id, elapsed)
	if err != nil {
		f.emit(LevelError, "could not complete lesson: %v", err)
		return err
	}
	f.emit(LevelSuccess, "lesson completed")
	if res.HasUnlockedNext && res.NextLessonID != "" {
		if err := f.RefreshTree(ctx); err != nil {
			return err
		}
		return f.load(ctx, res.NextLessonID)
	}
	return f.RefreshTree(ctx)
}

// SetAnswer records the learner's answer for one question. After results are
// shown, editing an answer clears that question's result so stale feedback
// is never displayed against a new answer; the rest of the result sheet
// stays.
func (f *Flow) SetAnswer(questionID, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.phase != PhasePracticeActive && f.phase != PhaseResultShown {
		return
	}
	f.answers[questionID] = value
	if f.result != nil {
		delete(f.result.Results, questionID)
	}
}

// Submit grades the current practice lesson. Submission is refused locally,
// with no network call, while any question is unanswered.
func (f *Flow) Submit(ctx context.Context) error {
	f.mu.Lock()
	if f.phase != PhasePracticeActive && f.phase != PhaseResultShown {
		f.mu.Unlock()
		return nil
	}
	missing := 0
	for _, q := range f.lesson.Questions {
		if f.answers[q.ID] == "" {
			missing++
		}
	}
	if missing > 0 {
		f.mu.Unlock()
		f.emit(LevelInfo, "answer all questions first (%d unanswered)", missing)
		return nil
	}
	f.gen++
	g := f.gen
	f.phase = PhaseSubmitting
	id := f.lesson.ID
	answers := make(map[string]string, len(f.answers))
	for k, v := range f.answers {
		answers[k] = v
	}
	f.mu.Unlock()

	res, err := f.svc.Submit(ctx, id, answers)

	f.mu.Lock()
	if f.gen != g {
		f.mu.Unlock()
		return nil
	}
	if err != nil {
		f.phase = PhasePracticeActive
		f.mu.Unlock()
		f.emit(LevelError, "could not submit answers: %v", err)
		return err
	}
	f.phase = PhaseResultShown
	f.hasSubmitted = true
	f.result = &res
	f.mu.Unlock()

	if res.IsPassed {
		f.emit(LevelSuccess, "passed with %.0f%% (needed %.0f%%)", res.ScorePercent, res.PassThreshold)
	} else {
		f.emit(LevelInfo, "scored %.0f%%, need %.0f%% to pass", res.ScorePercent, res.PassThreshold)
	}
	if res.HasUnlockedNext {
		f.emit(LevelInfo, "next lesson unlocked")
	}
	return f.RefreshTree(ctx)
}

// Retry clears answers and results and re-fetches the current lesson for a
// fresh attempt.
func (f *Flow) Retry(ctx context.Context) error {
	f.mu.Lock()
	id := f.lesson.ID
	f.lesson = client.Lesson{}
	f.phase = PhaseUnloaded
	f.mu.Unlock()
	if id == "" {
		return nil
	}
	return f.load(ctx, id)
}

// Phase returns the current progression phase.
func (f *Flow) Phase() Phase {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.phase
}

// Lesson returns a copy of the current lesson.
func (f *Flow) Lesson() client.Lesson {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lesson
}

// Topics returns the loaded lesson tree.
func (f *Flow) Topics() []client.Topic {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.topics
}

// Answer returns the recorded answer for a question.
func (f *Flow) Answer(questionID string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.answers[questionID]
}

// Result returns the last submission result, or nil before any submission.
func (f *Flow) Result() *client.SubmitResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// HasSubmitted reports whether the current lesson has been submitted at
// least once since it was loaded.
func (f *Flow) HasSubmitted() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasSubmitted
}

func findLesson(topics []client.Topic, id string) (client.Lesson, bool) {
	for _, t := range topics {
		for _, l := range t.Lessons {
			if l.ID == id {
				return l, true
			}
		}
	}
	return client.Lesson{}, false
}

func firstUnlocked(topics []client.Topic) (client.Lesson, bool) {
	for _, t := range topics {
		for _, l := range t.Lessons {
			if l.Unlocked && !l.Completed {
				return l, true
			}
		}
	}
	// everything completed still leaves the learner somewhere sensible
	for _, t := range topics {
		for _, l := range t.Lessons {
			if l.Unlocked {
				return l, true
			}
		}
	}
	return client.Lesson{}, false
}
