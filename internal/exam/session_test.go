package exam

import (
	"testing"
	"time"

	"github.com/minhph/diem10tin/internal/model"
)

func TestNewQuizSessionRejectsEmptyAndInvalid(t *testing.T) {
	if _, err := NewQuizSession(nil); err == nil {
		t.Error("expected error for empty question list")
	}
	bad := singleChoice("q1", "python", "z") // correct letter not among options
	if _, err := NewQuizSession([]model.Question{bad}); err == nil {
		t.Error("expected error for invalid question")
	}
}

func TestQuizSessionSubmitIdempotent(t *testing.T) {
	s, err := NewQuizSession([]model.Question{singleChoice("q1", "python", "a")})
	if err != nil {
		t.Fatal(err)
	}
	s.SetAnswer("q1", model.ChoiceAnswer("a"))

	first, already := s.Submit()
	if already {
		t.Fatal("first submit reported already=true")
	}
	if first.Score != 10 || first.CorrectCount != 1 {
		t.Errorf("result = score %v, correct %d; want 10, 1", first.Score, first.CorrectCount)
	}

	second, already := s.Submit()
	if !already {
		t.Error("second submit reported already=false")
	}
	if second != first {
		t.Error("second submit returned a different record")
	}
}

func TestQuizSessionMutationsDroppedAfterSubmit(t *testing.T) {
	s, err := NewQuizSession([]model.Question{singleChoice("q1", "python", "a")})
	if err != nil {
		t.Fatal(err)
	}
	result, _ := s.Submit()
	if result.Score != 0 {
		t.Fatalf("unanswered quiz scored %v, want 0", result.Score)
	}

	s.SetAnswer("q1", model.ChoiceAnswer("a"))
	s.ToggleFlag("q1")
	s.SetCurrent(0)

	state := s.State()
	if state.Answered != 0 || len(state.Flagged) != 0 {
		t.Errorf("state mutated after submit: %+v", state)
	}
}

func TestQuizSessionTickExpirySubmits(t *testing.T) {
	s, err := NewQuizSession([]model.Question{singleChoice("q1", "python", "a")})
	if err != nil {
		t.Fatal(err)
	}
	s.mu.Lock()
	s.remaining = 2
	s.mu.Unlock()

	if s.Tick() {
		t.Fatal("tick ended the session one second early")
	}
	if !s.Tick() {
		t.Fatal("tick at zero did not end the session")
	}
	if !s.Submitted() {
		t.Error("session not submitted after expiry")
	}
	// A tick after expiry is a no-op.
	if s.Tick() {
		t.Error("tick after expiry reported expiry again")
	}
}

func TestExamSessionPart3Flow(t *testing.T) {
	s, err := NewExamSession(makeExam())
	if err != nil {
		t.Fatal(err)
	}

	// Part 3 answers before choosing a pair are dropped.
	s.SetTrueFalse(3, 1, "a", true)
	if got := s.State().Part3Answered; got != 0 {
		t.Fatalf("part 3 answered before choice = %d, want 0", got)
	}

	s.ChoosePart3(model.Part3Option1)
	s.SetTrueFalse(3, 1, "a", true)
	s.SetTrueFalse(3, 2, "b", false)
	if got := s.State().Part3Answered; got != 2 {
		t.Fatalf("part 3 answered = %d, want 2", got)
	}

	// Switching the pair clears everything answered for part 3.
	s.ChoosePart3(model.Part3Option2)
	state := s.State()
	if state.Part3Answered != 0 {
		t.Errorf("part 3 answers survived a pair switch: %d", state.Part3Answered)
	}
	if state.Part3Choice != model.Part3Option2 {
		t.Errorf("Part3Choice = %q, want %q", state.Part3Choice, model.Part3Option2)
	}
}

func TestExamSessionSubmitSnapshotsAnswers(t *testing.T) {
	s, err := NewExamSession(makeExam())
	if err != nil {
		t.Fatal(err)
	}
	s.SetPart1Answer(1, "a")
	s.SetTrueFalse(2, 1, "a", true)
	s.ChoosePart3(model.Part3Option2)
	s.SetTrueFalse(3, 1, "a", true)

	attempt, already := s.Submit()
	if already {
		t.Fatal("first submit reported already=true")
	}
	if attempt.Score.Part1Correct != 1 {
		t.Errorf("Part1Correct = %d, want 1", attempt.Score.Part1Correct)
	}
	if attempt.Answers.Part3Choice != model.Part3Option2 {
		t.Errorf("Part3Choice = %q, want %q", attempt.Answers.Part3Choice, model.Part3Option2)
	}

	// Mutating after submit must not touch the frozen record.
	s.SetPart1Answer(2, "a")
	if len(attempt.Answers.Part1) != 1 {
		t.Errorf("frozen answers changed after submit: %v", attempt.Answers.Part1)
	}

	again, already := s.Submit()
	if !already || again != attempt {
		t.Error("duplicate submit did not return the same record")
	}
}

// recordingSink collects persisted records behind channels so tests can wait
// for the manager's fire-and-forget writes.
type recordingSink struct {
	results  chan model.ExamResult
	attempts chan model.ExamAttempt
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		results:  make(chan model.ExamResult, 4),
		attempts: make(chan model.ExamAttempt, 4),
	}
}

func (s *recordingSink) AppendResult(r model.ExamResult) error {
	s.results <- r
	return nil
}

func (s *recordingSink) AppendAttempt(a model.ExamAttempt) error {
	s.attempts <- a
	return nil
}

func TestManagerSubmitPersistsOnce(t *testing.T) {
	sink := newRecordingSink()
	m := NewManager(sink)

	s, err := m.StartQuiz([]model.Question{singleChoice("q1", "python", "a")})
	if err != nil {
		t.Fatal(err)
	}
	s.SetAnswer("q1", model.ChoiceAnswer("a"))

	first, err := m.SubmitQuiz(s.ID())
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.SubmitQuiz(s.ID())
	if err != nil {
		t.Fatalf("duplicate submit failed: %v", err)
	}
	if second != first {
		t.Error("duplicate submit returned a different record")
	}

	select {
	case r := <-sink.results:
		if r.ID != s.ID() {
			t.Errorf("persisted record id = %s, want %s", r.ID, s.ID())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("result was never persisted")
	}
	select {
	case <-sink.results:
		t.Fatal("duplicate submit persisted a second record")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestManagerClockExpiryPersists(t *testing.T) {
	sink := newRecordingSink()
	m := NewManager(sink)
	m.tick = 5 * time.Millisecond

	s, err := m.StartQuiz([]model.Question{singleChoice("q1", "python", "a")})
	if err != nil {
		t.Fatal(err)
	}
	s.mu.Lock()
	s.remaining = 2
	s.mu.Unlock()

	select {
	case r := <-sink.results:
		if r.ID != s.ID() {
			t.Errorf("persisted record id = %s, want %s", r.ID, s.ID())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expiry never persisted a record")
	}

	// The expired session stays registered; a late submit sees the record.
	late, err := m.SubmitQuiz(s.ID())
	if err != nil {
		t.Fatalf("late submit after expiry: %v", err)
	}
	if late.ID != s.ID() {
		t.Errorf("late submit record id = %s, want %s", late.ID, s.ID())
	}
}

func TestManagerCancelDiscards(t *testing.T) {
	sink := newRecordingSink()
	m := NewManager(sink)

	s, err := m.StartQuiz([]model.Question{singleChoice("q1", "python", "a")})
	if err != nil {
		t.Fatal(err)
	}
	m.CancelQuiz(s.ID())

	if _, ok := m.Quiz(s.ID()); ok {
		t.Error("cancelled session still registered")
	}
	select {
	case <-sink.results:
		t.Fatal("cancelled session persisted a record")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestManagerStartExam(t *testing.T) {
	sink := newRecordingSink()
	m := NewManager(sink)

	s, err := m.StartExam(makeExam())
	if err != nil {
		t.Fatal(err)
	}
	s.SetPart1Answer(1, "a")

	attempt, err := m.SubmitExam(s.ID())
	if err != nil {
		t.Fatal(err)
	}
	if attempt.Score.Part1Correct != 1 {
		t.Errorf("Part1Correct = %d, want 1", attempt.Score.Part1Correct)
	}

	select {
	case a := <-sink.attempts:
		if a.ID != s.ID() {
			t.Errorf("persisted attempt id = %s, want %s", a.ID, s.ID())
		}
	case <-time.After(2 * time.Second):
		t.Fatal("attempt was never persisted")
	}
}
