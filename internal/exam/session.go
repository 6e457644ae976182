package exam

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minhph/diem10tin/internal/model"
)

// QuizDuration is the fixed length of a practice quiz session.
const QuizDuration = 45 * time.Minute

// QuizSession is the mutable state of one in-progress practice quiz.
// All mutations are serialized through its mutex: the manual submit and
// the timer expiry can race and must collapse into a single result.
type QuizSession struct {
	mu sync.Mutex

	id        string
	questions []model.Question
	answers   map[string]model.Answer
	flagged   map[string]struct{}
	current   int
	remaining int
	submitted bool
	result    *model.ExamResult
}

// NewQuizSession starts a session over the given questions. The question
// list is validated up front: an empty or malformed list refuses to start.
func NewQuizSession(questions []model.Question) (*QuizSession, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("start quiz: no questions")
	}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("start quiz: %w", err)
		}
	}
	return &QuizSession{
		id:        uuid.NewString(),
		questions: questions,
		answers:   make(map[string]model.Answer),
		flagged:   make(map[string]struct{}),
		remaining: int(QuizDuration.Seconds()),
	}, nil
}

// ID returns the session identifier.
func (s *QuizSession) ID() string { return s.id }

// Questions returns the questions presented, in order.
func (s *QuizSession) Questions() []model.Question { return s.questions }

// SetAnswer records or replaces the answer to one question. Mutations of a
// submitted session are silently dropped.
func (s *QuizSession) SetAnswer(questionID string, a model.Answer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return
	}
	s.answers[questionID] = a
}

// ToggleFlag flips the review flag on a question.
func (s *QuizSession) ToggleFlag(questionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return
	}
	if _, ok := s.flagged[questionID]; ok {
		delete(s.flagged, questionID)
	} else {
		s.flagged[questionID] = struct{}{}
	}
}

// SetCurrent moves the navigation cursor. Purely presentational.
func (s *QuizSession) SetCurrent(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted || index < 0 || index >= len(s.questions) {
		return
	}
	s.current = index
}

// Tick consumes one second of the clock. When the timer reaches zero the
// session submits itself, exactly as a manual submit would. It reports
// whether this tick ended the session.
func (s *QuizSession) Tick() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return false
	}
	s.remaining--
	if s.remaining > 0 {
		return false
	}
	s.remaining = 0
	s.submitLocked()
	return true
}

// Remaining returns the seconds left on the clock.
func (s *QuizSession) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Submitted reports whether the session has ended.
func (s *QuizSession) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// Submit finalizes the session and returns its immutable result record.
// Submit is idempotent: every call after the first returns the same record
// with already=true, so the owner persists exactly once.
func (s *QuizSession) Submit() (result *model.ExamResult, already bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return s.result, true
	}
	s.submitLocked()
	return s.result, false
}

// submitLocked freezes the answers into a result record. Caller holds mu.
func (s *QuizSession) submitLocked() {
	breakdown, err := ScoreQuiz(s.questions, s.answers)
	if err != nil {
		// Unreachable: the constructor rejects empty/invalid question lists.
		panic(fmt.Sprintf("quiz session %s: %v", s.id, err))
	}

	answers := make(map[string]model.Answer, len(s.answers))
	for id, a := range s.answers {
		answers[id] = a
	}

	s.result = &model.ExamResult{
		ID:               s.id,
		TakenAt:          time.Now(),
		Score:            breakdown.Score,
		TotalQuestions:   breakdown.TotalQuestions,
		CorrectCount:     breakdown.CorrectCount,
		EarnedPoints:     breakdown.EarnedPoints,
		TotalPossible:    breakdown.TotalPossible,
		TimeSpentSeconds: int(QuizDuration.Seconds()) - s.remaining,
		Answers:          answers,
		Questions:        s.questions,
	}
	s.submitted = true
}

// QuizState is a read-only snapshot for rendering.
type QuizState struct {
	ID        string                  `json:"id"`
	Current   int                     `json:"current"`
	Remaining int                     `json:"remaining_seconds"`
	Submitted bool                    `json:"submitted"`
	Answered  int                     `json:"answered"`
	Flagged   []string                `json:"flagged"`
	Answers   map[string]model.Answer `json:"answers"`
}

// State captures the current session state under the lock.
func (s *QuizSession) State() QuizState {
	s.mu.Lock()
	defer s.mu.Unlock()
	flagged := make([]string, 0, len(s.flagged))
	for id := range s.flagged {
		flagged = append(flagged, id)
	}
	answers := make(map[string]model.Answer, len(s.answers))
	for id, a := range s.answers {
		answers[id] = a
	}
	return QuizState{
		ID:        s.id,
		Current:   s.current,
		Remaining: s.remaining,
		Submitted: s.submitted,
		Answered:  len(answers),
		Flagged:   flagged,
		Answers:   answers,
	}
}
