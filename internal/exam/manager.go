package exam

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/minhph/diem10tin/internal/model"
)

// ResultSink receives finished records. Writes are fire-and-forget from the
// session's point of view: a failing sink must never block or fail the exam
// flow, so the manager calls it on its own goroutine and only logs errors.
type ResultSink interface {
	AppendResult(model.ExamResult) error
	AppendAttempt(model.ExamAttempt) error
}

// Manager owns every live session. It drives each session's clock with a
// one-second ticker and persists the result exactly once, whether the
// session ends by manual submit or by timer expiry. Finished sessions stay
// registered so a late duplicate submit still returns the same record.
type Manager struct {
	mu      sync.RWMutex
	quizzes map[string]*QuizSession
	exams   map[string]*ExamSession
	sink    ResultSink

	// tick is the clock granularity; tests shorten it.
	tick time.Duration
}

// NewManager creates a Manager writing finished records to sink.
func NewManager(sink ResultSink) *Manager {
	return &Manager{
		quizzes: make(map[string]*QuizSession),
		exams:   make(map[string]*ExamSession),
		sink:    sink,
		tick:    time.Second,
	}
}

// StartQuiz opens a practice-quiz session and starts its clock.
func (m *Manager) StartQuiz(questions []model.Question) (*QuizSession, error) {
	s, err := NewQuizSession(questions)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.quizzes[s.ID()] = s
	m.mu.Unlock()

	go m.runClock(s.Tick, s.Submitted, func() {
		if result, _ := s.Submit(); result != nil {
			m.persistResult(*result)
		}
	})
	return s, nil
}

// StartExam opens a mock-exam session and starts its clock.
func (m *Manager) StartExam(exam model.ExamStructure) (*ExamSession, error) {
	s, err := NewExamSession(exam)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.exams[s.ID()] = s
	m.mu.Unlock()

	go m.runClock(s.Tick, s.Submitted, func() {
		if attempt, _ := s.Submit(); attempt != nil {
			m.persistAttempt(*attempt)
		}
	})
	return s, nil
}

// Quiz returns a registered quiz session by id.
func (m *Manager) Quiz(id string) (*QuizSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.quizzes[id]
	return s, ok
}

// Exam returns a registered exam session by id.
func (m *Manager) Exam(id string) (*ExamSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.exams[id]
	return s, ok
}

// SubmitQuiz finalizes a quiz session. The record is persisted only on the
// first trigger; duplicates (including a racing timer expiry) get the same
// record back.
func (m *Manager) SubmitQuiz(id string) (*model.ExamResult, error) {
	s, ok := m.Quiz(id)
	if !ok {
		return nil, fmt.Errorf("quiz session %s not found", id)
	}
	result, already := s.Submit()
	if !already {
		m.persistResult(*result)
	}
	return result, nil
}

// SubmitExam finalizes an exam session; same contract as SubmitQuiz.
func (m *Manager) SubmitExam(id string) (*model.ExamAttempt, error) {
	s, ok := m.Exam(id)
	if !ok {
		return nil, fmt.Errorf("exam session %s not found", id)
	}
	attempt, already := s.Submit()
	if !already {
		m.persistAttempt(*attempt)
	}
	return attempt, nil
}

// CancelQuiz discards a session without persisting a record.
func (m *Manager) CancelQuiz(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.quizzes[id]; ok {
		s.Submit() // stops the clock; the record is dropped, not persisted
		delete(m.quizzes, id)
	}
}

// runClock ticks the session once per second until it ends. When the tick
// itself expires the session, onExpire persists the auto-submitted record.
func (m *Manager) runClock(tick func() bool, done func() bool, onExpire func()) {
	t := time.NewTicker(m.tick)
	defer t.Stop()
	for range t.C {
		if tick() {
			onExpire()
			return
		}
		if done() {
			return
		}
	}
}

func (m *Manager) persistResult(r model.ExamResult) {
	go func() {
		if err := m.sink.AppendResult(r); err != nil {
			slog.Error("persist quiz result", "id", r.ID, "error", err)
		}
	}()
}

func (m *Manager) persistAttempt(a model.ExamAttempt) {
	go func() {
		if err := m.sink.AppendAttempt(a); err != nil {
			slog.Error("persist exam attempt", "id", a.ID, "error", err)
		}
	}()
}
