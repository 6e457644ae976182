package exam

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/minhph/diem10tin/internal/model"
)

// ExamDuration is the fixed length of a mock-exam session.
const ExamDuration = 50 * time.Minute

// ExamSession is the mutable state of one in-progress mock exam.
type ExamSession struct {
	mu sync.Mutex

	id        string
	exam      model.ExamStructure
	answers   model.ExamAnswers
	remaining int
	submitted bool
	result    *model.ExamAttempt
}

// NewExamSession starts a session over a validated exam structure.
func NewExamSession(exam model.ExamStructure) (*ExamSession, error) {
	if err := exam.Validate(); err != nil {
		return nil, fmt.Errorf("start exam: %w", err)
	}
	return &ExamSession{
		id:        uuid.NewString(),
		exam:      exam,
		answers:   model.NewExamAnswers(),
		remaining: int(ExamDuration.Seconds()),
	}, nil
}

// ID returns the session identifier.
func (s *ExamSession) ID() string { return s.id }

// Exam returns the exam structure being taken.
func (s *ExamSession) Exam() model.ExamStructure { return s.exam }

// SetPart1Answer records the chosen letter for a part-one question.
func (s *ExamSession) SetPart1Answer(number int, optionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return
	}
	s.answers.Part1[number] = optionID
}

// SetTrueFalse records one true/false statement answer in part two or
// three. Part-three answers are dropped until a pair has been chosen.
func (s *ExamSession) SetTrueFalse(part int, number int, optionID string, value bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return
	}
	var m map[int]map[string]bool
	switch part {
	case 2:
		m = s.answers.Part2
	case 3:
		if s.answers.Part3Choice == model.Part3Unchosen {
			return
		}
		m = s.answers.Part3
	default:
		return
	}
	if m[number] == nil {
		m[number] = make(map[string]bool)
	}
	m[number][optionID] = value
}

// ChoosePart3 selects which part-three pair to answer. Changing the choice
// clears every part-three answer already given; this reset is the
// mutual-exclusion invariant, not incidental behavior.
func (s *ExamSession) ChoosePart3(choice model.Part3Choice) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted || (choice != model.Part3Option1 && choice != model.Part3Option2) {
		return
	}
	s.answers.Part3Choice = choice
	s.answers.Part3 = make(map[int]map[string]bool)
}

// Tick consumes one second; at zero the session submits itself.
func (s *ExamSession) Tick() bool {
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
func (s *ExamSession) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.remaining
}

// Submitted reports whether the session has ended.
func (s *ExamSession) Submitted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.submitted
}

// Submit finalizes the session. Idempotent, like QuizSession.Submit.
func (s *ExamSession) Submit() (attempt *model.ExamAttempt, already bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.submitted {
		return s.result, true
	}
	s.submitLocked()
	return s.result, false
}

func (s *ExamSession) submitLocked() {
	answers := model.ExamAnswers{
		Part1:       make(map[int]string, len(s.answers.Part1)),
		Part2:       make(map[int]map[string]bool, len(s.answers.Part2)),
		Part3:       make(map[int]map[string]bool, len(s.answers.Part3)),
		Part3Choice: s.answers.Part3Choice,
	}
	for n, v := range s.answers.Part1 {
		answers.Part1[n] = v
	}
	for n, m := range s.answers.Part2 {
		answers.Part2[n] = copyBoolMap(m)
	}
	for n, m := range s.answers.Part3 {
		answers.Part3[n] = copyBoolMap(m)
	}

	s.result = &model.ExamAttempt{
		ID:               s.id,
		ExamID:           s.exam.ID,
		ExamName:         s.exam.Name,
		TakenAt:          time.Now(),
		TimeSpentSeconds: int(ExamDuration.Seconds()) - s.remaining,
		Score:            ScoreExam(s.exam, answers),
		Answers:          answers,
		Exam:             s.exam,
	}
	s.submitted = true
}

func copyBoolMap(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// ExamState is a read-only snapshot for rendering.
type ExamState struct {
	ID            string            `json:"id"`
	ExamID        string            `json:"exam_id"`
	Remaining     int               `json:"remaining_seconds"`
	Submitted     bool              `json:"submitted"`
	Part1Answered int               `json:"part1_answered"`
	Part2Answered int               `json:"part2_answered"`
	Part3Answered int               `json:"part3_answered"`
	Part3Choice   model.Part3Choice `json:"part3_choice"`
}

// State captures the current session state under the lock.
func (s *ExamSession) State() ExamState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return ExamState{
		ID:            s.id,
		ExamID:        s.exam.ID,
		Remaining:     s.remaining,
		Submitted:     s.submitted,
		Part1Answered: len(s.answers.Part1),
		Part2Answered: len(s.answers.Part2),
		Part3Answered: len(s.answers.Part3),
		Part3Choice:   s.answers.Part3Choice,
	}
}
