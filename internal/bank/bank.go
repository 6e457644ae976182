// Package bank loads and serves the static question and exam definitions.
package bank

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"sort"

	"github.com/minhph/diem10tin/internal/model"
)

// Bank is the read-only question and exam collection shared by all sessions.
type Bank struct {
	questions []model.Question
	exams     []model.ExamStructure
	byID      map[string]model.Question
	examByID  map[string]model.ExamStructure
}

// New builds a bank from already-validated data. Exposed for tests.
func New(questions []model.Question, exams []model.ExamStructure) *Bank {
	b := &Bank{
		questions: questions,
		exams:     exams,
		byID:      make(map[string]model.Question, len(questions)),
		examByID:  make(map[string]model.ExamStructure, len(exams)),
	}
	for _, q := range questions {
		b.byID[q.ID] = q
	}
	for _, e := range exams {
		b.examByID[e.ID] = e
	}
	return b
}

// Load reads question files and exam files, validating every record.
// Malformed data fails the load: no session may start over a bad bank.
func Load(questionPaths, examPaths []string) (*Bank, error) {
	var questions []model.Question
	for _, path := range questionPaths {
		qs, err := loadQuestions(path)
		if err != nil {
			return nil, err
		}
		questions = append(questions, qs...)
		slog.Info("loaded questions", "path", path, "count", len(qs))
	}

	var exams []model.ExamStructure
	for _, path := range examPaths {
		e, err := loadExam(path)
		if err != nil {
			return nil, err
		}
		exams = append(exams, e)
		slog.Info("loaded exam", "path", path, "id", e.ID, "name", e.Name)
	}

	if len(questions) == 0 && len(exams) == 0 {
		return nil, fmt.Errorf("bank: no questions or exams loaded")
	}
	return New(questions, exams), nil
}

func loadQuestions(path string) ([]model.Question, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var questions []model.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return questions, nil
}

func loadExam(path string) (model.ExamStructure, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.ExamStructure{}, fmt.Errorf("read %s: %w", path, err)
	}
	var exam model.ExamStructure
	if err := json.Unmarshal(data, &exam); err != nil {
		return model.ExamStructure{}, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := exam.Validate(); err != nil {
		return model.ExamStructure{}, fmt.Errorf("%s: %w", path, err)
	}
	return exam, nil
}

// Questions returns every question in the bank.
func (b *Bank) Questions() []model.Question { return b.questions }

// Question looks up a question by id.
func (b *Bank) Question(id string) (model.Question, bool) {
	q, ok := b.byID[id]
	return q, ok
}

// Topics returns the distinct topic labels, sorted.
func (b *Bank) Topics() []string {
	seen := make(map[string]struct{})
	var topics []string
	for _, q := range b.questions {
		if _, ok := seen[q.Topic]; !ok {
			seen[q.Topic] = struct{}{}
			topics = append(topics, q.Topic)
		}
	}
	sort.Strings(topics)
	return topics
}

// ByTopic returns the questions of one topic.
func (b *Bank) ByTopic(topic string) []model.Question {
	var out []model.Question
	for _, q := range b.questions {
		if q.Topic == topic {
			out = append(out, q)
		}
	}
	return out
}

// RandomExam draws n shuffled questions. When the pool is smaller than n it
// is cycled, and every drawn question gets a per-draw id suffix so repeated
// questions stay distinct within one session.
func (b *Bank) RandomExam(n int) []model.Question {
	return randomFrom(b.questions, n)
}

// RandomByTopic draws like RandomExam but limited to one topic.
func (b *Bank) RandomByTopic(topic string, n int) []model.Question {
	return randomFrom(b.ByTopic(topic), n)
}

func randomFrom(pool []model.Question, n int) []model.Question {
	if len(pool) == 0 || n <= 0 {
		return nil
	}
	shuffled := make([]model.Question, len(pool))
	copy(shuffled, pool)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	for len(shuffled) < n {
		shuffled = append(shuffled, shuffled[:min(len(pool), n-len(shuffled))]...)
	}
	out := make([]model.Question, n)
	for i, q := range shuffled[:n] {
		q.ID = fmt.Sprintf("%s-%d", q.ID, i)
		out[i] = q
	}
	return out
}

// Exams returns every loaded exam definition.
func (b *Bank) Exams() []model.ExamStructure { return b.exams }

// Exam looks up an exam by id.
func (b *Bank) Exam(id string) (model.ExamStructure, bool) {
	e, ok := b.examByID[id]
	return e, ok
}
