package model

import (
	"fmt"
	"time"
)

// QuestionType distinguishes the two question shapes in the bank.
type QuestionType string

const (
	// TypeSingleChoice is a four-option question with one correct letter.
	TypeSingleChoice QuestionType = "single_choice"
	// TypeTrueFalseGroup is a prompt with four independent true/false statements.
	TypeTrueFalseGroup QuestionType = "true_false_group"
)

// Option is one lettered choice of a single-choice question.
// Identity lives in ID, never in the display text.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// SubQuestion is one statement inside a true/false group.
type SubQuestion struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// Question is a bank question in either shape. Exactly one of
// Options/SubQuestions is populated, matching Type.
type Question struct {
	ID            string        `json:"id"`
	Type          QuestionType  `json:"type"`
	Topic         string        `json:"topic"`
	Prompt        string        `json:"prompt"`
	Options       []Option      `json:"options,omitempty"`
	CorrectOption string        `json:"correct_option,omitempty"`
	SubQuestions  []SubQuestion `json:"sub_questions,omitempty"`
	Explanation   string        `json:"explanation"`
}

// Validate checks the structural invariants of a question.
func (q Question) Validate() error {
	if q.ID == "" {
		return fmt.Errorf("question: missing id")
	}
	switch q.Type {
	case TypeSingleChoice:
		if len(q.SubQuestions) != 0 {
			return fmt.Errorf("question %s: single_choice must not carry sub-questions", q.ID)
		}
		if len(q.Options) != 4 {
			return fmt.Errorf("question %s: expected 4 options, got %d", q.ID, len(q.Options))
		}
		found := false
		for _, o := range q.Options {
			if o.ID == "" {
				return fmt.Errorf("question %s: option with empty id", q.ID)
			}
			if o.ID == q.CorrectOption {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("question %s: correct option %q not among options", q.ID, q.CorrectOption)
		}
	case TypeTrueFalseGroup:
		if len(q.Options) != 0 || q.CorrectOption != "" {
			return fmt.Errorf("question %s: true_false_group must not carry options", q.ID)
		}
		if len(q.SubQuestions) != 4 {
			return fmt.Errorf("question %s: expected 4 sub-questions, got %d", q.ID, len(q.SubQuestions))
		}
		for _, sq := range q.SubQuestions {
			if sq.ID == "" {
				return fmt.Errorf("question %s: sub-question with empty id", q.ID)
			}
		}
	default:
		return fmt.Errorf("question %s: unknown type %q", q.ID, q.Type)
	}
	return nil
}

// Answer is a test-taker's answer to one question, tagged by question type.
// For single_choice only Choice is set; for true_false_group only TrueFalse.
type Answer struct {
	Type      QuestionType    `json:"type"`
	Choice    string          `json:"choice,omitempty"`
	TrueFalse map[string]bool `json:"true_false,omitempty"`
}

// ChoiceAnswer builds a single-choice answer.
func ChoiceAnswer(optionID string) Answer {
	return Answer{Type: TypeSingleChoice, Choice: optionID}
}

// TrueFalseAnswer builds a true/false-group answer. Sub-questions absent
// from the map are unanswered.
func TrueFalseAnswer(values map[string]bool) Answer {
	return Answer{Type: TypeTrueFalseGroup, TrueFalse: values}
}

// QuizScore is the deterministic breakdown of a scored quiz.
type QuizScore struct {
	Score          float64 `json:"score"`
	TotalQuestions int     `json:"total_questions"`
	CorrectCount   int     `json:"correct_count"`
	EarnedPoints   float64 `json:"earned_points"`
	TotalPossible  float64 `json:"total_possible"`
}

// ExamResult is the immutable record of a completed quiz session.
// Questions is a snapshot of what was presented, so review stays
// reproducible even if the bank changes later.
type ExamResult struct {
	ID               string            `json:"id"`
	TakenAt          time.Time         `json:"taken_at"`
	Score            float64           `json:"score"`
	TotalQuestions   int               `json:"total_questions"`
	CorrectCount     int               `json:"correct_count"`
	EarnedPoints     float64           `json:"earned_points"`
	TotalPossible    float64           `json:"total_possible"`
	TimeSpentSeconds int               `json:"time_spent_seconds"`
	Answers          map[string]Answer `json:"answers"`
	Questions        []Question        `json:"questions"`
}

// Part1Question is one of the 24 single-choice items of a mock exam.
type Part1Question struct {
	Number        int      `json:"number"`
	Prompt        string   `json:"prompt"`
	Options       []Option `json:"options"`
	CorrectOption string   `json:"correct_option"`
}

// TrueFalseOption is one lettered statement of a true/false exam question.
type TrueFalseOption struct {
	ID      string `json:"id"`
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// TrueFalseQuestion is a grouped true/false item in parts two and three.
type TrueFalseQuestion struct {
	Number  int               `json:"number"`
	Prompt  string            `json:"prompt"`
	Options []TrueFalseOption `json:"options"`
}

// ExamStructure is a full mock exam: 24 single-choice items, 2 true/false
// groups, and two mutually exclusive pairs for part three.
type ExamStructure struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Part1        []Part1Question     `json:"part1"`
	Part2        []TrueFalseQuestion `json:"part2"`
	Part3Option1 []TrueFalseQuestion `json:"part3_option1"`
	Part3Option2 []TrueFalseQuestion `json:"part3_option2"`
}

// Validate checks the exam cardinality invariants.
func (e ExamStructure) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("exam: missing id")
	}
	if len(e.Part1) != 24 {
		return fmt.Errorf("exam %s: part 1 must have 24 questions, got %d", e.ID, len(e.Part1))
	}
	for _, q := range e.Part1 {
		if len(q.Options) != 4 {
			return fmt.Errorf("exam %s: part 1 question %d must have 4 options, got %d", e.ID, q.Number, len(q.Options))
		}
		found := false
		for _, o := range q.Options {
			if o.ID == q.CorrectOption {
				found = true
			}
		}
		if !found {
			return fmt.Errorf("exam %s: part 1 question %d: correct option %q not among options", e.ID, q.Number, q.CorrectOption)
		}
	}
	groups := []struct {
		name string
		qs   []TrueFalseQuestion
	}{
		{"part 2", e.Part2},
		{"part 3 option 1", e.Part3Option1},
		{"part 3 option 2", e.Part3Option2},
	}
	for _, g := range groups {
		if len(g.qs) != 2 {
			return fmt.Errorf("exam %s: %s must have 2 questions, got %d", e.ID, g.name, len(g.qs))
		}
		for _, q := range g.qs {
			if len(q.Options) != 4 {
				return fmt.Errorf("exam %s: %s question %d must have 4 options, got %d", e.ID, g.name, q.Number, len(q.Options))
			}
		}
	}
	return nil
}

// Part3Choice selects which of the two part-three pairs the test-taker answers.
type Part3Choice string

const (
	Part3Unchosen Part3Choice = ""
	Part3Option1  Part3Choice = "option1"
	Part3Option2  Part3Choice = "option2"
)

// ExamAnswers is the finalized answer set of a mock-exam session.
type ExamAnswers struct {
	Part1       map[int]string          `json:"part1"`
	Part2       map[int]map[string]bool `json:"part2"`
	Part3       map[int]map[string]bool `json:"part3"`
	Part3Choice Part3Choice             `json:"part3_choice"`
}

// NewExamAnswers returns an empty answer set with all maps initialized.
func NewExamAnswers() ExamAnswers {
	return ExamAnswers{
		Part1: make(map[int]string),
		Part2: make(map[int]map[string]bool),
		Part3: make(map[int]map[string]bool),
	}
}

// TrueFalseDetail is the per-question outcome for parts two and three.
type TrueFalseDetail struct {
	Number       int     `json:"number"`
	CorrectCount int     `json:"correct_count"`
	Score        float64 `json:"score"`
}

// ExamScore is the rich-mode score breakdown. Part1Score is capped at 6.0
// by construction, parts two and three at 2.0 each.
type ExamScore struct {
	Part1Score   float64           `json:"part1_score"`
	Part1Correct int               `json:"part1_correct"`
	Part2Score   float64           `json:"part2_score"`
	Part2Details []TrueFalseDetail `json:"part2_details"`
	Part3Score   float64           `json:"part3_score"`
	Part3Details []TrueFalseDetail `json:"part3_details"`
	TotalScore   float64           `json:"total_score"`
}

// ExamAttempt is the immutable record of a completed mock-exam session.
type ExamAttempt struct {
	ID               string        `json:"id"`
	ExamID           string        `json:"exam_id"`
	ExamName         string        `json:"exam_name"`
	TakenAt          time.Time     `json:"taken_at"`
	TimeSpentSeconds int           `json:"time_spent_seconds"`
	Score            ExamScore     `json:"score"`
	Answers          ExamAnswers   `json:"answers"`
	Exam             ExamStructure `json:"exam"`
}

// StatSummary aggregates the quiz history.
type StatSummary struct {
	TotalExams       int     `json:"total_exams"`
	AverageScore     float64 `json:"average_score"`
	BestScore        float64 `json:"best_score"`
	TotalTimeSeconds int     `json:"total_time_seconds"`
}

// TopicStat is the per-topic accuracy over the quiz history.
type TopicStat struct {
	Topic    string  `json:"topic"`
	Total    int     `json:"total"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}
