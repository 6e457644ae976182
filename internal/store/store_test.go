package store

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/minhph/diem10tin/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("create store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(id string, takenAt time.Time, score float64) model.ExamResult {
	return model.ExamResult{
		ID:               id,
		TakenAt:          takenAt,
		Score:            score,
		TotalQuestions:   2,
		CorrectCount:     1,
		EarnedPoints:     1,
		TotalPossible:    2,
		TimeSpentSeconds: 300,
		Answers: map[string]model.Answer{
			"q1": model.ChoiceAnswer("a"),
			"q2": model.TrueFalseAnswer(map[string]bool{"q2-a": true, "q2-b": false}),
		},
		Questions: []model.Question{
			{
				ID:     "q1",
				Type:   model.TypeSingleChoice,
				Topic:  "python",
				Prompt: "pick one",
				Options: []model.Option{
					{ID: "a", Text: "first"}, {ID: "b", Text: "second"},
					{ID: "c", Text: "third"}, {ID: "d", Text: "fourth"},
				},
				CorrectOption: "a",
				Explanation:   "because",
			},
		},
	}
}

func TestResultRoundTrip(t *testing.T) {
	s := newTestStore(t)
	want := sampleResult("r1", time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC), 5)

	if err := s.AppendResult(want); err != nil {
		t.Fatalf("AppendResult: %v", err)
	}
	results, err := s.ListResults()
	if err != nil {
		t.Fatalf("ListResults: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("got %d results, want 1", len(results))
	}
	got := results[0]
	if !got.TakenAt.Equal(want.TakenAt) {
		t.Errorf("TakenAt = %v, want %v", got.TakenAt, want.TakenAt)
	}
	got.TakenAt = want.TakenAt
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round-tripped result differs:\n got %+v\nwant %+v", got, want)
	}
}

func TestListResultsNewestFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i, id := range []string{"old", "mid", "new"} {
		r := sampleResult(id, base.Add(time.Duration(i)*time.Hour), float64(i))
		if err := s.AppendResult(r); err != nil {
			t.Fatal(err)
		}
	}

	results, err := s.ListResults()
	if err != nil {
		t.Fatal(err)
	}
	var ids []string
	for _, r := range results {
		ids = append(ids, r.ID)
	}
	if !reflect.DeepEqual(ids, []string{"new", "mid", "old"}) {
		t.Errorf("order = %v, want newest first", ids)
	}
}

func TestListResultsSkipsCorruptRows(t *testing.T) {
	s := newTestStore(t)
	if err := s.AppendResult(sampleResult("good", time.Now().UTC(), 7)); err != nil {
		t.Fatal(err)
	}
	_, err := s.db.Exec(
		`INSERT INTO results (id, taken_at, score, time_spent_seconds, payload) VALUES (?, ?, ?, ?, ?)`,
		"broken", time.Now().UTC(), 0, 0, "{not json",
	)
	if err != nil {
		t.Fatal(err)
	}

	results, err := s.ListResults()
	if err != nil {
		t.Fatalf("ListResults returned error for corrupt row: %v", err)
	}
	if len(results) != 1 || results[0].ID != "good" {
		t.Errorf("results = %+v, want only the good row", results)
	}
}

func TestAttemptRoundTrip(t *testing.T) {
	s := newTestStore(t)
	want := model.ExamAttempt{
		ID:               "a1",
		ExamID:           "de-01",
		ExamName:         "Đề 01",
		TakenAt:          time.Date(2026, 3, 15, 14, 0, 0, 0, time.UTC),
		TimeSpentSeconds: 1800,
		Score: model.ExamScore{
			Part1Score:   2.5,
			Part1Correct: 10,
			Part2Score:   0.5,
			Part2Details: []model.TrueFalseDetail{{Number: 1, CorrectCount: 3, Score: 0.5}},
			Part3Details: []model.TrueFalseDetail{},
			TotalScore:   3.0,
		},
		Answers: model.ExamAnswers{
			Part1:       map[int]string{1: "a"},
			Part2:       map[int]map[string]bool{1: {"a": true}},
			Part3:       map[int]map[string]bool{},
			Part3Choice: model.Part3Option1,
		},
	}

	if err := s.AppendAttempt(want); err != nil {
		t.Fatalf("AppendAttempt: %v", err)
	}
	attempts, err := s.ListAttempts()
	if err != nil {
		t.Fatal(err)
	}
	if len(attempts) != 1 {
		t.Fatalf("got %d attempts, want 1", len(attempts))
	}
	got := attempts[0]
	if !got.TakenAt.Equal(want.TakenAt) {
		t.Errorf("TakenAt = %v, want %v", got.TakenAt, want.TakenAt)
	}
	got.TakenAt = want.TakenAt
	if !reflect.DeepEqual(got, want) {
		t.Errorf("round-tripped attempt differs:\n got %+v\nwant %+v", got, want)
	}
}

func TestSummary(t *testing.T) {
	s := newTestStore(t)

	empty, err := s.Summary()
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(empty, model.StatSummary{}) {
		t.Errorf("empty summary = %+v, want zero value", empty)
	}

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for i, score := range []float64{4, 8} {
		r := sampleResult([]string{"r1", "r2"}[i], base.Add(time.Duration(i)*time.Hour), score)
		if err := s.AppendResult(r); err != nil {
			t.Fatal(err)
		}
	}

	sum, err := s.Summary()
	if err != nil {
		t.Fatal(err)
	}
	want := model.StatSummary{TotalExams: 2, AverageScore: 6, BestScore: 8, TotalTimeSeconds: 600}
	if !reflect.DeepEqual(sum, want) {
		t.Errorf("Summary = %+v, want %+v", sum, want)
	}
}

func TestClearHistory(t *testing.T) {
	s := newTestStore(t)
	if err := s.AppendResult(sampleResult("r1", time.Now().UTC(), 5)); err != nil {
		t.Fatal(err)
	}
	if err := s.ClearHistory(); err != nil {
		t.Fatalf("ClearHistory: %v", err)
	}
	count, err := s.ResultCount()
	if err != nil {
		t.Fatal(err)
	}
	if count != 0 {
		t.Errorf("ResultCount after clear = %d, want 0", count)
	}
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)

	v, err := s.Setting(SettingAPIKey)
	if err != nil {
		t.Fatal(err)
	}
	if v != "" {
		t.Errorf("missing setting = %q, want empty", v)
	}

	if err := s.SetSetting(SettingAPIKey, "secret"); err != nil {
		t.Fatal(err)
	}
	if err := s.SetSetting(SettingAPIKey, "rotated"); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	v, err = s.Setting(SettingAPIKey)
	if err != nil {
		t.Fatal(err)
	}
	if v != "rotated" {
		t.Errorf("setting = %q, want rotated", v)
	}
}

func TestExportHistory(t *testing.T) {
	s := newTestStore(t)
	fixed := time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC)
	orig := now
	now = func() time.Time { return fixed }
	t.Cleanup(func() { now = orig })

	if err := s.AppendResult(sampleResult("r1", fixed.Add(-time.Hour), 5)); err != nil {
		t.Fatal(err)
	}

	export, err := s.ExportHistory()
	if err != nil {
		t.Fatalf("ExportHistory: %v", err)
	}
	if !export.ExportedAt.Equal(fixed) {
		t.Errorf("ExportedAt = %v, want %v", export.ExportedAt, fixed)
	}
	if export.ResultCount != 1 || export.AttemptCount != 0 {
		t.Errorf("counts = %d/%d, want 1/0", export.ResultCount, export.AttemptCount)
	}
	if len(export.Results) != 1 || export.Results[0].ID != "r1" {
		t.Errorf("Results = %+v, want the stored record", export.Results)
	}
}
