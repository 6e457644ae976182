package model

import "time"

// HistoryExport is the top-level JSON structure for history export.
type HistoryExport struct {
	ExportedAt   time.Time     `json:"exported_at"`
	ResultCount  int           `json:"result_count"`
	AttemptCount int           `json:"attempt_count"`
	Results      []ExamResult  `json:"results"`
	Attempts     []ExamAttempt `json:"attempts"`
}
