package store

import (
	"github.com/minhph/diem10tin/internal/model"
)

// ExportHistory builds the full history as one export document,
// newest entries first in both lists.
func (s *Store) ExportHistory() (model.HistoryExport, error) {
	results, err := s.ListResults()
	if err != nil {
		return model.HistoryExport{}, err
	}
	attempts, err := s.ListAttempts()
	if err != nil {
		return model.HistoryExport{}, err
	}
	return model.HistoryExport{
		ExportedAt:   now(),
		ResultCount:  len(results),
		AttemptCount: len(attempts),
		Results:      results,
		Attempts:     attempts,
	}, nil
}
