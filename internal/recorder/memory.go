package recorder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"SwapSentinel/internal/model"
)

// MemoryRecorder keeps records in process memory. It is used when no
// database path is configured, and in tests.
type MemoryRecorder struct {
	mu       sync.Mutex
	analyses []model.AnalysisRecord
	alerts   []model.AlertRecord

	// SaveErr, when set, fails SaveAnalysis.
	SaveErr error
}

// NewMemoryRecorder returns an empty recorder.
func NewMemoryRecorder() *MemoryRecorder { return &MemoryRecorder{} }

// SaveAnalysis stores a copy of rec and returns its id, starting at 1.
func (m *MemoryRecorder) SaveAnalysis(_ context.Context, rec *model.AnalysisRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.SaveErr != nil {
		return 0, m.SaveErr
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	stored := *rec
	stored.ID = int64(len(m.analyses) + 1)
	stored.AlertSent = false
	m.analyses = append(m.analyses, stored)
	return stored.ID, nil
}

// SaveEmailAlert stores a copy of alert and returns its id.
func (m *MemoryRecorder) SaveEmailAlert(_ context.Context, alert *model.AlertRecord) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if alert.CreatedAt.IsZero() {
		alert.CreatedAt = time.Now()
	}
	stored := *alert
	stored.ID = int64(len(m.alerts) + 1)
	m.alerts = append(m.alerts, stored)
	return stored.ID, nil
}

// MarkSent flags analysis id as alerted.
func (m *MemoryRecorder) MarkSent(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id < 1 || id > int64(len(m.analyses)) {
		return fmt.Errorf("mark sent %d: %w", id, ErrNotFound)
	}
	m.analyses[id-1].AlertSent = true
	return nil
}

// GetAnalysis returns a copy of analysis id.
func (m *MemoryRecorder) GetAnalysis(_ context.Context, id int64) (*model.AnalysisRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if id < 1 || id > int64(len(m.analyses)) {
		return nil, fmt.Errorf("analysis %d: %w", id, ErrNotFound)
	}
	rec := m.analyses[id-1]
	return &rec, nil
}

// Stats aggregates records created at or after since.
func (m *MemoryRecorder) Stats(_ context.Context, since time.Time) (*Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &Stats{}
	for _, a := range m.analyses {
		if !a.CreatedAt.Before(since) {
			s.count(a.Recommendation.Action, 1)
		}
	}
	for _, a := range m.alerts {
		if a.CreatedAt.Before(since) {
			continue
		}
		if a.Success {
			s.AlertsSent++
		} else {
			s.AlertsFailed++
		}
	}
	return s, nil
}

// Analyses returns a copy of the stored analysis records.
func (m *MemoryRecorder) Analyses() []model.AnalysisRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AnalysisRecord(nil), m.analyses...)
}

// Alerts returns a copy of the stored alert records.
func (m *MemoryRecorder) Alerts() []model.AlertRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.AlertRecord(nil), m.alerts...)
}

// Close is a no-op.
func (m *MemoryRecorder) Close() error { return nil }
