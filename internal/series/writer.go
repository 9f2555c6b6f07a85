// Package series persists recurring appointment series and drives the
// two-phase confirmation protocol for requests that would collide with an
// existing pending series.
package series

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"practice-scheduler-backend/internal/model"
	"practice-scheduler-backend/internal/recur"
	"practice-scheduler-backend/internal/store"
)

// Request is the transient input for a new series (or single appointment).
type Request struct {
	PatientID int64           `json:"patient_id"`
	UserID    int64           `json:"user_id"`
	StartAt   time.Time       `json:"start_at"`
	Frequency model.Frequency `json:"frequency"`
	Status    model.Status    `json:"status"`
	Amount    float64         `json:"amount"`
	Notes     string          `json:"notes"`
}

func (r *Request) validate() error {
	if r.StartAt.IsZero() {
		return &ValidationError{Field: "date", Reason: "a start date is required"}
	}
	if r.Amount < 0 {
		return &ValidationError{Field: "amount", Reason: "amount must not be negative"}
	}
	if !r.Frequency.Valid() {
		return &ValidationError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", r.Frequency)}
	}
	if r.Status == "" {
		r.Status = model.StatusPending
	}
	if !r.Status.Valid() {
		return &ValidationError{Field: "status", Reason: fmt.Sprintf("unknown status %q", r.Status)}
	}
	return nil
}

// WriteResult reports what a Write actually did.
type WriteResult struct {
	SeriesID     string             `json:"series_id,omitempty"`
	Created      []model.Occurrence `json:"created"`
	DeletedCount int64              `json:"deleted_count"`
}

// Writer persists generated occurrences through the record store.
type Writer struct {
	store          store.Store
	maxOccurrences int
}

// NewWriter creates a Writer. maxOccurrences bounds every generated series;
// zero means the generator default.
func NewWriter(s store.Store, maxOccurrences int) *Writer {
	return &Writer{store: s, maxOccurrences: maxOccurrences}
}

// Write generates the occurrence instants for req and persists one row per
// instant, all sharing a freshly minted series id when the request is
// recurring. With clearExisting the patient's pending recurring occurrences
// are deleted first (their count is reported back).
//
// Deletion and creation are separate store calls. If creation fails after a
// deletion succeeded, creation is retried once (it is safe to repeat); if the
// retry also fails the result is a PartialSeriesError carrying the deleted
// count, so the caller can tell this state from an ordinary failure.
func (w *Writer) Write(ctx context.Context, req Request, clearExisting bool) (*WriteResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	instants, err := recur.Generate(req.StartAt, req.Frequency, w.maxOccurrences)
	if err != nil {
		return nil, &ValidationError{Field: "frequency", Reason: err.Error()}
	}

	var deleted int64
	if clearExisting {
		deleted, err = w.store.DeletePendingRecurring(ctx, req.PatientID, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to clear existing series: %w", err)
		}
	}

	var seriesID string
	if req.Frequency.Recurring() {
		seriesID = uuid.NewString()
	}

	occurrences := make([]model.Occurrence, len(instants))
	for i, instant := range instants {
		occurrences[i] = model.Occurrence{
			PatientID: req.PatientID,
			UserID:    req.UserID,
			SeriesID:  seriesID,
			StartAt:   instant,
			Frequency: req.Frequency,
			Status:    req.Status,
			Amount:    req.Amount,
			Notes:     req.Notes,
		}
	}

	created, err := w.store.CreateOccurrences(ctx, occurrences)
	if err != nil && deleted > 0 {
		log.Printf("Creating %d appointments failed after clearing %d existing ones, retrying creation: %v",
			len(occurrences), deleted, err)
		created, err = w.store.CreateOccurrences(ctx, occurrences)
	}
	if err != nil {
		if deleted > 0 {
			return nil, &PartialSeriesError{DeletedCount: deleted, Err: err}
		}
		return nil, fmt.Errorf("failed to create appointments: %w", err)
	}

	return &WriteResult{SeriesID: seriesID, Created: created, DeletedCount: deleted}, nil
}
