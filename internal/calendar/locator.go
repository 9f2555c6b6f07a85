package calendar

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"practice-scheduler-backend/internal/model"
	"practice-scheduler-backend/internal/parse"
)

// EventError pairs one event that could not be deleted with the reason.
type EventError struct {
	EventID string `json:"event_id"`
	Summary string `json:"summary"`
	Reason  string `json:"reason"`
}

// DeleteResult reports the outcome of a batch deletion pass.
type DeleteResult struct {
	Success      bool         `json:"success"`
	Deleted      int          `json:"deleted"`
	Errors       int          `json:"errors"`
	ErrorDetails []EventError `json:"error_details,omitempty"`
}

// Locator finds a patient's events on the external calendar for deletion.
// The provider never hands back an id the local store persists, so matching
// is heuristic: provider text search first, then a client-side filter on the
// normalized patient name and the session summary convention.
type Locator struct {
	client    Client
	batchSize int
	pause     time.Duration
	sleep     sleepFunc
	now       func() time.Time
}

// NewLocator creates a Locator sharing the synchronizer's batch/pause
// defaults.
func NewLocator(client Client, batchSize int, pause time.Duration) *Locator {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if pause <= 0 {
		pause = defaultInterBatchDelay
	}
	return &Locator{
		client:    client,
		batchSize: batchSize,
		pause:     pause,
		sleep:     sleepBetweenBatches,
		now:       time.Now,
	}
}

// FindPatientEvents returns the provider events that look like they belong
// to the patient. When occurrences are given, the search window is their
// min/max instant padded to whole days; otherwise it spans 30 days back to
// 365 days ahead. The provider is queried with the patient's full name
// first and, if that comes back empty, with the bare session prefix; the
// provider's tokenization of accented names is not trusted, so the final
// filter happens client-side on normalized text.
func (l *Locator) FindPatientEvents(ctx context.Context, patient model.Patient, occurrences []model.Occurrence) ([]Event, error) {
	if !l.client.IsAuthorized(ctx) {
		return nil, ErrNotAuthorized
	}

	from, to := l.searchWindow(occurrences)
	name := patient.FullName()

	events, err := l.client.ListEvents(ctx, sessionSummaryPrefix+" "+name, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to search calendar events: %w", err)
	}
	if len(events) == 0 {
		events, err = l.client.ListEvents(ctx, sessionSummaryPrefix, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to search calendar events: %w", err)
		}
	}

	var matched []Event
	for _, event := range events {
		if matchesPatient(event, name) {
			matched = append(matched, event)
		}
	}
	log.Printf("Located %d calendar events for patient %d (of %d candidates)",
		len(matched), patient.ID, len(events))
	return matched, nil
}

// DeletePatientEvents locates the patient's events and deletes them in the
// same batch/pause pattern as the synchronizer. When occurrences are given,
// only events whose calendar date matches one of the occurrences' dates are
// deleted. An event already gone on the provider side counts as deleted.
func (l *Locator) DeletePatientEvents(ctx context.Context, patient model.Patient, occurrences []model.Occurrence) (*DeleteResult, error) {
	events, err := l.FindPatientEvents(ctx, patient, occurrences)
	if err != nil {
		return nil, err
	}
	if len(occurrences) > 0 {
		events = filterByOccurrenceDates(events, occurrences)
	}

	result := &DeleteResult{}
	if len(events) == 0 {
		result.Success = true
		return result, nil
	}

	for start := 0; start < len(events); start += l.batchSize {
		end := start + l.batchSize
		if end > len(events) {
			end = len(events)
		}
		batch := events[start:end]

		outcomes := make([]error, len(batch))
		var wg sync.WaitGroup
		for i := range batch {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i] = l.deleteOne(ctx, batch[i])
			}(i)
		}
		wg.Wait()

		for i, err := range outcomes {
			if err == nil {
				result.Deleted++
			} else {
				result.Errors++
				result.ErrorDetails = append(result.ErrorDetails, EventError{
					EventID: batch[i].ID,
					Summary: batch[i].Summary,
					Reason:  err.Error(),
				})
			}
		}

		if end < len(events) {
			l.sleep(ctx, l.pause)
		}
	}

	result.Success = result.Deleted > 0
	log.Printf("Calendar deletion finished for patient %d: %d deleted, %d errors",
		patient.ID, result.Deleted, result.Errors)
	return result, nil
}

func (l *Locator) deleteOne(ctx context.Context, event Event) error {
	err := l.client.DeleteEvent(ctx, event.ID)
	if err == nil || isGoneError(err) {
		return nil
	}
	return err
}

func (l *Locator) searchWindow(occurrences []model.Occurrence) (time.Time, time.Time) {
	if len(occurrences) == 0 {
		now := l.now()
		return now.AddDate(0, 0, -30), now.AddDate(0, 0, 365)
	}

	minAt, maxAt := occurrences[0].StartAt, occurrences[0].StartAt
	for _, occ := range occurrences[1:] {
		if occ.StartAt.Before(minAt) {
			minAt = occ.StartAt
		}
		if occ.StartAt.After(maxAt) {
			maxAt = occ.StartAt
		}
	}

	from := time.Date(minAt.Year(), minAt.Month(), minAt.Day(), 0, 0, 0, 0, minAt.Location())
	to := time.Date(maxAt.Year(), maxAt.Month(), maxAt.Day(), 23, 59, 59, 0, maxAt.Location())
	return from, to
}

func matchesPatient(event Event, name string) bool {
	if parse.ContainsNormalized(event.Summary, name) || parse.ContainsNormalized(event.Description, name) {
		return true
	}
	return parse.ContainsNormalized(event.Summary, sessionSummaryPrefix)
}

// filterByOccurrenceDates keeps events whose calendar date (not time)
// matches the date of one of the supplied occurrences. Dates are compared
// in UTC on both sides.
func filterByOccurrenceDates(events []Event, occurrences []model.Occurrence) []Event {
	wanted := make(map[string]struct{}, len(occurrences))
	for _, occ := range occurrences {
		wanted[dateKey(occ.StartAt)] = struct{}{}
	}

	var matched []Event
	for _, event := range events {
		if _, ok := wanted[dateKey(event.StartAt)]; ok {
			matched = append(matched, event)
		}
	}
	return matched
}

func dateKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
