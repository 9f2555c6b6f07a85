package calendar

import (
	"context"
	"log"
	"net/url"
	"sync"
	"time"

	"practice-scheduler-backend/internal/model"
)

const (
	// sessionSummaryPrefix is the convention shared by the synchronizer and
	// the locator: every event this system creates starts with it.
	sessionSummaryPrefix = "Sesión con"

	defaultBatchSize       = 10
	defaultInterBatchDelay = 3 * time.Second

	fallbackLinkTimeLayout = "20060102T150405Z"
)

// ItemError pairs one failed occurrence with a human-readable reason.
type ItemError struct {
	StartAt time.Time `json:"start_at"`
	Reason  string    `json:"reason"`
}

// SyncResult reports the outcome of one sync pass. Created counts real
// insertions plus fallback links; Errors counts occurrences that produced
// neither. Success is true iff at least one event was created.
type SyncResult struct {
	Success       bool        `json:"success"`
	Created       int         `json:"created"`
	Errors        int         `json:"errors"`
	ErrorDetails  []ItemError `json:"error_details,omitempty"`
	FallbackUsed  bool        `json:"fallback_used"`
	FallbackLinks []string    `json:"fallback_links,omitempty"`
}

// Synchronizer mirrors occurrences into the external calendar in fixed-size
// concurrent batches with a fixed pause in between. The batch size and delay
// are a static accommodation of the provider's burst quota, not an adaptive
// backoff. The synchronizer is purely additive; it never deletes or updates
// events.
type Synchronizer struct {
	client    Client
	batchSize int
	pause     time.Duration
	location  *time.Location
	sleep     sleepFunc
}

// NewSynchronizer creates a Synchronizer. Zero batchSize or pause fall back
// to the defaults (10 events, 3 seconds). location is the timezone events
// are created in; nil means time.Local.
func NewSynchronizer(client Client, batchSize int, pause time.Duration, location *time.Location) *Synchronizer {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if pause <= 0 {
		pause = defaultInterBatchDelay
	}
	if location == nil {
		location = time.Local
	}
	return &Synchronizer{
		client:    client,
		batchSize: batchSize,
		pause:     pause,
		location:  location,
		sleep:     sleepBetweenBatches,
	}
}

type itemOutcome struct {
	created  bool
	fallback bool
	link     string
	err      error
}

// Sync creates one calendar event per occurrence. It fails fast with
// ErrNotAuthorized before any provider call when no authorization is held.
// Within a batch all insertions run concurrently; batch N fully completes,
// including its pause, before batch N+1 starts. Individual failures are
// accounted, never propagated past the batch.
func (s *Synchronizer) Sync(ctx context.Context, occurrences []model.Occurrence, patient model.Patient) (*SyncResult, error) {
	if !s.client.IsAuthorized(ctx) {
		return nil, ErrNotAuthorized
	}

	result := &SyncResult{}
	for start := 0; start < len(occurrences); start += s.batchSize {
		end := start + s.batchSize
		if end > len(occurrences) {
			end = len(occurrences)
		}
		batch := occurrences[start:end]

		outcomes := make([]itemOutcome, len(batch))
		var wg sync.WaitGroup
		for i := range batch {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				outcomes[i] = s.syncOne(ctx, batch[i], patient)
			}(i)
		}
		wg.Wait()

		for i, outcome := range outcomes {
			switch {
			case outcome.created && outcome.fallback:
				result.Created++
				result.FallbackUsed = true
				result.FallbackLinks = append(result.FallbackLinks, outcome.link)
			case outcome.created:
				result.Created++
			default:
				result.Errors++
				result.ErrorDetails = append(result.ErrorDetails, ItemError{
					StartAt: batch[i].StartAt,
					Reason:  outcome.err.Error(),
				})
			}
		}

		if end < len(occurrences) {
			s.sleep(ctx, s.pause)
		}
	}

	result.Success = result.Created > 0
	log.Printf("Calendar sync finished for patient %d: %d created, %d errors",
		patient.ID, result.Created, result.Errors)
	return result, nil
}

// syncOne inserts a single event. An authorization/permission failure from
// the provider degrades to a pre-filled "add to calendar" link instead of a
// hard failure, so the user is never left without a way to add the event.
func (s *Synchronizer) syncOne(ctx context.Context, occurrence model.Occurrence, patient model.Patient) itemOutcome {
	event := s.buildEvent(occurrence, patient)

	_, err := s.client.InsertEvent(ctx, event)
	if err == nil {
		return itemOutcome{created: true}
	}
	if isAuthError(err) {
		log.Printf("Calendar insert unauthorized for patient %d at %s, falling back to manual link",
			patient.ID, occurrence.StartAt.Format(time.RFC3339))
		return itemOutcome{created: true, fallback: true, link: FallbackLink(event)}
	}
	return itemOutcome{err: err}
}

// buildEvent derives the external event for an occurrence: the conventional
// summary, a description carrying any notes, and a one-hour window starting
// at the occurrence instant in the synchronizer's timezone.
func (s *Synchronizer) buildEvent(occurrence model.Occurrence, patient model.Patient) Event {
	name := patient.FullName()
	description := "Sesión de psicología con " + name
	if occurrence.Notes != "" {
		description += "\n\nObservaciones: " + occurrence.Notes
	}

	start := occurrence.StartAt.In(s.location)
	return Event{
		Summary:     sessionSummaryPrefix + " " + name,
		Description: description,
		StartAt:     start,
		EndAt:       start.Add(time.Hour),
	}
}

// FallbackLink builds a pre-filled Google Calendar template URL the user can
// open to add the event manually.
func FallbackLink(event Event) string {
	v := url.Values{}
	v.Set("action", "TEMPLATE")
	v.Set("text", event.Summary)
	v.Set("dates", event.StartAt.UTC().Format(fallbackLinkTimeLayout)+"/"+event.EndAt.UTC().Format(fallbackLinkTimeLayout))
	v.Set("details", event.Description)
	return "https://calendar.google.com/calendar/render?" + v.Encode()
}
