// Package calendar mirrors local appointment occurrences into an external
// calendar provider: rate-limited batch creation, heuristic lookup of a
// patient's events, and batch deletion. The provider owns its events; local
// code never persists provider event ids, so correlation is by text and date.
package calendar

import (
	"context"
	"errors"
	"net/http"
	"time"

	"google.golang.org/api/googleapi"
)

// Event is the provider-agnostic view of an external calendar event.
type Event struct {
	ID          string    `json:"id"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	StartAt     time.Time `json:"start_at"`
	EndAt       time.Time `json:"end_at"`
}

// Client is the subset of the provider's API this subsystem consumes.
// Every call is network-bound and may fail with authorization (401/403),
// already-gone (404/410) or generic errors.
type Client interface {
	IsAuthorized(ctx context.Context) bool
	InsertEvent(ctx context.Context, event Event) (Event, error)
	ListEvents(ctx context.Context, query string, from, to time.Time) ([]Event, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// ErrNotAuthorized means there is no valid external authorization. Sync and
// locator calls fail fast with it before doing any partial work.
var ErrNotAuthorized = errors.New("calendar: no valid authorization for the external calendar")

// isAuthError reports whether err is an authorization/permission failure, as
// opposed to a transient provider error.
func isAuthError(err error) bool {
	if errors.Is(err, ErrNotAuthorized) {
		return true
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusUnauthorized || gerr.Code == http.StatusForbidden
	}
	return false
}

// isGoneError reports whether err means the event no longer exists on the
// provider side, which a delete treats as success.
func isGoneError(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}

// sleepFunc pauses between batches; injectable so tests do not wait.
type sleepFunc func(ctx context.Context, d time.Duration)

func sleepBetweenBatches(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
