package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"practice-scheduler-backend/config"
)

// GoogleClient implements Client against the Google Calendar v3 API. The
// OAuth token is provisioned outside this process (the practitioner connects
// their account elsewhere) and is only read here.
type GoogleClient struct {
	calendarID string
	timezone   string
	svc        *gcal.Service
}

// NewGoogleClient builds a client from configuration. A missing or invalid
// token is not a startup error: the client comes up unauthorized and every
// sync attempt reports ErrNotAuthorized until a token is provisioned.
func NewGoogleClient(ctx context.Context, cfg *config.CalendarConfig) (*GoogleClient, error) {
	client := &GoogleClient{calendarID: cfg.CalendarID, timezone: cfg.Timezone}

	token, err := loadToken(cfg.TokenFile)
	if err != nil {
		log.Printf("No calendar token available (%v); calendar sync is disabled until one is provisioned", err)
		return client, nil
	}

	oauthCfg := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarEventsScope},
	}

	// Authorization acquisition gets a hard timeout; a hung token exchange
	// must not stall startup.
	source := oauthCfg.TokenSource(context.Background(), token)
	fresh, err := tokenWithTimeout(ctx, source, cfg.AuthTimeout)
	if err != nil {
		log.Printf("Calendar token could not be refreshed (%v); calendar sync is disabled", err)
		return client, nil
	}

	svc, err := gcal.NewService(context.Background(),
		option.WithTokenSource(oauth2.ReuseTokenSource(fresh, source)))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize calendar service: %w", err)
	}
	client.svc = svc
	return client, nil
}

func loadToken(path string) (*oauth2.Token, error) {
	if path == "" {
		return nil, fmt.Errorf("no token file configured")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var token oauth2.Token
	if err := json.NewDecoder(f).Decode(&token); err != nil {
		return nil, fmt.Errorf("failed to decode token file %s: %w", path, err)
	}
	return &token, nil
}

func tokenWithTimeout(ctx context.Context, source oauth2.TokenSource, timeout time.Duration) (*oauth2.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		token *oauth2.Token
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		token, err := source.Token()
		ch <- result{token, err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("authorization timed out: %w", ctx.Err())
	case res := <-ch:
		return res.token, res.err
	}
}

// IsAuthorized reports whether the client holds a usable authorization.
func (c *GoogleClient) IsAuthorized(ctx context.Context) bool {
	return c != nil && c.svc != nil
}

// InsertEvent creates the event on the configured calendar.
func (c *GoogleClient) InsertEvent(ctx context.Context, event Event) (Event, error) {
	if c.svc == nil {
		return Event{}, ErrNotAuthorized
	}

	body := &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start: &gcal.EventDateTime{
			DateTime: event.StartAt.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		End: &gcal.EventDateTime{
			DateTime: event.EndAt.Format(time.RFC3339),
			TimeZone: c.timezone,
		},
		Reminders: &gcal.EventReminders{
			UseDefault:      true,
			ForceSendFields: []string{"UseDefault"},
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, body).Context(ctx).Do()
	if err != nil {
		return Event{}, fmt.Errorf("failed to insert calendar event: %w", err)
	}
	return eventFromGoogle(created), nil
}

// ListEvents runs the provider's free-text search within the time window.
func (c *GoogleClient) ListEvents(ctx context.Context, query string, from, to time.Time) ([]Event, error) {
	if c.svc == nil {
		return nil, ErrNotAuthorized
	}

	call := c.svc.Events.List(c.calendarID).
		Q(query).
		TimeMin(from.Format(time.RFC3339)).
		TimeMax(to.Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime")

	var events []Event
	err := call.Pages(ctx, func(page *gcal.Events) error {
		for _, item := range page.Items {
			events = append(events, eventFromGoogle(item))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list calendar events: %w", err)
	}
	return events, nil
}

// DeleteEvent removes a single event by its provider-assigned id.
func (c *GoogleClient) DeleteEvent(ctx context.Context, eventID string) error {
	if c.svc == nil {
		return ErrNotAuthorized
	}
	if err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to delete calendar event %s: %w", eventID, err)
	}
	return nil
}

func eventFromGoogle(item *gcal.Event) Event {
	event := Event{
		ID:          item.Id,
		Summary:     item.Summary,
		Description: item.Description,
	}
	event.StartAt = parseEventTime(item.Start)
	event.EndAt = parseEventTime(item.End)
	return event
}

func parseEventTime(dt *gcal.EventDateTime) time.Time {
	if dt == nil {
		return time.Time{}
	}
	if dt.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, dt.DateTime); err == nil {
			return t
		}
	}
	if dt.Date != "" {
		if t, err := time.Parse("2006-01-02", dt.Date); err == nil {
			return t
		}
	}
	return time.Time{}
}
