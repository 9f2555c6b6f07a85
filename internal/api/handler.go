package api

import (
	"log"
	"strconv"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"

	"practice-scheduler-backend/config"
	"practice-scheduler-backend/internal/calendar"
	"practice-scheduler-backend/internal/notification"
	"practice-scheduler-backend/internal/series"
	"practice-scheduler-backend/internal/store"
)

// Notifier dispatches operation outcomes to the practitioner's browser
// subscriptions.
type Notifier interface {
	Dispatch(msg notification.Message)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store          store.Store
	writer         *series.Writer
	proposals      *series.ProposalStore
	synchronizer   *calendar.Synchronizer
	locator        *calendar.Locator
	calendar       calendar.Client
	notifier       Notifier
	webpush        *webpush.Options
	maxOccurrences int
}

// NewHandler creates a new API handler wired to the given store and calendar
// client.
func NewHandler(cfg *config.Config, s store.Store, client calendar.Client, notifier Notifier, webpushOptions *webpush.Options) *Handler {
	location := time.Local
	if cfg.Calendar.Timezone != "" {
		loc, err := time.LoadLocation(cfg.Calendar.Timezone)
		if err != nil {
			log.Printf("Warning: invalid calendar timezone %q, using local time: %v", cfg.Calendar.Timezone, err)
		} else {
			location = loc
		}
	}

	return &Handler{
		store:          s,
		writer:         series.NewWriter(s, cfg.Scheduler.MaxOccurrences),
		proposals:      series.NewProposalStore(cfg.Scheduler.ProposalTTL),
		synchronizer:   calendar.NewSynchronizer(client, cfg.Calendar.BatchSize, cfg.Calendar.InterBatchDelay, location),
		locator:        calendar.NewLocator(client, cfg.Calendar.BatchSize, cfg.Calendar.InterBatchDelay),
		calendar:       client,
		notifier:       notifier,
		webpush:        webpushOptions,
		maxOccurrences: cfg.Scheduler.MaxOccurrences,
	}
}

// notify pushes a message to the practitioner when a notifier is configured.
func (h *Handler) notify(userID int64, body string) {
	if h.notifier == nil {
		return
	}
	h.notifier.Dispatch(notification.Message{UserID: userID, Body: body})
}

// pathID parses a numeric path parameter.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// queryUserID parses the practitioner id that scopes every data operation.
func queryUserID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
