package api

import (
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"practice-scheduler-backend/config"
	"practice-scheduler-backend/internal/calendar"
	"practice-scheduler-backend/internal/mw"
	"practice-scheduler-backend/internal/store"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(cfg *config.Config, s store.Store, client calendar.Client, notifier Notifier, webpushOptions *webpush.Options) *gin.Engine {
	r := gin.Default()

	handler := NewHandler(cfg, s, client, notifier, webpushOptions)

	// Initialize middleware
	// Rate limit: 10 requests per second with a burst of 5
	rateLimiter := mw.RateLimiter(rate.Limit(10), 5)

	// Cache: only the date preview is cached, it is a pure function of its query
	cacheStore := cache.New(5*time.Minute, 10*time.Minute)
	caching := mw.Cache(cacheStore, 5*time.Minute)

	// API group
	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		// GET /api/recurring-dates?start=...&frequency=...
		api.GET("/recurring-dates", caching, handler.GetRecurringDates)

		// Series creation and the confirmation round-trip
		api.POST("/patients/:patient_id/series", handler.ProposeSeries)
		api.POST("/series/proposals/:proposal_id", handler.CommitSeries)

		// Appointment maintenance
		api.GET("/patients/:patient_id/appointments", handler.ListPatientAppointments)
		api.PATCH("/appointments/:id", handler.UpdateAppointment)
		api.DELETE("/appointments/:id", handler.DeleteAppointment)
		api.DELETE("/patients/:patient_id/appointments/pending", handler.DeletePendingAppointments)

		// External calendar
		api.GET("/calendar/status", handler.GetCalendarStatus)
		api.POST("/patients/:patient_id/calendar/sync", handler.SyncPatientCalendar)
		api.DELETE("/patients/:patient_id/calendar", handler.DeletePatientCalendar)

		// Push subscriptions
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
