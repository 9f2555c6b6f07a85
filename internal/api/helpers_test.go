package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"practice-scheduler-backend/config"
	"practice-scheduler-backend/internal/calendar"
	"practice-scheduler-backend/internal/model"
	"practice-scheduler-backend/internal/store"
)

// fakeCalendar is an in-memory calendar.Client for handler tests.
type fakeCalendar struct {
	mu         sync.Mutex
	authorized bool
	insertErr  error
	listResult map[string][]calendar.Event
	inserted   []calendar.Event
	deleted    []string
	nextID     int
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{authorized: true, listResult: map[string][]calendar.Event{}}
}

func (f *fakeCalendar) IsAuthorized(ctx context.Context) bool { return f.authorized }

func (f *fakeCalendar) InsertEvent(ctx context.Context, event calendar.Event) (calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return calendar.Event{}, f.insertErr
	}
	f.nextID++
	event.ID = fmt.Sprintf("evt-%d", f.nextID)
	f.inserted = append(f.inserted, event)
	return event, nil
}

func (f *fakeCalendar) ListEvents(ctx context.Context, query string, from, to time.Time) ([]calendar.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listResult[query], nil
}

func (f *fakeCalendar) DeleteEvent(ctx context.Context, eventID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, eventID)
	return nil
}

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Scheduler.MaxOccurrences = 52
	cfg.Scheduler.ProposalTTL = time.Minute
	cfg.Calendar.Timezone = "UTC"
	cfg.Calendar.BatchSize = 10
	cfg.Calendar.InterBatchDelay = time.Millisecond
	return cfg
}

// setupAPI wires a handler against a private in-memory database and registers
// the routes without the rate limiting and caching middleware.
func setupAPI(t *testing.T, client calendar.Client) (*gin.Engine, store.Store) {
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:api_%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		sqlDB.Close()
	})
	require.NoError(t, db.AutoMigrate(&model.Patient{}, &model.Occurrence{}, &model.PushSubscription{}))

	s := store.NewGormStore(db)
	handler := NewHandler(testConfig(), s, client, nil, &webpush.Options{VAPIDPublicKey: "test-public-key"})

	r := gin.New()
	api := r.Group("/api")
	{
		api.GET("/recurring-dates", handler.GetRecurringDates)
		api.POST("/patients/:patient_id/series", handler.ProposeSeries)
		api.POST("/series/proposals/:proposal_id", handler.CommitSeries)
		api.GET("/patients/:patient_id/appointments", handler.ListPatientAppointments)
		api.PATCH("/appointments/:id", handler.UpdateAppointment)
		api.DELETE("/appointments/:id", handler.DeleteAppointment)
		api.DELETE("/patients/:patient_id/appointments/pending", handler.DeletePendingAppointments)
		api.GET("/calendar/status", handler.GetCalendarStatus)
		api.POST("/patients/:patient_id/calendar/sync", handler.SyncPatientCalendar)
		api.DELETE("/patients/:patient_id/calendar", handler.DeletePatientCalendar)
		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}
	return r, s
}

func seedPatient(t *testing.T, s store.Store, id, userID int64, name, lastName string) {
	err := s.DB().Create(&model.Patient{ID: id, UserID: userID, Name: name, LastName: lastName}).Error
	require.NoError(t, err)
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(encoded)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}
