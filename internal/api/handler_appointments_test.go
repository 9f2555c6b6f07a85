package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practice-scheduler-backend/internal/model"
)

func TestListPatientAppointments(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	w := doJSON(t, r, "POST", "/api/patients/1/series", weeklyBody())
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "GET", "/api/patients/1/appointments?user_id=9", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(52), body["count"])
}

func TestListPatientAppointments_WrongUser(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	w := doJSON(t, r, "GET", "/api/patients/1/appointments?user_id=8", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, "GET", "/api/patients/1/appointments", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestUpdateAppointment(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	single := weeklyBody()
	single["frequency"] = "single"
	w := doJSON(t, r, "POST", "/api/patients/1/series", single)
	require.Equal(t, http.StatusCreated, w.Code)

	var occ model.Occurrence
	require.NoError(t, s.DB().First(&occ).Error)

	w = doJSON(t, r, "PATCH", "/api/appointments/1", map[string]any{
		"user_id": 9,
		"status":  "completed",
		"notes":   "pagado",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var updated model.Occurrence
	require.NoError(t, s.DB().First(&updated, occ.ID).Error)
	assert.Equal(t, model.StatusCompleted, updated.Status)
	assert.Equal(t, "pagado", updated.Notes)
	assert.Equal(t, occ.StartAt.UTC(), updated.StartAt.UTC(), "untouched fields survive")
}

func TestUpdateAppointment_Validation(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	w := doJSON(t, r, "PATCH", "/api/appointments/1", map[string]any{"user_id": 9, "status": "done"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "PATCH", "/api/appointments/1", map[string]any{"user_id": 9, "amount": -2})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "PATCH", "/api/appointments/99", map[string]any{"user_id": 9, "notes": "x"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteAppointment(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	single := weeklyBody()
	single["frequency"] = "single"
	w := doJSON(t, r, "POST", "/api/patients/1/series", single)
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "DELETE", "/api/appointments/1?user_id=8", nil)
	assert.Equal(t, http.StatusNotFound, w.Code, "another practitioner cannot delete it")

	w = doJSON(t, r, "DELETE", "/api/appointments/1?user_id=9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decodeBody(t, w)["deleted_count"])

	w = doJSON(t, r, "DELETE", "/api/appointments/1?user_id=9", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeletePendingAppointments(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	w := doJSON(t, r, "POST", "/api/patients/1/series", weeklyBody())
	require.Equal(t, http.StatusCreated, w.Code)

	// Mark one as completed so it survives the bulk delete.
	status := model.StatusCompleted
	require.NoError(t, s.DB().Model(&model.Occurrence{}).Where("id = ?", 1).Update("status", status).Error)

	w = doJSON(t, r, "DELETE", "/api/patients/1/appointments/pending?user_id=9", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(51), decodeBody(t, w)["deleted_count"])

	var remaining int64
	s.DB().Model(&model.Occurrence{}).Count(&remaining)
	assert.Equal(t, int64(1), remaining)
}
