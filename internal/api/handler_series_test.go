package api

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"practice-scheduler-backend/internal/model"
)

func weeklyBody() map[string]any {
	return map[string]any{
		"user_id":   9,
		"date":      "2026-03-10T15:00:00Z",
		"frequency": "weekly",
		"amount":    50,
	}
}

func TestGetRecurringDates(t *testing.T) {
	r, _ := setupAPI(t, newFakeCalendar())

	w := doJSON(t, r, "GET", "/api/recurring-dates?start=2026-03-10T15:00:00Z&frequency=weekly", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(52), body["count"])
	assert.Len(t, body["dates"], 52)
}

func TestGetRecurringDates_BadInput(t *testing.T) {
	r, _ := setupAPI(t, newFakeCalendar())

	w := doJSON(t, r, "GET", "/api/recurring-dates?start=not-a-date&frequency=weekly", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, "GET", "/api/recurring-dates?start=2026-03-10T15:00:00Z&frequency=daily", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProposeSeries_CreatesImmediately(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	w := doJSON(t, r, "POST", "/api/patients/1/series", weeklyBody())
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(52), body["created_count"])
	assert.Equal(t, float64(0), body["deleted_count"])
	assert.NotEmpty(t, body["series_id"])

	var count int64
	s.DB().Model(&model.Occurrence{}).Count(&count)
	assert.Equal(t, int64(52), count)
}

func TestProposeSeries_SingleNeverAsksConfirmation(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	w := doJSON(t, r, "POST", "/api/patients/1/series", weeklyBody())
	require.Equal(t, http.StatusCreated, w.Code)

	single := weeklyBody()
	single["frequency"] = "single"
	w = doJSON(t, r, "POST", "/api/patients/1/series", single)
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(1), body["created_count"])
	assert.Empty(t, body["series_id"])
}

func TestProposeSeries_CollisionNeedsConfirmation(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	w := doJSON(t, r, "POST", "/api/patients/1/series", weeklyBody())
	require.Equal(t, http.StatusCreated, w.Code)

	monthly := weeklyBody()
	monthly["frequency"] = "monthly"
	w = doJSON(t, r, "POST", "/api/patients/1/series", monthly)
	require.Equal(t, http.StatusAccepted, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, true, body["requires_confirmation"])
	assert.NotEmpty(t, body["proposal_id"])
	assert.Equal(t, []any{"replace", "keep"}, body["options"])

	// Nothing is written while the proposal is pending.
	var count int64
	s.DB().Model(&model.Occurrence{}).Count(&count)
	assert.Equal(t, int64(52), count)
}

func TestCommitSeries_Replace(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	w := doJSON(t, r, "POST", "/api/patients/1/series", weeklyBody())
	require.Equal(t, http.StatusCreated, w.Code)

	monthly := weeklyBody()
	monthly["frequency"] = "monthly"
	w = doJSON(t, r, "POST", "/api/patients/1/series", monthly)
	require.Equal(t, http.StatusAccepted, w.Code)
	proposalID := decodeBody(t, w)["proposal_id"].(string)

	w = doJSON(t, r, "POST", "/api/series/proposals/"+proposalID, map[string]any{"resolution": "replace"})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(52), body["deleted_count"])
	assert.Equal(t, float64(13), body["created_count"])

	var count int64
	s.DB().Model(&model.Occurrence{}).Count(&count)
	assert.Equal(t, int64(13), count, "only the monthly series remains")
}

func TestCommitSeries_Keep(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	w := doJSON(t, r, "POST", "/api/patients/1/series", weeklyBody())
	require.Equal(t, http.StatusCreated, w.Code)

	monthly := weeklyBody()
	monthly["frequency"] = "monthly"
	w = doJSON(t, r, "POST", "/api/patients/1/series", monthly)
	require.Equal(t, http.StatusAccepted, w.Code)
	proposalID := decodeBody(t, w)["proposal_id"].(string)

	w = doJSON(t, r, "POST", "/api/series/proposals/"+proposalID, map[string]any{"resolution": "keep"})
	require.Equal(t, http.StatusCreated, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, float64(0), body["deleted_count"])

	var count int64
	s.DB().Model(&model.Occurrence{}).Count(&count)
	assert.Equal(t, int64(65), count, "both series coexist")
}

func TestCommitSeries_InvalidResolutionKeepsProposal(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	w := doJSON(t, r, "POST", "/api/patients/1/series", weeklyBody())
	require.Equal(t, http.StatusCreated, w.Code)

	monthly := weeklyBody()
	monthly["frequency"] = "monthly"
	w = doJSON(t, r, "POST", "/api/patients/1/series", monthly)
	require.Equal(t, http.StatusAccepted, w.Code)
	proposalID := decodeBody(t, w)["proposal_id"].(string)

	w = doJSON(t, r, "POST", "/api/series/proposals/"+proposalID, map[string]any{"resolution": "merge"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// The proposal survives a bad resolution and can still be committed.
	w = doJSON(t, r, "POST", "/api/series/proposals/"+proposalID, map[string]any{"resolution": "keep"})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCommitSeries_UnknownProposal(t *testing.T) {
	r, _ := setupAPI(t, newFakeCalendar())

	w := doJSON(t, r, "POST", "/api/series/proposals/no-such-id", map[string]any{"resolution": "keep"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCommitSeries_ProposalIsConsumedOnce(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	w := doJSON(t, r, "POST", "/api/patients/1/series", weeklyBody())
	require.Equal(t, http.StatusCreated, w.Code)

	monthly := weeklyBody()
	monthly["frequency"] = "monthly"
	w = doJSON(t, r, "POST", "/api/patients/1/series", monthly)
	require.Equal(t, http.StatusAccepted, w.Code)
	proposalID := decodeBody(t, w)["proposal_id"].(string)

	w = doJSON(t, r, "POST", "/api/series/proposals/"+proposalID, map[string]any{"resolution": "keep"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doJSON(t, r, "POST", "/api/series/proposals/"+proposalID, map[string]any{"resolution": "keep"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProposeSeries_UnknownPatient(t *testing.T) {
	r, _ := setupAPI(t, newFakeCalendar())

	w := doJSON(t, r, "POST", "/api/patients/42/series", weeklyBody())
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProposeSeries_Validation(t *testing.T) {
	r, s := setupAPI(t, newFakeCalendar())
	seedPatient(t, s, 1, 9, "María", "López")

	bad := weeklyBody()
	bad["amount"] = -5
	w := doJSON(t, r, "POST", "/api/patients/1/series", bad)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	missing := map[string]any{"user_id": 9, "frequency": "weekly"}
	w = doJSON(t, r, "POST", "/api/patients/1/series", missing)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
