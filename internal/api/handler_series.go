package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"practice-scheduler-backend/internal/model"
	"practice-scheduler-backend/internal/recur"
	"practice-scheduler-backend/internal/series"
)

// GetRecurringDates handles the GET /api/recurring-dates request. It is a
// pure preview: nothing is persisted.
func (h *Handler) GetRecurringDates(c *gin.Context) {
	start, err := time.Parse(time.RFC3339, c.Query("start"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "start must be an RFC3339 timestamp"})
		return
	}

	frequency := model.Frequency(c.Query("frequency"))
	if !frequency.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown frequency %q", frequency)})
		return
	}

	dates, err := recur.Generate(start, frequency, h.maxOccurrences)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"dates": dates, "count": len(dates)})
}

type seriesRequest struct {
	UserID    int64           `json:"user_id" binding:"required"`
	Date      time.Time       `json:"date" binding:"required"`
	Frequency model.Frequency `json:"frequency"`
	Status    model.Status    `json:"status"`
	Amount    *float64        `json:"amount" binding:"required"`
	Notes     string          `json:"notes"`
}

// ProposeSeries handles the POST /api/patients/{patient_id}/series request.
// A request that does not collide with an existing pending series is executed
// immediately; a colliding one is parked as a proposal and answered with 202
// so the client can ask the user how to resolve it.
func (h *Handler) ProposeSeries(c *gin.Context) {
	patientID, ok := pathID(c, "patient_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return
	}

	var req seriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.store.GetPatient(c.Request.Context(), patientID, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	writeReq := series.Request{
		PatientID: patientID,
		UserID:    req.UserID,
		StartAt:   req.Date,
		Frequency: req.Frequency,
		Status:    req.Status,
		Amount:    *req.Amount,
		Notes:     req.Notes,
	}

	existing, err := h.store.ListPendingRecurring(c.Request.Context(), patientID, req.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	decision := recur.Reconcile(req.Frequency, existing)
	if !decision.RequiresConfirmation {
		h.executeWrite(c, writeReq, false)
		return
	}

	proposal := h.proposals.Put(writeReq, decision.Plans)
	c.JSON(http.StatusAccepted, gin.H{
		"requires_confirmation": true,
		"proposal_id":           proposal.ID,
		"options":               decision.Plans,
		"existing_count":        len(existing),
	})
}

type commitRequest struct {
	Resolution string `json:"resolution" binding:"required"`
}

// CommitSeries handles the POST /api/series/proposals/{proposal_id} request.
// The resolution is validated before the proposal is consumed, so a typo does
// not burn it.
func (h *Handler) CommitSeries(c *gin.Context) {
	var req commitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var clearExisting bool
	switch recur.Plan(req.Resolution) {
	case recur.PlanReplace:
		clearExisting = true
	case recur.PlanKeep:
		clearExisting = false
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown resolution %q", req.Resolution)})
		return
	}

	proposal, found := h.proposals.Take(c.Param("proposal_id"))
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "proposal not found or expired"})
		return
	}

	h.executeWrite(c, proposal.Request, clearExisting)
}

// executeWrite runs the series writer and translates its errors into HTTP
// responses. A partial failure (existing series deleted, replacement not
// created) is reported distinctly so the client never mistakes it for a
// clean failure.
func (h *Handler) executeWrite(c *gin.Context, req series.Request, clearExisting bool) {
	result, err := h.writer.Write(c.Request.Context(), req, clearExisting)
	if err != nil {
		var validationErr *series.ValidationError
		var partialErr *series.PartialSeriesError
		switch {
		case errors.As(err, &validationErr):
			c.JSON(http.StatusBadRequest, gin.H{"error": validationErr.Error()})
		case errors.As(err, &partialErr):
			h.notify(req.UserID, fmt.Sprintf(
				"Se eliminaron %d citas pero la nueva serie no pudo crearse. Revisa la agenda del paciente.",
				partialErr.DeletedCount))
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":         "partial_series_failure",
				"deleted_count": partialErr.DeletedCount,
			})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"series_id":     result.SeriesID,
		"created_count": len(result.Created),
		"deleted_count": result.DeletedCount,
		"appointments":  result.Created,
	})
}
