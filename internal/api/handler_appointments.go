package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"practice-scheduler-backend/internal/model"
	"practice-scheduler-backend/internal/store"
)

// ListPatientAppointments handles the GET /api/patients/{patient_id}/appointments request.
func (h *Handler) ListPatientAppointments(c *gin.Context) {
	patientID, ok := pathID(c, "patient_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return
	}
	userID, ok := queryUserID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	if _, err := h.store.GetPatient(c.Request.Context(), patientID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	occurrences, err := h.store.ListByPatient(c.Request.Context(), patientID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"appointments": occurrences, "count": len(occurrences)})
}

type updateAppointmentRequest struct {
	UserID int64         `json:"user_id" binding:"required"`
	Date   *time.Time    `json:"date"`
	Status *model.Status `json:"status"`
	Amount *float64      `json:"amount"`
	Notes  *string       `json:"notes"`
}

// UpdateAppointment handles the PATCH /api/appointments/{id} request. Only
// the fields present in the body are touched; the occurrence keeps its series
// membership either way.
func (h *Handler) UpdateAppointment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}

	var req updateAppointmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("unknown status %q", *req.Status)})
		return
	}
	if req.Amount != nil && *req.Amount < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must not be negative"})
		return
	}

	occurrence, err := h.store.UpdateOccurrence(c.Request.Context(), id, req.UserID, store.OccurrenceUpdate{
		StartAt: req.Date,
		Status:  req.Status,
		Amount:  req.Amount,
		Notes:   req.Notes,
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, occurrence)
}

// DeleteAppointment handles the DELETE /api/appointments/{id} request.
func (h *Handler) DeleteAppointment(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid appointment id"})
		return
	}
	userID, ok := queryUserID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	if err := h.store.DeleteOccurrence(c.Request.Context(), id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "appointment not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted_count": 1})
}

// DeletePendingAppointments handles the DELETE /api/patients/{patient_id}/appointments/pending
// request. Completed and canceled occurrences are the patient's history and
// are never touched.
func (h *Handler) DeletePendingAppointments(c *gin.Context) {
	patientID, ok := pathID(c, "patient_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return
	}
	userID, ok := queryUserID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return
	}

	if _, err := h.store.GetPatient(c.Request.Context(), patientID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	deleted, err := h.store.DeletePending(c.Request.Context(), patientID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
}
