package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"practice-scheduler-backend/internal/calendar"
	"practice-scheduler-backend/internal/model"
)

// GetCalendarStatus handles the GET /api/calendar/status request.
func (h *Handler) GetCalendarStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"authorized": h.calendar.IsAuthorized(c.Request.Context())})
}

// SyncPatientCalendar handles the POST /api/patients/{patient_id}/calendar/sync
// request. Every pending occurrence of the patient is mirrored to the external
// calendar; the outcome is pushed to the practitioner's subscriptions.
func (h *Handler) SyncPatientCalendar(c *gin.Context) {
	patient, occurrences, ok := h.patientWithOccurrences(c, h.store.ListPending)
	if !ok {
		return
	}

	if len(occurrences) == 0 {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"created": 0,
			"message": "no pending appointments to sync",
		})
		return
	}

	result, err := h.synchronizer.Sync(c.Request.Context(), occurrences, patient)
	if err != nil {
		if errors.Is(err, calendar.ErrNotAuthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "calendar not authorized"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	h.notify(patient.UserID, fmt.Sprintf(
		"Sincronización de %s: %d citas creadas, %d errores.",
		patient.FullName(), result.Created, result.Errors))
	c.JSON(http.StatusOK, result)
}

type deleteCalendarRequest struct {
	AppointmentIDs []int64 `json:"appointment_ids"`
}

// DeletePatientCalendar handles the DELETE /api/patients/{patient_id}/calendar
// request. Without a body every located event of the patient is removed; with
// appointment ids only events on those appointments' dates are.
func (h *Handler) DeletePatientCalendar(c *gin.Context) {
	patient, all, ok := h.patientWithOccurrences(c, h.store.ListByPatient)
	if !ok {
		return
	}

	// The body is optional; an absent or empty one means an unscoped delete.
	var req deleteCalendarRequest
	if c.Request.Body != nil && c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	var scoped []model.Occurrence
	if len(req.AppointmentIDs) > 0 {
		wanted := make(map[int64]struct{}, len(req.AppointmentIDs))
		for _, id := range req.AppointmentIDs {
			wanted[id] = struct{}{}
		}
		for _, occ := range all {
			if _, ok := wanted[occ.ID]; ok {
				scoped = append(scoped, occ)
			}
		}
		if len(scoped) == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "no matching appointments"})
			return
		}
	}

	result, err := h.locator.DeletePatientEvents(c.Request.Context(), patient, scoped)
	if err != nil {
		if errors.Is(err, calendar.ErrNotAuthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "calendar not authorized"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	h.notify(patient.UserID, fmt.Sprintf(
		"Calendario de %s: %d eventos eliminados, %d errores.",
		patient.FullName(), result.Deleted, result.Errors))
	c.JSON(http.StatusOK, result)
}

// patientWithOccurrences resolves the patient from the path and loads their
// occurrences through list. It writes the error response itself when ok is
// false.
func (h *Handler) patientWithOccurrences(c *gin.Context, list func(ctx context.Context, patientID, userID int64) ([]model.Occurrence, error)) (model.Patient, []model.Occurrence, bool) {
	patientID, ok := pathID(c, "patient_id")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid patient id"})
		return model.Patient{}, nil, false
	}
	userID, ok := queryUserID(c)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id is required"})
		return model.Patient{}, nil, false
	}

	patient, err := h.store.GetPatient(c.Request.Context(), patientID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "patient not found"})
		} else {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return model.Patient{}, nil, false
	}

	occurrences, err := list(c.Request.Context(), patientID, userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return model.Patient{}, nil, false
	}
	return patient, occurrences, true
}
