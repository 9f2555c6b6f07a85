package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"practice-scheduler-backend/internal/model"
)

// Store defines the interface for all database operations.
type Store interface {
	DB() *gorm.DB
	GetPatient(ctx context.Context, patientID, userID int64) (model.Patient, error)
	ListByPatient(ctx context.Context, patientID, userID int64) ([]model.Occurrence, error)
	ListPending(ctx context.Context, patientID, userID int64) ([]model.Occurrence, error)
	ListPendingRecurring(ctx context.Context, patientID, userID int64) ([]model.Occurrence, error)
	CreateOccurrences(ctx context.Context, occurrences []model.Occurrence) ([]model.Occurrence, error)
	UpdateOccurrence(ctx context.Context, id, userID int64, fields OccurrenceUpdate) (model.Occurrence, error)
	DeleteOccurrence(ctx context.Context, id, userID int64) error
	DeletePending(ctx context.Context, patientID, userID int64) (int64, error)
	DeletePendingRecurring(ctx context.Context, patientID, userID int64) (int64, error)
}

// gormStore implements the Store interface using GORM.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

// DB exposes the underlying connection for components that need direct access.
func (s *gormStore) DB() *gorm.DB {
	return s.db
}

func (s *gormStore) GetPatient(ctx context.Context, patientID, userID int64) (model.Patient, error) {
	var patient model.Patient
	err := s.db.WithContext(ctx).
		First(&patient, "id = ? AND user_id = ?", patientID, userID).Error
	if err != nil {
		return model.Patient{}, err
	}
	return patient, nil
}

func (s *gormStore) ListByPatient(ctx context.Context, patientID, userID int64) ([]model.Occurrence, error) {
	var occurrences []model.Occurrence
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND user_id = ?", patientID, userID).
		Order("start_at ASC").
		Find(&occurrences).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments for patient %d: %w", patientID, err)
	}
	return occurrences, nil
}

func (s *gormStore) ListPending(ctx context.Context, patientID, userID int64) ([]model.Occurrence, error) {
	var occurrences []model.Occurrence
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND user_id = ? AND status = ?", patientID, userID, model.StatusPending).
		Order("start_at ASC").
		Find(&occurrences).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending appointments for patient %d: %w", patientID, err)
	}
	return occurrences, nil
}

// ListPendingRecurring returns the patient's pending occurrences that belong
// to a series. Series membership is the (pending, non-single) filter.
func (s *gormStore) ListPendingRecurring(ctx context.Context, patientID, userID int64) ([]model.Occurrence, error) {
	var occurrences []model.Occurrence
	err := s.db.WithContext(ctx).
		Where("patient_id = ? AND user_id = ? AND status = ? AND frequency <> ?",
			patientID, userID, model.StatusPending, model.FrequencySingle).
		Order("start_at ASC").
		Find(&occurrences).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list pending series for patient %d: %w", patientID, err)
	}
	return occurrences, nil
}

func (s *gormStore) CreateOccurrences(ctx context.Context, occurrences []model.Occurrence) ([]model.Occurrence, error) {
	if len(occurrences) == 0 {
		return nil, nil
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&occurrences).Error
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create %d appointments: %w", len(occurrences), err)
	}
	return occurrences, nil
}

// OccurrenceUpdate carries the editable fields of an occurrence. Nil fields
// are left untouched.
type OccurrenceUpdate struct {
	StartAt *time.Time
	Status  *model.Status
	Amount  *float64
	Notes   *string
}

func (s *gormStore) UpdateOccurrence(ctx context.Context, id, userID int64, fields OccurrenceUpdate) (model.Occurrence, error) {
	updates := make(map[string]any)
	if fields.StartAt != nil {
		updates["start_at"] = *fields.StartAt
	}
	if fields.Status != nil {
		updates["status"] = *fields.Status
	}
	if fields.Amount != nil {
		updates["amount"] = *fields.Amount
	}
	if fields.Notes != nil {
		updates["notes"] = *fields.Notes
	}

	var occurrence model.Occurrence
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&occurrence, "id = ? AND user_id = ?", id, userID).Error; err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&occurrence).Updates(updates).Error
	})
	if err != nil {
		return model.Occurrence{}, err
	}
	return occurrence, nil
}

func (s *gormStore) DeleteOccurrence(ctx context.Context, id, userID int64) error {
	res := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&model.Occurrence{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete appointment %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeletePending removes every pending occurrence of the patient, regardless
// of frequency, and returns the number of deleted rows.
func (s *gormStore) DeletePending(ctx context.Context, patientID, userID int64) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("patient_id = ? AND user_id = ? AND status = ?", patientID, userID, model.StatusPending).
		Delete(&model.Occurrence{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete pending appointments for patient %d: %w", patientID, res.Error)
	}
	return res.RowsAffected, nil
}

// DeletePendingRecurring removes the patient's pending non-single occurrences
// and returns the number of deleted rows. Occurrences of other patients and
// single occurrences are never touched.
func (s *gormStore) DeletePendingRecurring(ctx context.Context, patientID, userID int64) (int64, error) {
	res := s.db.WithContext(ctx).
		Where("patient_id = ? AND user_id = ? AND status = ? AND frequency <> ?",
			patientID, userID, model.StatusPending, model.FrequencySingle).
		Delete(&model.Occurrence{})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to delete pending series for patient %d: %w", patientID, res.Error)
	}
	return res.RowsAffected, nil
}
