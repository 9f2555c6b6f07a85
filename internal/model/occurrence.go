package model

import "time"

// Frequency classifies how an appointment series repeats.
type Frequency string

const (
	FrequencySingle   Frequency = "single"
	FrequencyWeekly   Frequency = "weekly"
	FrequencyBiweekly Frequency = "biweekly"
	FrequencyMonthly  Frequency = "monthly"
)

// Valid reports whether f is one of the recognized frequencies.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencySingle, FrequencyWeekly, FrequencyBiweekly, FrequencyMonthly:
		return true
	}
	return false
}

// Recurring reports whether f produces more than one occurrence.
func (f Frequency) Recurring() bool {
	return f.Valid() && f != FrequencySingle
}

// Status is the lifecycle state of a single occurrence.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
)

// Valid reports whether s is one of the recognized statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusCompleted, StatusCanceled:
		return true
	}
	return false
}

// Occurrence is one scheduled appointment instance. Occurrences of a
// recurring series are stored as independent rows sharing a SeriesID.
type Occurrence struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	PatientID int64     `gorm:"index;not null" json:"patient_id"`
	UserID    int64     `gorm:"index;not null" json:"user_id"`
	SeriesID  string    `gorm:"size:36;index" json:"series_id"` // empty for single occurrences
	StartAt   time.Time `gorm:"not null;index" json:"start_at"`
	Frequency Frequency `gorm:"size:16;not null" json:"frequency"`
	Status    Status    `gorm:"size:16;not null;index" json:"status"`
	Amount    float64   `gorm:"not null" json:"amount"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
