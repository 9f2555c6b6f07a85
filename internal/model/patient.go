package model

import (
	"strings"
	"time"
)

// Patient represents a patient of the practice.
type Patient struct {
	ID        int64  `gorm:"primaryKey" json:"id"`
	UserID    int64  `gorm:"index;not null" json:"user_id"`
	Name      string `gorm:"size:128;not null" json:"name"`
	LastName  string `gorm:"size:128" json:"last_name"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Associations
	Appointments []Occurrence `gorm:"foreignKey:PatientID;constraint:OnDelete:CASCADE"`
}

// FullName returns the patient's display name as used in calendar event titles.
func (p Patient) FullName() string {
	full := strings.TrimSpace(p.Name + " " + p.LastName)
	if full == "" {
		return "Paciente"
	}
	return full
}
