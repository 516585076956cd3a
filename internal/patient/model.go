package patient

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Patient struct {
	ID             uuid.UUID
	UserID         *uuid.UUID // account record, if the patient ever logged in
	Name           string
	Email          string
	Phone          *string
	DateOfBirth    *time.Time
	Gender         *string
	BloodGroup     *string
	Allergies      []string
	MedicalHistory []string

	// Status flips are driven exclusively by the synchronizer. A flip
	// always rewrites LastStatusChange in the same save; TreatmentDays
	// only ever grows.
	Status           Status
	LastStatusChange time.Time
	TreatmentDays    int

	HospitalID      *uuid.UUID // home hospital, first association wins
	PrimaryDoctorID *uuid.UUID // doctor from the most recent booking

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Details is the contact payload supplied at booking time, used to look up
// or lazily create the patient record.
type Details struct {
	Name       string
	Email      string
	Phone      string
	Gender     string
	HospitalID uuid.UUID
	DoctorID   uuid.UUID
}
