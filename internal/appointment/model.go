package appointment

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending     Status = "pending"
	StatusConfirmed   Status = "confirmed"
	StatusCancelled   Status = "cancelled"
	StatusCompleted   Status = "completed"
	StatusNotAppeared Status = "not_appeared"
)

// Terminal reports whether the status ends the appointment for good.
// not_appeared is deliberately excluded: a no-show can still be confirmed
// later if the patient turns up.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNotAppeared:
		return true
	}
	return false
}

type Outcome string

const (
	OutcomeSuccessful   Outcome = "successful"
	OutcomePartial      Outcome = "partial"
	OutcomeUnsuccessful Outcome = "unsuccessful"
	OutcomeOngoing      Outcome = "ongoing"
)

func (o Outcome) Valid() bool {
	switch o {
	case OutcomeSuccessful, OutcomePartial, OutcomeUnsuccessful, OutcomeOngoing:
		return true
	}
	return false
}

// Terminal reports whether the outcome ends the patient's engagement.
// partial implies continued treatment and is not terminal.
func (o Outcome) Terminal() bool {
	return o == OutcomeSuccessful || o == OutcomeUnsuccessful
}

const (
	dateLayout = "2006-01-02"
	slotLayout = "2006-01-02 15:04"
)

type Appointment struct {
	ID         uuid.UUID
	PatientID  uuid.UUID
	DoctorID   uuid.UUID
	HospitalID uuid.UUID

	Date string // calendar day, YYYY-MM-DD
	Time string // slot, HH:MM
	Type string // consultation, followup, ...

	Status Status

	Symptoms         *string
	Notes            *string
	Diagnosis        *string
	Disease          *string
	TreatmentOutcome Outcome
	TreatmentEndDate *time.Time

	NoShowReason          *string
	CheckInTime           *time.Time
	ConsultationStartTime *time.Time

	IsFollowUp            bool
	NeedsTimeSlot         bool
	TimeSlotConfirmed     bool
	ReminderSent          bool
	OriginalAppointmentID *uuid.UUID
	RelatedReportID       *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ScheduledAt resolves the date and slot strings into a point in time.
func (a *Appointment) ScheduledAt() (time.Time, error) {
	return time.Parse(slotLayout, a.Date+" "+a.Time)
}

type Doctor struct {
	ID         uuid.UUID
	UserID     uuid.UUID // account record, used to resolve ownership
	Name       string
	Specialty  *string
	HospitalID uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

type Hospital struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
