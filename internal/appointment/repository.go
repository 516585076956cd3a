package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrHospitalNotFound    = errors.New("hospital not found")
)

// Repository contains all DB interactions needed by the lifecycle engine.
type Repository interface {
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error)
	GetHospitalByID(ctx context.Context, id uuid.UUID) (*Hospital, error)

	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindActiveBySlot is the double-booking check: any appointment on the
	// doctor/date/time triple whose status is not cancelled.
	FindActiveBySlot(ctx context.Context, doctorID uuid.UUID, date, timeSlot string) (*Appointment, error)

	Create(ctx context.Context, a *Appointment) (*Appointment, error)
	Update(ctx context.Context, a *Appointment) (*Appointment, error)

	// UpdateStatus is a compare-and-set: it only writes when the current
	// status matches from, and reports ErrAppointmentNotFound otherwise.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error)

	// FindOverdueConfirmed returns confirmed appointments whose scheduled
	// slot time is before the cutoff. Feeds the no-show sweep.
	FindOverdueConfirmed(ctx context.Context, cutoff time.Time) ([]Appointment, error)

	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error)
	ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error)
}
