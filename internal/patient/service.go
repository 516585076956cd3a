package patient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service owns patient lookup/creation and the status synchronization
// rules driven by appointment transitions. The lifecycle engine calls it
// after its own writes; a failure here is the caller's warning, never its
// rollback.
type Service struct {
	repo Repository
	log  zerolog.Logger
	now  func() time.Time
}

type ServiceOption func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(repo Repository, log zerolog.Logger, opts ...ServiceOption) *Service {
	s := &Service{
		repo: repo,
		log:  log,
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// FindOrCreate resolves the booking contact details to a patient record,
// creating one lazily on first contact. Lookup is by email. The home
// hospital sticks once set; the primary doctor follows the most recent
// booking.
func (s *Service) FindOrCreate(ctx context.Context, d Details) (*Patient, error) {
	existing, err := s.repo.GetByEmail(ctx, d.Email)
	if err == nil {
		changed := false
		if existing.HospitalID == nil && d.HospitalID != uuid.Nil {
			h := d.HospitalID
			existing.HospitalID = &h
			changed = true
		}
		if d.DoctorID != uuid.Nil && (existing.PrimaryDoctorID == nil || *existing.PrimaryDoctorID != d.DoctorID) {
			doc := d.DoctorID
			existing.PrimaryDoctorID = &doc
			changed = true
		}
		if !changed {
			return existing, nil
		}
		return s.repo.Update(ctx, existing)
	}
	if !errors.Is(err, ErrPatientNotFound) {
		return nil, fmt.Errorf("lookup patient by email: %w", err)
	}

	p := &Patient{
		Name:             d.Name,
		Email:            d.Email,
		Status:           StatusActive,
		LastStatusChange: s.now(),
	}
	if d.Phone != "" {
		p.Phone = &d.Phone
	}
	if d.Gender != "" {
		p.Gender = &d.Gender
	}
	if d.HospitalID != uuid.Nil {
		h := d.HospitalID
		p.HospitalID = &h
	}
	if d.DoctorID != uuid.Nil {
		doc := d.DoctorID
		p.PrimaryDoctorID = &doc
	}

	created, err := s.repo.Create(ctx, p)
	if err != nil {
		return nil, fmt.Errorf("create patient: %w", err)
	}

	s.log.Info().
		Str("patient_id", created.ID.String()).
		Str("email", created.Email).
		Msg("patient created from booking details")

	return created, nil
}

// EnsureActive applies the activation rule: an inactive patient engaging
// with care again flips to active with a fresh status-change timestamp.
// An already-active patient is untouched, so the timestamp is never reset
// by repeat bookings.
func (s *Service) EnsureActive(ctx context.Context, id uuid.UUID) (*Patient, bool, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, false, fmt.Errorf("load patient: %w", err)
	}

	if p.Status == StatusActive {
		return p, false, nil
	}

	updated, err := s.repo.SetStatus(ctx, id, StatusActive, s.now(), p.TreatmentDays)
	if err != nil {
		return nil, false, fmt.Errorf("activate patient: %w", err)
	}

	s.log.Info().
		Str("patient_id", id.String()).
		Msg("patient reactivated")

	return updated, true, nil
}

// CloseTreatment applies the deactivation rule for a terminal treatment
// outcome: accrue whole days spent active since the last flip into the
// treatment-days counter, then go inactive. Already-inactive patients are
// left alone so repeated terminal outcomes cannot double-count days.
func (s *Service) CloseTreatment(ctx context.Context, id uuid.UUID) (*Patient, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load patient: %w", err)
	}

	if p.Status != StatusActive {
		return p, nil
	}

	now := s.now()
	elapsed := int(now.Sub(p.LastStatusChange).Hours() / 24)
	if elapsed < 0 {
		elapsed = 0
	}

	updated, err := s.repo.SetStatus(ctx, id, StatusInactive, now, p.TreatmentDays+elapsed)
	if err != nil {
		return nil, fmt.Errorf("deactivate patient: %w", err)
	}

	s.log.Info().
		Str("patient_id", id.String()).
		Int("accrued_days", elapsed).
		Int("treatment_days", updated.TreatmentDays).
		Msg("patient treatment closed")

	return updated, nil
}
