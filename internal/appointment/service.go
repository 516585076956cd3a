package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carewell/clinic-scheduling/internal/audit"
	"github.com/carewell/clinic-scheduling/internal/notify"
	"github.com/carewell/clinic-scheduling/internal/patient"
	redisclient "github.com/carewell/clinic-scheduling/internal/redis"
)

const (
	RoleAdmin   = "admin"
	RoleStaff   = "staff"
	RoleDoctor  = "doctor"
	RolePatient = "patient"
)

// Actor identifies who is driving a transition. DoctorID is set only when
// the caller's account resolves to a doctor profile.
type Actor struct {
	UserID   uuid.UUID
	Role     string
	DoctorID uuid.UUID
}

var (
	ErrValidation        = errors.New("validation failed")
	ErrSlotTaken         = errors.New("slot already has an active appointment")
	ErrSlotBeingBooked   = errors.New("slot is currently being booked, please retry")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidOutcome    = errors.New("invalid treatment outcome")
	ErrNotAuthorized     = errors.New("not authorized to update this appointment")
)

// PatientService is the slice of the patient package the engine drives:
// lazy creation at booking time plus the status synchronization rules.
type PatientService interface {
	FindOrCreate(ctx context.Context, d patient.Details) (*patient.Patient, error)
	EnsureActive(ctx context.Context, id uuid.UUID) (*patient.Patient, bool, error)
	CloseTreatment(ctx context.Context, id uuid.UUID) (*patient.Patient, error)
}

// Result is what every mutating operation returns: the appointment write
// that succeeded, plus warnings for side effects that did not. A warning
// never accompanies a rollback.
type Result struct {
	Appointment *Appointment
	Warnings    []string
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Service is the appointment lifecycle engine. All legal status
// transitions run through it; it mutates the appointment first, then
// invokes the patient synchronizer, the audit emitter, and the notifier
// as best-effort side effects.
type Service struct {
	repo     Repository
	patients PatientService
	audit    audit.Emitter
	notifier notify.Notifier
	locker   redisclient.Locker
	grace    time.Duration
	log      zerolog.Logger
	now      func() time.Time
}

type ServiceOption func(*Service)

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

func NewService(
	repo Repository,
	patients PatientService,
	emitter audit.Emitter,
	notifier notify.Notifier,
	locker redisclient.Locker,
	noShowGrace time.Duration,
	log zerolog.Logger,
	opts ...ServiceOption,
) *Service {
	s := &Service{
		repo:     repo,
		patients: patients,
		audit:    emitter,
		notifier: notifier,
		locker:   locker,
		grace:    noShowGrace,
		log:      log,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type BookingRequest struct {
	DoctorID   uuid.UUID
	HospitalID uuid.UUID

	PatientName   string
	PatientEmail  string
	PatientPhone  string
	PatientGender string

	Date string // YYYY-MM-DD
	Time string // HH:MM
	Type string

	Notes    string
	Symptoms string

	// Confirm creates the appointment directly in confirmed, for staff
	// booking on behalf of a walk-in.
	Confirm bool
}

func (req *BookingRequest) validate() error {
	switch {
	case req.DoctorID == uuid.Nil:
		return fmt.Errorf("%w: doctor id is required", ErrValidation)
	case req.HospitalID == uuid.Nil:
		return fmt.Errorf("%w: hospital id is required", ErrValidation)
	case req.PatientName == "":
		return fmt.Errorf("%w: patient name is required", ErrValidation)
	case req.PatientEmail == "":
		return fmt.Errorf("%w: patient email is required", ErrValidation)
	case req.Date == "" || req.Time == "":
		return fmt.Errorf("%w: date and time are required", ErrValidation)
	}
	if _, err := time.Parse(slotLayout, req.Date+" "+req.Time); err != nil {
		return fmt.Errorf("%w: date must be YYYY-MM-DD and time HH:MM", ErrValidation)
	}
	return nil
}

// Book reserves a slot for a patient, creating the patient record from the
// supplied contact details if none exists yet. The double-booking check
// runs inside a per-slot lock so concurrent requests for the same
// doctor/date/time cannot both pass it.
func (s *Service) Book(ctx context.Context, actor Actor, req BookingRequest) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if req.Type == "" {
		req.Type = "consultation"
	}

	doctor, err := s.repo.GetDoctorByID(ctx, req.DoctorID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load doctor: %w", err)
	}
	if _, err := s.repo.GetHospitalByID(ctx, req.HospitalID); err != nil {
		if errors.Is(err, ErrHospitalNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load hospital: %w", err)
	}

	// The patient record is required for the booking itself, so a failure
	// here is a hard failure, unlike the post-write sync below.
	pat, err := s.patients.FindOrCreate(ctx, patient.Details{
		Name:       req.PatientName,
		Email:      req.PatientEmail,
		Phone:      req.PatientPhone,
		Gender:     req.PatientGender,
		HospitalID: req.HospitalID,
		DoctorID:   req.DoctorID,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve patient: %w", err)
	}

	status := StatusPending
	if req.Confirm {
		status = StatusConfirmed
	}

	res := &Result{}
	lockKey := redisclient.SlotLockKey(req.DoctorID, req.Date, req.Time)

	err = s.locker.WithSlotLock(ctx, lockKey, func(lockCtx context.Context) error {
		// Re-check inside the critical section. Cancelled appointments do
		// not hold the slot.
		existing, err := s.repo.FindActiveBySlot(lockCtx, req.DoctorID, req.Date, req.Time)
		if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
			return fmt.Errorf("check slot: %w", err)
		}
		if existing != nil {
			return ErrSlotTaken
		}

		a := &Appointment{
			PatientID:        pat.ID,
			DoctorID:         req.DoctorID,
			HospitalID:       req.HospitalID,
			Date:             req.Date,
			Time:             req.Time,
			Type:             req.Type,
			Status:           status,
			TreatmentOutcome: OutcomeOngoing,
		}
		if req.Notes != "" {
			a.Notes = &req.Notes
		}
		if req.Symptoms != "" {
			a.Symptoms = &req.Symptoms
		}

		created, err := s.repo.Create(lockCtx, a)
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}

		res.Appointment = created
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	appt := res.Appointment

	// Activation rule: a booking never fails because the patient had gone
	// inactive; inactivity is corrected here instead.
	s.syncActivation(ctx, actor, res, appt)

	s.emit(ctx, res, audit.Entry{
		ActorID:     actor.UserID,
		ActorRole:   actor.Role,
		Action:      audit.ActionAppointmentCreated,
		SubjectType: "appointment",
		SubjectID:   appt.ID,
		PatientID:   &appt.PatientID,
		HospitalID:  &appt.HospitalID,
		Description: fmt.Sprintf("appointment booked with %s on %s at %s", doctor.Name, appt.Date, appt.Time),
		Metadata: map[string]any{
			"new_status": string(appt.Status),
			"type":       appt.Type,
		},
	})

	if err := s.notifier.SendBookingConfirmation(ctx, notify.Confirmation{
		AppointmentID: appt.ID,
		PatientName:   pat.Name,
		PatientEmail:  pat.Email,
		DoctorName:    doctor.Name,
		Date:          appt.Date,
		Time:          appt.Time,
	}); err != nil {
		s.log.Warn().Err(err).
			Str("appointment_id", appt.ID.String()).
			Msg("booking confirmation not sent")
	}

	return res, nil
}

// UpdateStatus applies an explicit status change requested by a console.
// Terminal states (cancelled, completed) are never overwritten, and a
// request for the current status is a no-op rather than a new transition.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, to Status, noShowReason string) (*Result, error) {
	if !to.Valid() || to == StatusPending {
		return nil, fmt.Errorf("%w: unsupported status %q", ErrValidation, to)
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status == to {
		return &Result{Appointment: appt}, nil
	}
	if appt.Status.Terminal() {
		return nil, fmt.Errorf("%w: appointment is already %s", ErrInvalidTransition, appt.Status)
	}

	prev := appt.Status
	now := s.now()

	switch to {
	case StatusNotAppeared:
		if noShowReason != "" {
			appt.NoShowReason = &noShowReason
		}
	case StatusCompleted:
		s.backfillCompletionTimes(appt, now)
	}
	appt.Status = to

	updated, err := s.repo.Update(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	res := &Result{Appointment: updated}

	if to == StatusConfirmed {
		s.syncActivation(ctx, actor, res, updated)
	}

	meta := map[string]any{
		"previous_status": string(prev),
		"new_status":      string(to),
	}
	if appt.NoShowReason != nil && to == StatusNotAppeared {
		meta["no_show_reason"] = *appt.NoShowReason
	}

	s.emit(ctx, res, audit.Entry{
		ActorID:     actor.UserID,
		ActorRole:   actor.Role,
		Action:      actionForStatus(to),
		SubjectType: "appointment",
		SubjectID:   updated.ID,
		PatientID:   &updated.PatientID,
		HospitalID:  &updated.HospitalID,
		Description: fmt.Sprintf("appointment status changed from %s to %s", prev, to),
		Metadata:    meta,
	})

	return res, nil
}

// CheckIn records the patient's arrival. Checking in a pending
// appointment confirms it as a side effect.
func (s *Service) CheckIn(ctx context.Context, actor Actor, id uuid.UUID, checkInTime *time.Time) (*Result, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if appt.Status != StatusPending && appt.Status != StatusConfirmed {
		return nil, fmt.Errorf("%w: cannot check in a %s appointment", ErrInvalidTransition, appt.Status)
	}

	t := s.now()
	if checkInTime != nil {
		t = *checkInTime
	}
	appt.CheckInTime = &t

	wasPending := appt.Status == StatusPending
	if wasPending {
		appt.Status = StatusConfirmed
	}

	updated, err := s.repo.Update(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	res := &Result{Appointment: updated}

	if wasPending {
		s.syncActivation(ctx, actor, res, updated)
	}

	s.emit(ctx, res, audit.Entry{
		ActorID:     actor.UserID,
		ActorRole:   actor.Role,
		Action:      audit.ActionPatientCheckedIn,
		SubjectType: "appointment",
		SubjectID:   updated.ID,
		PatientID:   &updated.PatientID,
		HospitalID:  &updated.HospitalID,
		Description: "patient checked in",
		Metadata: map[string]any{
			"check_in_time":         t,
			"confirmed_on_check_in": wasPending,
		},
	})

	return res, nil
}

// OutcomeUpdate carries the treatment outcome payload. Empty fields keep
// their stored values.
type OutcomeUpdate struct {
	Diagnosis        string
	Disease          string
	Outcome          Outcome
	TreatmentEndDate *time.Time
}

// RecordOutcome writes the clinical conclusion of an encounter. A
// non-ongoing outcome forces the appointment to completed regardless of
// its current status, and a terminal outcome closes the patient's
// treatment via the synchronizer.
func (s *Service) RecordOutcome(ctx context.Context, actor Actor, id uuid.UUID, upd OutcomeUpdate) (*Result, error) {
	if upd.Outcome != "" && !upd.Outcome.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidOutcome, upd.Outcome)
	}

	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if err := authorizeClinicalUpdate(actor, appt); err != nil {
		return nil, err
	}

	prev := appt.Status
	now := s.now()

	if upd.Diagnosis != "" {
		appt.Diagnosis = &upd.Diagnosis
	}
	if upd.Disease != "" {
		appt.Disease = &upd.Disease
	}
	if upd.TreatmentEndDate != nil {
		appt.TreatmentEndDate = upd.TreatmentEndDate
	}
	if upd.Outcome != "" {
		appt.TreatmentOutcome = upd.Outcome
		if upd.Outcome != OutcomeOngoing {
			// A concluded clinical outcome implies the encounter is over.
			s.backfillCompletionTimes(appt, now)
			appt.Status = StatusCompleted
		}
	}

	updated, err := s.repo.Update(ctx, appt)
	if err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	res := &Result{Appointment: updated}

	switch {
	case upd.Outcome.Terminal():
		pat, err := s.patients.CloseTreatment(ctx, updated.PatientID)
		if err != nil {
			s.log.Warn().Err(err).
				Str("patient_id", updated.PatientID.String()).
				Msg("patient deactivation failed after terminal outcome")
			res.warnf("patient status sync failed: %v", err)
		} else if pat.Status == patient.StatusInactive {
			s.emitPatientStatus(ctx, actor, res, updated, pat)
		}
	case upd.Outcome == OutcomeOngoing:
		s.syncActivation(ctx, actor, res, updated)
	}

	s.emit(ctx, res, audit.Entry{
		ActorID:     actor.UserID,
		ActorRole:   actor.Role,
		Action:      audit.ActionUpdateTreatment,
		SubjectType: "appointment",
		SubjectID:   updated.ID,
		PatientID:   &updated.PatientID,
		HospitalID:  &updated.HospitalID,
		Description: fmt.Sprintf("treatment outcome recorded as %s", updated.TreatmentOutcome),
		Metadata: map[string]any{
			"outcome":         string(updated.TreatmentOutcome),
			"previous_status": string(prev),
			"new_status":      string(updated.Status),
		},
	})

	return res, nil
}

type FollowUpRequest struct {
	OriginalID uuid.UUID
	ReportID   uuid.UUID
	Date       string // optional; empty means a slot still has to be chosen
	Time       string
	Type       string
	Notes      string
}

// SpawnFollowUp is the report collaborator's entry point: creating a
// report concludes the original encounter and may schedule a linked
// follow-up. Without a concrete date/time the follow-up is created
// unscheduled, waiting for a slot.
func (s *Service) SpawnFollowUp(ctx context.Context, actor Actor, req FollowUpRequest) (*Result, error) {
	if req.OriginalID == uuid.Nil {
		return nil, fmt.Errorf("%w: original appointment id is required", ErrValidation)
	}

	orig, err := s.repo.GetByID(ctx, req.OriginalID)
	if err != nil {
		return nil, fmt.Errorf("load original appointment: %w", err)
	}

	res := &Result{}
	now := s.now()

	if orig.Status != StatusCompleted && orig.Status != StatusCancelled {
		prev := orig.Status
		s.backfillCompletionTimes(orig, now)
		orig.Status = StatusCompleted
		completed, err := s.repo.Update(ctx, orig)
		if err != nil {
			return nil, fmt.Errorf("complete original appointment: %w", err)
		}
		orig = completed

		s.emit(ctx, res, audit.Entry{
			ActorID:     actor.UserID,
			ActorRole:   actor.Role,
			Action:      audit.ActionAppointmentCompleted,
			SubjectType: "appointment",
			SubjectID:   orig.ID,
			PatientID:   &orig.PatientID,
			HospitalID:  &orig.HospitalID,
			Description: "appointment completed by report creation",
			Metadata: map[string]any{
				"previous_status": string(prev),
				"new_status":      string(StatusCompleted),
				"report_id":       req.ReportID.String(),
			},
		})
	}

	followType := req.Type
	if followType == "" {
		followType = "followup"
	}

	follow := &Appointment{
		PatientID:        orig.PatientID,
		DoctorID:         orig.DoctorID,
		HospitalID:       orig.HospitalID,
		Date:             req.Date,
		Time:             req.Time,
		Type:             followType,
		Status:           StatusPending,
		TreatmentOutcome: OutcomeOngoing,
		IsFollowUp:       true,
	}
	origID := orig.ID
	follow.OriginalAppointmentID = &origID
	if req.ReportID != uuid.Nil {
		reportID := req.ReportID
		follow.RelatedReportID = &reportID
	}
	if req.Notes != "" {
		follow.Notes = &req.Notes
	}

	scheduled := req.Date != "" && req.Time != ""
	follow.NeedsTimeSlot = !scheduled

	if scheduled {
		if _, err := time.Parse(slotLayout, req.Date+" "+req.Time); err != nil {
			return nil, fmt.Errorf("%w: date must be YYYY-MM-DD and time HH:MM", ErrValidation)
		}
		lockKey := redisclient.SlotLockKey(orig.DoctorID, req.Date, req.Time)
		err = s.locker.WithSlotLock(ctx, lockKey, func(lockCtx context.Context) error {
			existing, err := s.repo.FindActiveBySlot(lockCtx, orig.DoctorID, req.Date, req.Time)
			if err != nil && !errors.Is(err, ErrAppointmentNotFound) {
				return fmt.Errorf("check slot: %w", err)
			}
			if existing != nil {
				return ErrSlotTaken
			}
			created, err := s.repo.Create(lockCtx, follow)
			if err != nil {
				return fmt.Errorf("create follow-up: %w", err)
			}
			res.Appointment = created
			return nil
		})
		if err != nil {
			if errors.Is(err, redisclient.ErrLockNotAcquired) {
				return nil, ErrSlotBeingBooked
			}
			return nil, err
		}
	} else {
		created, err := s.repo.Create(ctx, follow)
		if err != nil {
			return nil, fmt.Errorf("create follow-up: %w", err)
		}
		res.Appointment = created
	}

	s.syncActivation(ctx, actor, res, res.Appointment)

	s.emit(ctx, res, audit.Entry{
		ActorID:     actor.UserID,
		ActorRole:   actor.Role,
		Action:      audit.ActionAppointmentCreated,
		SubjectType: "appointment",
		SubjectID:   res.Appointment.ID,
		PatientID:   &res.Appointment.PatientID,
		HospitalID:  &res.Appointment.HospitalID,
		Description: "follow-up appointment created",
		Metadata: map[string]any{
			"new_status":           string(StatusPending),
			"follow_up":            true,
			"needs_time_slot":      follow.NeedsTimeSlot,
			"original_appointment": orig.ID.String(),
		},
	})

	return res, nil
}

// SweepNoShows marks confirmed appointments whose slot time passed more
// than the grace period ago as not_appeared. The compare-and-set update
// makes a second run over the same data a no-op, so reruns never
// double-log activity. Intended to be called by the worker periodically.
func (s *Service) SweepNoShows(ctx context.Context) (int, error) {
	cutoff := s.now().Add(-s.grace)

	candidates, err := s.repo.FindOverdueConfirmed(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("find overdue confirmed appointments: %w", err)
	}

	swept := 0
	for _, appt := range candidates {
		updated, err := s.repo.UpdateStatus(ctx, appt.ID, StatusConfirmed, StatusNotAppeared)
		if err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				// Lost the race to another transition; nothing to log.
				continue
			}
			s.log.Error().Err(err).
				Str("appointment_id", appt.ID.String()).
				Msg("no-show sweep update failed")
			continue
		}
		swept++

		s.emit(ctx, nil, audit.Entry{
			ActorRole:   "system",
			Action:      audit.ActionAppointmentNotAppeared,
			SubjectType: "appointment",
			SubjectID:   updated.ID,
			PatientID:   &updated.PatientID,
			HospitalID:  &updated.HospitalID,
			Description: "appointment marked not_appeared by no-show sweep",
			Metadata: map[string]any{
				"previous_status": string(StatusConfirmed),
				"new_status":      string(StatusNotAppeared),
				"reason":          "no_show_sweep",
			},
		})
	}

	return swept, nil
}

// Get retrieves a single appointment.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

// ListByPatient retrieves appointments for a specific patient.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	list, err := s.repo.ListByPatient(ctx, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by patient: %w", err)
	}
	return list, nil
}

// ListByDoctor retrieves appointments for a specific doctor.
func (s *Service) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	limit, offset = clampPage(limit, offset)
	list, err := s.repo.ListByDoctor(ctx, doctorID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list appointments by doctor: %w", err)
	}
	return list, nil
}

// ResolveActor builds the Actor for a user id and role, resolving the
// doctor profile when the role is doctor.
func (s *Service) ResolveActor(ctx context.Context, userID uuid.UUID, role string) (Actor, error) {
	actor := Actor{UserID: userID, Role: role}
	if role != RoleDoctor {
		return actor, nil
	}

	doc, err := s.repo.GetDoctorByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrDoctorNotFound) {
			return actor, nil
		}
		return Actor{}, fmt.Errorf("resolve doctor profile: %w", err)
	}
	actor.DoctorID = doc.ID
	return actor, nil
}

// Internals

func authorizeClinicalUpdate(actor Actor, appt *Appointment) error {
	switch actor.Role {
	case RoleAdmin, RoleStaff:
		return nil
	case RoleDoctor:
		if actor.DoctorID != uuid.Nil && actor.DoctorID == appt.DoctorID {
			return nil
		}
	}
	return ErrNotAuthorized
}

// backfillCompletionTimes keeps duration metrics computable: a completed
// appointment always carries a check-in and a consultation start.
func (s *Service) backfillCompletionTimes(appt *Appointment, now time.Time) {
	if appt.ConsultationStartTime == nil {
		t := now
		appt.ConsultationStartTime = &t
	}
	if appt.CheckInTime == nil {
		appt.CheckInTime = appt.ConsultationStartTime
	}
}

// syncActivation applies the activation rule after a transition into
// pending or confirmed. A failure becomes a warning on the result; the
// appointment write is never rolled back for it.
func (s *Service) syncActivation(ctx context.Context, actor Actor, res *Result, appt *Appointment) {
	pat, flipped, err := s.patients.EnsureActive(ctx, appt.PatientID)
	if err != nil {
		s.log.Warn().Err(err).
			Str("patient_id", appt.PatientID.String()).
			Msg("patient activation failed")
		res.warnf("patient status sync failed: %v", err)
		return
	}
	if flipped {
		s.emitPatientStatus(ctx, actor, res, appt, pat)
	}
}

func (s *Service) emitPatientStatus(ctx context.Context, actor Actor, res *Result, appt *Appointment, pat *patient.Patient) {
	s.emit(ctx, res, audit.Entry{
		ActorID:     actor.UserID,
		ActorRole:   actor.Role,
		Action:      audit.ActionUpdatePatientStatus,
		SubjectType: "patient",
		SubjectID:   pat.ID,
		PatientID:   &pat.ID,
		HospitalID:  &appt.HospitalID,
		Description: fmt.Sprintf("patient status changed to %s", pat.Status),
		Metadata: map[string]any{
			"new_status":     string(pat.Status),
			"treatment_days": pat.TreatmentDays,
		},
	})
}

// emit appends one audit entry, swallowing failures. When a result is in
// flight the failure is surfaced on it as a warning.
func (s *Service) emit(ctx context.Context, res *Result, e audit.Entry) {
	if e.Severity == "" {
		e.Severity = audit.SeveritySuccess
		if res != nil && len(res.Warnings) > 0 {
			e.Severity = audit.SeverityWarning
		}
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}

	if err := s.audit.Emit(ctx, e); err != nil {
		s.log.Warn().Err(err).
			Str("action", string(e.Action)).
			Str("subject_id", e.SubjectID.String()).
			Msg("audit emission failed")
		if res != nil {
			res.warnf("audit emission failed: %v", err)
		}
	}
}

func actionForStatus(to Status) audit.Action {
	switch to {
	case StatusConfirmed:
		return audit.ActionAppointmentConfirmed
	case StatusCancelled:
		return audit.ActionAppointmentCancelled
	case StatusCompleted:
		return audit.ActionAppointmentCompleted
	case StatusNotAppeared:
		return audit.ActionAppointmentNotAppeared
	}
	return audit.ActionAppointmentUpdated
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20 // default
	}
	if limit > 100 {
		limit = 100 // max
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
