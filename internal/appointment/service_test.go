package appointment

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/carewell/clinic-scheduling/internal/audit"
	"github.com/carewell/clinic-scheduling/internal/notify"
	"github.com/carewell/clinic-scheduling/internal/patient"
	redisclient "github.com/carewell/clinic-scheduling/internal/redis"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type testEnv struct {
	repo     *MemoryRepository
	patients *patient.MemoryRepository
	emitter  *audit.MemoryEmitter
	clock    *fakeClock
	svc      *Service

	doctor   Doctor
	hospital Hospital
	staff    Actor
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := &fakeClock{t: time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)}

	repo := NewMemoryRepository()
	hospital := Hospital{ID: uuid.New(), Name: "Riverside General"}
	doctor := Doctor{ID: uuid.New(), UserID: uuid.New(), Name: "Dr. Osei", HospitalID: hospital.ID}
	repo.AddHospital(hospital)
	repo.AddDoctor(doctor)

	patients := patient.NewMemoryRepository()
	patientSvc := patient.NewService(patients, zerolog.Nop(), patient.WithClock(clock.Now))

	emitter := audit.NewMemoryEmitter()

	svc := NewService(
		repo,
		patientSvc,
		emitter,
		notify.Nop{},
		redisclient.NopLocker{},
		30*time.Minute,
		zerolog.Nop(),
		WithClock(clock.Now),
	)

	return &testEnv{
		repo:     repo,
		patients: patients,
		emitter:  emitter,
		clock:    clock,
		svc:      svc,
		doctor:   doctor,
		hospital: hospital,
		staff:    Actor{UserID: uuid.New(), Role: RoleStaff},
	}
}

func (e *testEnv) bookingRequest() BookingRequest {
	return BookingRequest{
		DoctorID:     e.doctor.ID,
		HospitalID:   e.hospital.ID,
		PatientName:  "Ana Torres",
		PatientEmail: "a@x.com",
		Date:         "2024-06-01",
		Time:         "09:00",
	}
}

func (e *testEnv) mustBook(t *testing.T, req BookingRequest) *Appointment {
	t.Helper()
	res, err := e.svc.Book(context.Background(), e.staff, req)
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return res.Appointment
}

func (e *testEnv) patientByEmail(t *testing.T, email string) *patient.Patient {
	t.Helper()
	p, err := e.patients.GetByEmail(context.Background(), email)
	if err != nil {
		t.Fatalf("patient %s: %v", email, err)
	}
	return p
}

// Booking

func TestBookCreatesPendingAppointmentAndPatient(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())

	if appt.Status != StatusPending {
		t.Errorf("expected status pending, got %s", appt.Status)
	}
	if appt.TreatmentOutcome != OutcomeOngoing {
		t.Errorf("expected outcome ongoing, got %s", appt.TreatmentOutcome)
	}

	p := env.patientByEmail(t, "a@x.com")
	if p.Status != patient.StatusActive {
		t.Errorf("expected new patient active, got %s", p.Status)
	}
	if appt.PatientID != p.ID {
		t.Error("appointment not linked to created patient")
	}

	if got := len(env.emitter.ByAction(audit.ActionAppointmentCreated)); got != 1 {
		t.Errorf("expected 1 appointment_created audit entry, got %d", got)
	}
}

func TestBookWithImmediateConfirmation(t *testing.T) {
	env := newTestEnv(t)

	req := env.bookingRequest()
	req.Confirm = true

	appt := env.mustBook(t, req)
	if appt.Status != StatusConfirmed {
		t.Errorf("expected status confirmed, got %s", appt.Status)
	}
}

func TestBookRejectsOccupiedSlot(t *testing.T) {
	env := newTestEnv(t)

	env.mustBook(t, env.bookingRequest())

	req := env.bookingRequest()
	req.PatientEmail = "b@x.com"
	req.PatientName = "Ben Okafor"

	_, err := env.svc.Book(context.Background(), env.staff, req)
	if !errors.Is(err, ErrSlotTaken) {
		t.Fatalf("expected ErrSlotTaken, got %v", err)
	}
}

func TestBookCancelledSlotIsReusable(t *testing.T) {
	env := newTestEnv(t)

	first := env.mustBook(t, env.bookingRequest())
	if _, err := env.svc.UpdateStatus(context.Background(), env.staff, first.ID, StatusCancelled, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	req := env.bookingRequest()
	req.PatientEmail = "b@x.com"
	req.PatientName = "Ben Okafor"

	second := env.mustBook(t, req)
	if second.Status != StatusPending {
		t.Errorf("expected rebooked slot pending, got %s", second.Status)
	}
}

func TestBookReactivatesInactivePatient(t *testing.T) {
	env := newTestEnv(t)

	stale := env.clock.Now().Add(-72 * time.Hour)
	created, err := env.patients.Create(context.Background(), &patient.Patient{
		Name:             "Ana Torres",
		Email:            "a@x.com",
		Status:           patient.StatusInactive,
		LastStatusChange: stale,
		TreatmentDays:    5,
	})
	if err != nil {
		t.Fatalf("create patient: %v", err)
	}

	env.mustBook(t, env.bookingRequest())

	p, err := env.patients.GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("get patient: %v", err)
	}
	if p.Status != patient.StatusActive {
		t.Errorf("expected patient flipped active, got %s", p.Status)
	}
	if !p.LastStatusChange.Equal(env.clock.Now()) {
		t.Errorf("expected last status change reset to now, got %s", p.LastStatusChange)
	}
	if p.TreatmentDays != 5 {
		t.Errorf("activation must not touch treatment days, got %d", p.TreatmentDays)
	}

	if got := len(env.emitter.ByAction(audit.ActionUpdatePatientStatus)); got != 1 {
		t.Errorf("expected 1 update_patient_status audit entry, got %d", got)
	}
}

func TestBookValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		name   string
		mutate func(*BookingRequest)
	}{
		{"missing doctor", func(r *BookingRequest) { r.DoctorID = uuid.Nil }},
		{"missing hospital", func(r *BookingRequest) { r.HospitalID = uuid.Nil }},
		{"missing name", func(r *BookingRequest) { r.PatientName = "" }},
		{"missing email", func(r *BookingRequest) { r.PatientEmail = "" }},
		{"missing date", func(r *BookingRequest) { r.Date = "" }},
		{"bad date", func(r *BookingRequest) { r.Date = "01/06/2024" }},
		{"bad time", func(r *BookingRequest) { r.Time = "9am" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := env.bookingRequest()
			tc.mutate(&req)
			if _, err := env.svc.Book(context.Background(), env.staff, req); !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestBookUnknownDoctor(t *testing.T) {
	env := newTestEnv(t)

	req := env.bookingRequest()
	req.DoctorID = uuid.New()

	if _, err := env.svc.Book(context.Background(), env.staff, req); !errors.Is(err, ErrDoctorNotFound) {
		t.Errorf("expected ErrDoctorNotFound, got %v", err)
	}
}

// Status updates

func TestConfirmLeavesActivePatientTimestampAlone(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	createdAt := env.patientByEmail(t, "a@x.com").LastStatusChange

	env.clock.Advance(2 * time.Hour)

	res, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, StatusConfirmed, "")
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	if res.Appointment.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", res.Appointment.Status)
	}

	p := env.patientByEmail(t, "a@x.com")
	if p.Status != patient.StatusActive {
		t.Errorf("expected patient still active, got %s", p.Status)
	}
	if !p.LastStatusChange.Equal(createdAt) {
		t.Error("confirming must not reset last status change for an active patient")
	}
}

func TestTerminalStatesAreImmutable(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	if _, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, StatusCancelled, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, StatusConfirmed, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on cancelled appointment, got %v", err)
	}
	if _, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, StatusNotAppeared, ""); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on cancelled appointment, got %v", err)
	}
}

func TestSameStatusIsNoOp(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	if _, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, StatusConfirmed, ""); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	before := len(env.emitter.Entries())

	if _, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, StatusConfirmed, ""); err != nil {
		t.Fatalf("repeat confirm: %v", err)
	}
	if got := len(env.emitter.Entries()); got != before {
		t.Errorf("no-op update must not log activity, entries went %d -> %d", before, got)
	}
}

func TestNotAppearedStoresOptionalReason(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	res, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, StatusNotAppeared, "patient called to say the bus broke down")
	if err != nil {
		t.Fatalf("not_appeared: %v", err)
	}
	if res.Appointment.NoShowReason == nil || *res.Appointment.NoShowReason == "" {
		t.Error("expected no-show reason stored")
	}

	// The reason is optional.
	second := env.mustBook(t, BookingRequest{
		DoctorID: env.doctor.ID, HospitalID: env.hospital.ID,
		PatientName: "Ben Okafor", PatientEmail: "b@x.com",
		Date: "2024-06-02", Time: "09:00",
	})
	res, err = env.svc.UpdateStatus(context.Background(), env.staff, second.ID, StatusNotAppeared, "")
	if err != nil {
		t.Fatalf("not_appeared without reason: %v", err)
	}
	if res.Appointment.NoShowReason != nil {
		t.Error("expected no reason stored when none supplied")
	}
}

func TestCompletionBackfillsTimes(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	res, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, StatusCompleted, "")
	if err != nil {
		t.Fatalf("complete: %v", err)
	}

	got := res.Appointment
	if got.CheckInTime == nil {
		t.Error("expected check-in time backfilled")
	}
	if got.ConsultationStartTime == nil {
		t.Error("expected consultation start backfilled")
	}
	if got.CheckInTime != nil && got.ConsultationStartTime != nil && !got.CheckInTime.Equal(*got.ConsultationStartTime) {
		t.Error("backfilled check-in should come from consultation start")
	}
}

// Check-in

func TestCheckInConfirmsPendingAppointment(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())

	res, err := env.svc.CheckIn(context.Background(), env.staff, appt.ID, nil)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}

	got := res.Appointment
	if got.Status != StatusConfirmed {
		t.Errorf("expected confirmed after check-in, got %s", got.Status)
	}
	if got.CheckInTime == nil || !got.CheckInTime.Equal(env.clock.Now()) {
		t.Error("expected check-in time set to now")
	}
	if len(env.emitter.ByAction(audit.ActionPatientCheckedIn)) != 1 {
		t.Error("expected one patient_checked_in audit entry")
	}
}

func TestCheckInWithSuppliedTime(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	at := time.Date(2024, 6, 1, 8, 55, 0, 0, time.UTC)

	res, err := env.svc.CheckIn(context.Background(), env.staff, appt.ID, &at)
	if err != nil {
		t.Fatalf("check in: %v", err)
	}
	if res.Appointment.CheckInTime == nil || !res.Appointment.CheckInTime.Equal(at) {
		t.Error("expected supplied check-in time stored")
	}
}

func TestCheckInRejectsTerminalAppointment(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	if _, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, StatusCancelled, ""); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	if _, err := env.svc.CheckIn(context.Background(), env.staff, appt.ID, nil); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition, got %v", err)
	}
}

// Treatment outcome

func TestRecordOutcomeRejectsUnknownValue(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	_, err := env.svc.RecordOutcome(context.Background(), env.staff, appt.ID, OutcomeUpdate{Outcome: "cured"})
	if !errors.Is(err, ErrInvalidOutcome) {
		t.Errorf("expected ErrInvalidOutcome, got %v", err)
	}
}

func TestRecordOutcomeAuthorization(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())

	owner := Actor{UserID: env.doctor.UserID, Role: RoleDoctor, DoctorID: env.doctor.ID}
	other := Actor{UserID: uuid.New(), Role: RoleDoctor, DoctorID: uuid.New()}
	nobody := Actor{UserID: uuid.New(), Role: RolePatient}

	if _, err := env.svc.RecordOutcome(context.Background(), other, appt.ID, OutcomeUpdate{Outcome: OutcomePartial}); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized for another doctor, got %v", err)
	}
	if _, err := env.svc.RecordOutcome(context.Background(), nobody, appt.ID, OutcomeUpdate{Outcome: OutcomePartial}); !errors.Is(err, ErrNotAuthorized) {
		t.Errorf("expected ErrNotAuthorized for a patient, got %v", err)
	}
	if _, err := env.svc.RecordOutcome(context.Background(), owner, appt.ID, OutcomeUpdate{Outcome: OutcomePartial}); err != nil {
		t.Errorf("owning doctor should be allowed: %v", err)
	}
	if _, err := env.svc.RecordOutcome(context.Background(), env.staff, appt.ID, OutcomeUpdate{Outcome: OutcomePartial}); err != nil {
		t.Errorf("staff should be allowed: %v", err)
	}
}

func TestTerminalOutcomeDeactivatesAndAccrues(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	p := env.patientByEmail(t, "a@x.com")
	if p.TreatmentDays != 0 {
		t.Fatalf("expected fresh patient with 0 treatment days, got %d", p.TreatmentDays)
	}

	// Three days and change pass; accrual floors to whole days.
	env.clock.Advance(72*time.Hour + 5*time.Hour)

	res, err := env.svc.RecordOutcome(context.Background(), env.staff, appt.ID, OutcomeUpdate{
		Diagnosis: "acute sinusitis",
		Outcome:   OutcomeSuccessful,
	})
	if err != nil {
		t.Fatalf("record outcome: %v", err)
	}

	if res.Appointment.Status != StatusCompleted {
		t.Errorf("terminal outcome must force completed, got %s", res.Appointment.Status)
	}

	p = env.patientByEmail(t, "a@x.com")
	if p.Status != patient.StatusInactive {
		t.Errorf("expected patient inactive, got %s", p.Status)
	}
	if p.TreatmentDays != 3 {
		t.Errorf("expected 3 treatment days accrued, got %d", p.TreatmentDays)
	}
	if !p.LastStatusChange.Equal(env.clock.Now()) {
		t.Error("expected last status change set to deactivation time")
	}
}

func TestOutcomeForcesCompletionFromAnyStatus(t *testing.T) {
	env := newTestEnv(t)

	for i, from := range []Status{StatusPending, StatusConfirmed, StatusNotAppeared} {
		req := env.bookingRequest()
		req.Date = time.Date(2024, 6, 10+i, 0, 0, 0, 0, time.UTC).Format(dateLayout)
		appt := env.mustBook(t, req)

		if from != StatusPending {
			if _, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, from, ""); err != nil {
				t.Fatalf("move to %s: %v", from, err)
			}
		}

		res, err := env.svc.RecordOutcome(context.Background(), env.staff, appt.ID, OutcomeUpdate{Outcome: OutcomeUnsuccessful})
		if err != nil {
			t.Fatalf("record outcome from %s: %v", from, err)
		}
		if res.Appointment.Status != StatusCompleted {
			t.Errorf("outcome from %s: expected completed, got %s", from, res.Appointment.Status)
		}
	}
}

func TestPartialOutcomeLeavesPatientAlone(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	before := env.patientByEmail(t, "a@x.com")

	env.clock.Advance(48 * time.Hour)

	res, err := env.svc.RecordOutcome(context.Background(), env.staff, appt.ID, OutcomeUpdate{Outcome: OutcomePartial})
	if err != nil {
		t.Fatalf("record outcome: %v", err)
	}
	if res.Appointment.Status != StatusCompleted {
		t.Errorf("partial outcome still completes the encounter, got %s", res.Appointment.Status)
	}

	after := env.patientByEmail(t, "a@x.com")
	if after.Status != patient.StatusActive {
		t.Errorf("partial outcome must not deactivate, got %s", after.Status)
	}
	if !after.LastStatusChange.Equal(before.LastStatusChange) {
		t.Error("partial outcome must not touch last status change")
	}
	if after.TreatmentDays != before.TreatmentDays {
		t.Error("partial outcome must not touch treatment days")
	}
}

func TestOngoingOutcomeReactivates(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	if _, err := env.svc.RecordOutcome(context.Background(), env.staff, appt.ID, OutcomeUpdate{Outcome: OutcomeSuccessful}); err != nil {
		t.Fatalf("close treatment: %v", err)
	}
	if env.patientByEmail(t, "a@x.com").Status != patient.StatusInactive {
		t.Fatal("setup: patient should be inactive")
	}

	env.clock.Advance(24 * time.Hour)

	// A later appointment's outcome comes back as ongoing.
	second := env.mustBook(t, BookingRequest{
		DoctorID: env.doctor.ID, HospitalID: env.hospital.ID,
		PatientName: "Ana Torres", PatientEmail: "a@x.com",
		Date: "2024-06-09", Time: "09:00",
	})
	// Booking itself reactivated the patient; close again, then record ongoing.
	if _, err := env.svc.RecordOutcome(context.Background(), env.staff, second.ID, OutcomeUpdate{Outcome: OutcomeUnsuccessful}); err != nil {
		t.Fatalf("close treatment: %v", err)
	}

	third := env.mustBook(t, BookingRequest{
		DoctorID: env.doctor.ID, HospitalID: env.hospital.ID,
		PatientName: "Ana Torres", PatientEmail: "a@x.com",
		Date: "2024-06-10", Time: "09:00",
	})
	// Force the patient inactive again so the ongoing rule is what flips it.
	if _, err := env.svc.RecordOutcome(context.Background(), env.staff, third.ID, OutcomeUpdate{Outcome: OutcomeSuccessful}); err != nil {
		t.Fatalf("close treatment: %v", err)
	}

	res, err := env.svc.RecordOutcome(context.Background(), env.staff, third.ID, OutcomeUpdate{Outcome: OutcomeOngoing})
	if err != nil {
		t.Fatalf("record ongoing: %v", err)
	}
	if res.Appointment.TreatmentOutcome != OutcomeOngoing {
		t.Errorf("expected outcome ongoing, got %s", res.Appointment.TreatmentOutcome)
	}

	p := env.patientByEmail(t, "a@x.com")
	if p.Status != patient.StatusActive {
		t.Errorf("ongoing outcome must reactivate an inactive patient, got %s", p.Status)
	}
}

func TestOutcomePartialUpdateKeepsStoredFields(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	if _, err := env.svc.RecordOutcome(context.Background(), env.staff, appt.ID, OutcomeUpdate{
		Diagnosis: "acute sinusitis",
		Disease:   "sinusitis",
	}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	res, err := env.svc.RecordOutcome(context.Background(), env.staff, appt.ID, OutcomeUpdate{Outcome: OutcomePartial})
	if err != nil {
		t.Fatalf("second update: %v", err)
	}

	got := res.Appointment
	if got.Diagnosis == nil || *got.Diagnosis != "acute sinusitis" {
		t.Error("omitted diagnosis must keep its stored value")
	}
	if got.Disease == nil || *got.Disease != "sinusitis" {
		t.Error("omitted disease must keep its stored value")
	}
}

// No-show sweep

func TestSweepMarksOverdueConfirmed(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest()) // 2024-06-01 09:00
	if _, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, StatusConfirmed, ""); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	// 08:00 + 2h = 10:00, 31 minutes past the 09:00 slot.
	env.clock.Advance(2 * time.Hour)

	swept, err := env.svc.SweepNoShows(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 1 {
		t.Fatalf("expected 1 swept, got %d", swept)
	}

	got, err := env.svc.Get(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusNotAppeared {
		t.Errorf("expected not_appeared, got %s", got.Status)
	}
	if len(env.emitter.ByAction(audit.ActionAppointmentNotAppeared)) != 1 {
		t.Error("expected exactly one not_appeared audit entry")
	}
}

func TestSweepIsIdempotent(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	if _, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, StatusConfirmed, ""); err != nil {
		t.Fatalf("confirm: %v", err)
	}
	env.clock.Advance(2 * time.Hour)

	if _, err := env.svc.SweepNoShows(context.Background()); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	swept, err := env.svc.SweepNoShows(context.Background())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if swept != 0 {
		t.Errorf("second sweep must be a no-op, swept %d", swept)
	}
	if got := len(env.emitter.ByAction(audit.ActionAppointmentNotAppeared)); got != 1 {
		t.Errorf("expected exactly one not_appeared audit entry after two sweeps, got %d", got)
	}
}

func TestSweepSkipsRecentAndNonConfirmed(t *testing.T) {
	env := newTestEnv(t)

	// Pending appointment well in the past: not swept, the sweep only
	// watches confirmed ones.
	env.mustBook(t, env.bookingRequest())

	// Confirmed appointment still inside the grace window.
	second := env.mustBook(t, BookingRequest{
		DoctorID: env.doctor.ID, HospitalID: env.hospital.ID,
		PatientName: "Ben Okafor", PatientEmail: "b@x.com",
		Date: "2024-06-01", Time: "09:45",
	})
	if _, err := env.svc.UpdateStatus(context.Background(), env.staff, second.ID, StatusConfirmed, ""); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	env.clock.Advance(2 * time.Hour) // now 10:00

	swept, err := env.svc.SweepNoShows(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if swept != 0 {
		t.Errorf("expected nothing swept, got %d", swept)
	}
}

// Side-effect isolation

func TestPatientSyncFailureIsAWarningNotAFailure(t *testing.T) {
	env := newTestEnv(t)

	// An appointment whose patient record is gone.
	orphan, err := env.repo.Create(context.Background(), &Appointment{
		PatientID:        uuid.New(),
		DoctorID:         env.doctor.ID,
		HospitalID:       env.hospital.ID,
		Date:             "2024-06-01",
		Time:             "11:00",
		Type:             "consultation",
		Status:           StatusPending,
		TreatmentOutcome: OutcomeOngoing,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	res, err := env.svc.UpdateStatus(context.Background(), env.staff, orphan.ID, StatusConfirmed, "")
	if err != nil {
		t.Fatalf("expected primary update to succeed, got %v", err)
	}
	if res.Appointment.Status != StatusConfirmed {
		t.Errorf("appointment mutation must stand, got %s", res.Appointment.Status)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a patient-sync warning")
	}

	got, err := env.svc.Get(context.Background(), orphan.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusConfirmed {
		t.Error("appointment status must not be rolled back")
	}
}

func TestDeactivationFailureIsAWarning(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())

	env.patients.FailNext = errors.New("connection reset")

	res, err := env.svc.RecordOutcome(context.Background(), env.staff, appt.ID, OutcomeUpdate{Outcome: OutcomeSuccessful})
	if err != nil {
		t.Fatalf("expected outcome write to succeed, got %v", err)
	}
	if res.Appointment.Status != StatusCompleted {
		t.Errorf("expected completed, got %s", res.Appointment.Status)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected a deactivation warning")
	}
	if env.patientByEmail(t, "a@x.com").Status != patient.StatusActive {
		t.Error("failed deactivation must leave the patient active")
	}
}

func TestAuditFailureDoesNotFailOperation(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())

	env.emitter.FailAll = errors.New("sink unavailable")

	res, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, StatusConfirmed, "")
	if err != nil {
		t.Fatalf("expected update to succeed despite audit failure, got %v", err)
	}
	if res.Appointment.Status != StatusConfirmed {
		t.Errorf("expected confirmed, got %s", res.Appointment.Status)
	}
	if len(res.Warnings) == 0 {
		t.Error("expected an audit warning on the result")
	}
}

// Follow-up spawning

func TestSpawnFollowUpCompletesOriginalAndLinks(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())
	if _, err := env.svc.UpdateStatus(context.Background(), env.staff, appt.ID, StatusConfirmed, ""); err != nil {
		t.Fatalf("confirm: %v", err)
	}

	reportID := uuid.New()
	res, err := env.svc.SpawnFollowUp(context.Background(), env.staff, FollowUpRequest{
		OriginalID: appt.ID,
		ReportID:   reportID,
	})
	if err != nil {
		t.Fatalf("spawn follow-up: %v", err)
	}

	follow := res.Appointment
	if !follow.IsFollowUp {
		t.Error("expected follow-up flag set")
	}
	if !follow.NeedsTimeSlot {
		t.Error("expected needs_time_slot when no slot supplied")
	}
	if follow.OriginalAppointmentID == nil || *follow.OriginalAppointmentID != appt.ID {
		t.Error("expected back-reference to the original appointment")
	}
	if follow.RelatedReportID == nil || *follow.RelatedReportID != reportID {
		t.Error("expected link to the spawning report")
	}
	if follow.Status != StatusPending {
		t.Errorf("expected follow-up pending, got %s", follow.Status)
	}

	orig, err := env.svc.Get(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}
	if orig.Status != StatusCompleted {
		t.Errorf("report creation must complete the original, got %s", orig.Status)
	}
}

func TestSpawnFollowUpWithSlotGuardsDoubleBooking(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.bookingRequest())

	// Occupy the follow-up's target slot first.
	env.mustBook(t, BookingRequest{
		DoctorID: env.doctor.ID, HospitalID: env.hospital.ID,
		PatientName: "Ben Okafor", PatientEmail: "b@x.com",
		Date: "2024-06-08", Time: "09:00",
	})

	_, err := env.svc.SpawnFollowUp(context.Background(), env.staff, FollowUpRequest{
		OriginalID: appt.ID,
		Date:       "2024-06-08",
		Time:       "09:00",
	})
	if !errors.Is(err, ErrSlotTaken) {
		t.Errorf("expected ErrSlotTaken, got %v", err)
	}
}
