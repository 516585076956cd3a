package appointment

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

const appointmentColumns = `
	id, patient_id, doctor_id, hospital_id, date, time, type, status,
	symptoms, notes, diagnosis, disease, treatment_outcome, treatment_end_date,
	no_show_reason, check_in_time, consultation_start_time,
	is_follow_up, needs_time_slot, time_slot_confirmed, reminder_sent,
	original_appointment_id, related_report_id, created_at, updated_at
`

// Helpers

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.DoctorID,
		&a.HospitalID,
		&a.Date,
		&a.Time,
		&a.Type,
		&a.Status,
		&a.Symptoms,
		&a.Notes,
		&a.Diagnosis,
		&a.Disease,
		&a.TreatmentOutcome,
		&a.TreatmentEndDate,
		&a.NoShowReason,
		&a.CheckInTime,
		&a.ConsultationStartTime,
		&a.IsFollowUp,
		&a.NeedsTimeSlot,
		&a.TimeSlotConfirmed,
		&a.ReminderSent,
		&a.OriginalAppointmentID,
		&a.RelatedReportID,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	return &a, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor

	err := row.Scan(
		&d.ID,
		&d.UserID,
		&d.Name,
		&d.Specialty,
		&d.HospitalID,
		&d.CreatedAt,
		&d.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}

	return &d, nil
}

// Interface methods

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, specialty, hospital_id, created_at, updated_at
		FROM doctors
		WHERE id = $1
	`, id)
	return scanDoctor(row)
}

func (r *PgRepository) GetDoctorByUserID(ctx context.Context, userID uuid.UUID) (*Doctor, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, user_id, name, specialty, hospital_id, created_at, updated_at
		FROM doctors
		WHERE user_id = $1
	`, userID)
	return scanDoctor(row)
}

func (r *PgRepository) GetHospitalByID(ctx context.Context, id uuid.UUID) (*Hospital, error) {
	var h Hospital
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, created_at, updated_at
		FROM hospitals
		WHERE id = $1
	`, id).Scan(&h.ID, &h.Name, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrHospitalNotFound
		}
		return nil, err
	}
	return &h, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (r *PgRepository) FindActiveBySlot(ctx context.Context, doctorID uuid.UUID, date, timeSlot string) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1 AND date = $2 AND time = $3 AND status <> 'cancelled'
		LIMIT 1
	`, doctorID, date, timeSlot)
	return scanAppointment(row)
}

func (r *PgRepository) Create(ctx context.Context, a *Appointment) (*Appointment, error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (
			id, patient_id, doctor_id, hospital_id, date, time, type, status,
			symptoms, notes, diagnosis, disease, treatment_outcome, treatment_end_date,
			no_show_reason, check_in_time, consultation_start_time,
			is_follow_up, needs_time_slot, time_slot_confirmed, reminder_sent,
			original_appointment_id, related_report_id, created_at, updated_at
		)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20, $21,
			$22, $23, now(), now()
		)
		RETURNING `+appointmentColumns+`
	`,
		a.ID, a.PatientID, a.DoctorID, a.HospitalID, a.Date, a.Time, a.Type, a.Status,
		a.Symptoms, a.Notes, a.Diagnosis, a.Disease, a.TreatmentOutcome, a.TreatmentEndDate,
		a.NoShowReason, a.CheckInTime, a.ConsultationStartTime,
		a.IsFollowUp, a.NeedsTimeSlot, a.TimeSlotConfirmed, a.ReminderSent,
		a.OriginalAppointmentID, a.RelatedReportID,
	)

	return scanAppointment(row)
}

func (r *PgRepository) Update(ctx context.Context, a *Appointment) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    symptoms = $3,
		    notes = $4,
		    diagnosis = $5,
		    disease = $6,
		    treatment_outcome = $7,
		    treatment_end_date = $8,
		    no_show_reason = $9,
		    check_in_time = $10,
		    consultation_start_time = $11,
		    needs_time_slot = $12,
		    time_slot_confirmed = $13,
		    reminder_sent = $14,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+appointmentColumns+`
	`,
		a.ID, a.Status, a.Symptoms, a.Notes, a.Diagnosis, a.Disease,
		a.TreatmentOutcome, a.TreatmentEndDate, a.NoShowReason,
		a.CheckInTime, a.ConsultationStartTime,
		a.NeedsTimeSlot, a.TimeSlotConfirmed, a.ReminderSent,
	)

	return scanAppointment(row)
}

func (r *PgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+appointmentColumns+`
	`, id, to, from)

	return scanAppointment(row)
}

func (r *PgRepository) FindOverdueConfirmed(ctx context.Context, cutoff time.Time) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE status = 'confirmed'
		  AND to_timestamp(date || ' ' || time, 'YYYY-MM-DD HH24:MI') < $1
	`, cutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE patient_id = $1
		ORDER BY date DESC, time DESC
		LIMIT $2 OFFSET $3
	`, patientID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func (r *PgRepository) ListByDoctor(ctx context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE doctor_id = $1
		ORDER BY date DESC, time DESC
		LIMIT $2 OFFSET $3
	`, doctorID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
