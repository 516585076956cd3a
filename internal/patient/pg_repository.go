package patient

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

const patientColumns = `
	id, user_id, name, email, phone, date_of_birth, gender, blood_group,
	allergies, medical_history, status, last_status_change, treatment_days,
	hospital_id, primary_doctor_id, created_at, updated_at
`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient

	err := row.Scan(
		&p.ID,
		&p.UserID,
		&p.Name,
		&p.Email,
		&p.Phone,
		&p.DateOfBirth,
		&p.Gender,
		&p.BloodGroup,
		&p.Allergies,
		&p.MedicalHistory,
		&p.Status,
		&p.LastStatusChange,
		&p.TreatmentDays,
		&p.HospitalID,
		&p.PrimaryDoctorID,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}

	return &p, nil
}

func (r *PgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE id = $1
	`, id)
	return scanPatient(row)
}

func (r *PgRepository) GetByEmail(ctx context.Context, email string) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+patientColumns+`
		FROM patients
		WHERE lower(email) = lower($1)
	`, email)
	return scanPatient(row)
}

func (r *PgRepository) Create(ctx context.Context, p *Patient) (*Patient, error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}

	row := r.pool.QueryRow(ctx, `
		INSERT INTO patients (
			id, user_id, name, email, phone, date_of_birth, gender, blood_group,
			allergies, medical_history, status, last_status_change, treatment_days,
			hospital_id, primary_doctor_id, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, now(), now())
		RETURNING `+patientColumns+`
	`,
		p.ID, p.UserID, p.Name, p.Email, p.Phone, p.DateOfBirth, p.Gender, p.BloodGroup,
		p.Allergies, p.MedicalHistory, p.Status, p.LastStatusChange, p.TreatmentDays,
		p.HospitalID, p.PrimaryDoctorID,
	)

	return scanPatient(row)
}

func (r *PgRepository) Update(ctx context.Context, p *Patient) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET user_id = $2,
		    name = $3,
		    email = $4,
		    phone = $5,
		    date_of_birth = $6,
		    gender = $7,
		    blood_group = $8,
		    allergies = $9,
		    medical_history = $10,
		    hospital_id = $11,
		    primary_doctor_id = $12,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+patientColumns+`
	`,
		p.ID, p.UserID, p.Name, p.Email, p.Phone, p.DateOfBirth, p.Gender, p.BloodGroup,
		p.Allergies, p.MedicalHistory, p.HospitalID, p.PrimaryDoctorID,
	)

	return scanPatient(row)
}

func (r *PgRepository) SetStatus(ctx context.Context, id uuid.UUID, status Status, changedAt time.Time, treatmentDays int) (*Patient, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE patients
		SET status = $2,
		    last_status_change = $3,
		    treatment_days = $4,
		    updated_at = now()
		WHERE id = $1
		RETURNING `+patientColumns+`
	`, id, status, changedAt, treatmentDays)

	return scanPatient(row)
}
