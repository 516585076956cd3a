// Package audit defines the activity record appended after every accepted
// appointment or patient transition, and the sinks it is written to.
// Emission is fire-and-forget from the caller's point of view.
package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Severity string

const (
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

type Action string

const (
	ActionAppointmentCreated     Action = "appointment_created"
	ActionAppointmentConfirmed   Action = "appointment_confirmed"
	ActionAppointmentCancelled   Action = "appointment_cancelled"
	ActionAppointmentCompleted   Action = "appointment_completed"
	ActionAppointmentUpdated     Action = "appointment_updated"
	ActionAppointmentNotAppeared Action = "appointment_not_appeared"
	ActionPatientCheckedIn       Action = "patient_checked_in"
	ActionUpdatePatientStatus    Action = "update_patient_status"
	ActionUpdateTreatment        Action = "update_treatment"
)

type Entry struct {
	ID          int64
	ActorID     uuid.UUID
	ActorRole   string
	Action      Action
	SubjectType string
	SubjectID   uuid.UUID
	PatientID   *uuid.UUID
	HospitalID  *uuid.UUID
	Description string
	Metadata    map[string]any
	Severity    Severity
	CreatedAt   time.Time
}

type Emitter interface {
	Emit(ctx context.Context, e Entry) error
}

type PgEmitter struct {
	pool *pgxpool.Pool
}

func NewPgEmitter(pool *pgxpool.Pool) *PgEmitter {
	return &PgEmitter{pool: pool}
}

func (p *PgEmitter) Emit(ctx context.Context, e Entry) error {
	var meta []byte
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return fmt.Errorf("marshal audit metadata: %w", err)
		}
		meta = b
	}

	_, err := p.pool.Exec(ctx, `
		INSERT INTO activity_log (
			actor_id, actor_role, action, subject_type, subject_id,
			patient_id, hospital_id, description, metadata, severity, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, COALESCE($11, now()))
	`,
		e.ActorID, e.ActorRole, e.Action, e.SubjectType, e.SubjectID,
		e.PatientID, e.HospitalID, e.Description, meta, e.Severity, nullableTime(e.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}

	return nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
