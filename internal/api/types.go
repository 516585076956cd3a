package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/carewell/clinic-scheduling/internal/appointment"
)

type BookAppointmentRequest struct {
	DoctorID   string `json:"doctor_id"`
	HospitalID string `json:"hospital_id"`

	PatientName   string `json:"patient_name"`
	PatientEmail  string `json:"patient_email"`
	PatientPhone  string `json:"patient_phone,omitempty"`
	PatientGender string `json:"patient_gender,omitempty"`

	Date string `json:"date"`
	Time string `json:"time"`
	Type string `json:"type,omitempty"`

	Notes    string `json:"notes,omitempty"`
	Symptoms string `json:"symptoms,omitempty"`

	Confirm bool `json:"confirm,omitempty"`
}

type UpdateStatusRequest struct {
	Status       string `json:"status"`
	NoShowReason string `json:"no_show_reason,omitempty"`
}

type CheckInRequest struct {
	CheckInTime *time.Time `json:"check_in_time,omitempty"`
}

type RecordOutcomeRequest struct {
	Diagnosis        string     `json:"diagnosis,omitempty"`
	Disease          string     `json:"disease,omitempty"`
	TreatmentOutcome string     `json:"treatment_outcome,omitempty"`
	TreatmentEndDate *time.Time `json:"treatment_end_date,omitempty"`
}

type FollowUpRequest struct {
	ReportID string `json:"report_id,omitempty"`
	Date     string `json:"date,omitempty"`
	Time     string `json:"time,omitempty"`
	Type     string `json:"type,omitempty"`
	Notes    string `json:"notes,omitempty"`
}

type AppointmentResponse struct {
	ID         uuid.UUID `json:"id"`
	PatientID  uuid.UUID `json:"patient_id"`
	DoctorID   uuid.UUID `json:"doctor_id"`
	HospitalID uuid.UUID `json:"hospital_id"`

	Date   string `json:"date"`
	Time   string `json:"time"`
	Type   string `json:"type"`
	Status string `json:"status"`

	Symptoms         *string    `json:"symptoms,omitempty"`
	Notes            *string    `json:"notes,omitempty"`
	Diagnosis        *string    `json:"diagnosis,omitempty"`
	Disease          *string    `json:"disease,omitempty"`
	TreatmentOutcome string     `json:"treatment_outcome"`
	TreatmentEndDate *time.Time `json:"treatment_end_date,omitempty"`

	NoShowReason          *string    `json:"no_show_reason,omitempty"`
	CheckInTime           *time.Time `json:"check_in_time,omitempty"`
	ConsultationStartTime *time.Time `json:"consultation_start_time,omitempty"`

	IsFollowUp            bool       `json:"is_follow_up"`
	NeedsTimeSlot         bool       `json:"needs_time_slot"`
	OriginalAppointmentID *uuid.UUID `json:"original_appointment_id,omitempty"`
	RelatedReportID       *uuid.UUID `json:"related_report_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResultResponse wraps a successful mutation: the appointment plus any
// side-effect warnings that degraded without failing the operation.
type ResultResponse struct {
	Appointment AppointmentResponse `json:"appointment"`
	Warnings    []string            `json:"warnings,omitempty"`
}

type SweepResponse struct {
	Swept int `json:"swept"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func toAppointmentResponse(a *appointment.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:                    a.ID,
		PatientID:             a.PatientID,
		DoctorID:              a.DoctorID,
		HospitalID:            a.HospitalID,
		Date:                  a.Date,
		Time:                  a.Time,
		Type:                  a.Type,
		Status:                string(a.Status),
		Symptoms:              a.Symptoms,
		Notes:                 a.Notes,
		Diagnosis:             a.Diagnosis,
		Disease:               a.Disease,
		TreatmentOutcome:      string(a.TreatmentOutcome),
		TreatmentEndDate:      a.TreatmentEndDate,
		NoShowReason:          a.NoShowReason,
		CheckInTime:           a.CheckInTime,
		ConsultationStartTime: a.ConsultationStartTime,
		IsFollowUp:            a.IsFollowUp,
		NeedsTimeSlot:         a.NeedsTimeSlot,
		OriginalAppointmentID: a.OriginalAppointmentID,
		RelatedReportID:       a.RelatedReportID,
		CreatedAt:             a.CreatedAt,
		UpdatedAt:             a.UpdatedAt,
	}
}

func toResultResponse(res *appointment.Result) ResultResponse {
	return ResultResponse{
		Appointment: toAppointmentResponse(res.Appointment),
		Warnings:    res.Warnings,
	}
}
