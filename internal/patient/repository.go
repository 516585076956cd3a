package patient

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrPatientNotFound = errors.New("patient not found")

// Repository contains all DB interactions needed by the synchronizer.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByEmail(ctx context.Context, email string) (*Patient, error)

	Create(ctx context.Context, p *Patient) (*Patient, error)
	Update(ctx context.Context, p *Patient) (*Patient, error)

	// SetStatus writes status, last status change, and treatment days in a
	// single statement so a flip can never be observed without its timestamp.
	SetStatus(ctx context.Context, id uuid.UUID, status Status, changedAt time.Time, treatmentDays int) (*Patient, error)
}
