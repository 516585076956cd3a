package patient

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository used by tests and local
// tooling. It mirrors the Postgres implementation's semantics, including
// the single-write status flip.
type MemoryRepository struct {
	mu       sync.RWMutex
	byID     map[uuid.UUID]*Patient
	byEmail  map[string]uuid.UUID
	FailNext error // when set, the next write returns this error once
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID:    make(map[uuid.UUID]*Patient),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (m *MemoryRepository) takeFailure() error {
	err := m.FailNext
	m.FailNext = nil
	return err
}

func clone(p *Patient) *Patient {
	cp := *p
	cp.Allergies = append([]string(nil), p.Allergies...)
	cp.MedicalHistory = append([]string(nil), p.MedicalHistory...)
	return &cp
}

func (m *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.byID[id]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return clone(p), nil
}

func (m *MemoryRepository) GetByEmail(_ context.Context, email string) (*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	id, ok := m.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, ErrPatientNotFound
	}
	return clone(m.byID[id]), nil
}

func (m *MemoryRepository) Create(_ context.Context, p *Patient) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	cp := clone(p)
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now

	m.byID[cp.ID] = cp
	m.byEmail[strings.ToLower(cp.Email)] = cp.ID

	return clone(cp), nil
}

func (m *MemoryRepository) Update(_ context.Context, p *Patient) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	cur, ok := m.byID[p.ID]
	if !ok {
		return nil, ErrPatientNotFound
	}

	cp := clone(p)
	cp.Status = cur.Status
	cp.LastStatusChange = cur.LastStatusChange
	cp.TreatmentDays = cur.TreatmentDays
	cp.CreatedAt = cur.CreatedAt
	cp.UpdatedAt = time.Now()

	m.byID[cp.ID] = cp
	m.byEmail[strings.ToLower(cp.Email)] = cp.ID

	return clone(cp), nil
}

func (m *MemoryRepository) SetStatus(_ context.Context, id uuid.UUID, status Status, changedAt time.Time, treatmentDays int) (*Patient, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.takeFailure(); err != nil {
		return nil, err
	}

	cur, ok := m.byID[id]
	if !ok {
		return nil, ErrPatientNotFound
	}

	cur.Status = status
	cur.LastStatusChange = changedAt
	cur.TreatmentDays = treatmentDays
	cur.UpdatedAt = time.Now()

	return clone(cur), nil
}
