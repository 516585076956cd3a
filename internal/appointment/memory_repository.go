package appointment

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryRepository is an in-memory Repository for tests and local tooling,
// matching the Postgres implementation's semantics including the
// compare-and-set status update.
type MemoryRepository struct {
	mu           sync.RWMutex
	appointments map[uuid.UUID]*Appointment
	doctors      map[uuid.UUID]*Doctor
	hospitals    map[uuid.UUID]*Hospital
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		appointments: make(map[uuid.UUID]*Appointment),
		doctors:      make(map[uuid.UUID]*Doctor),
		hospitals:    make(map[uuid.UUID]*Hospital),
	}
}

// AddDoctor and AddHospital register reference data for tests.
func (m *MemoryRepository) AddDoctor(d Doctor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.doctors[d.ID] = &d
}

func (m *MemoryRepository) AddHospital(h Hospital) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hospitals[h.ID] = &h
}

func cloneAppointment(a *Appointment) *Appointment {
	cp := *a
	return &cp
}

func (m *MemoryRepository) GetDoctorByID(_ context.Context, id uuid.UUID) (*Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	d, ok := m.doctors[id]
	if !ok {
		return nil, ErrDoctorNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MemoryRepository) GetDoctorByUserID(_ context.Context, userID uuid.UUID) (*Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, d := range m.doctors {
		if d.UserID == userID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (m *MemoryRepository) GetHospitalByID(_ context.Context, id uuid.UUID) (*Hospital, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.hospitals[id]
	if !ok {
		return nil, ErrHospitalNotFound
	}
	cp := *h
	return &cp, nil
}

func (m *MemoryRepository) GetByID(_ context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	return cloneAppointment(a), nil
}

func (m *MemoryRepository) FindActiveBySlot(_ context.Context, doctorID uuid.UUID, date, timeSlot string) (*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, a := range m.appointments {
		if a.DoctorID == doctorID && a.Date == date && a.Time == timeSlot && a.Status != StatusCancelled {
			return cloneAppointment(a), nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *MemoryRepository) Create(_ context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := cloneAppointment(a)
	if cp.ID == uuid.Nil {
		cp.ID = uuid.New()
	}
	now := time.Now()
	cp.CreatedAt = now
	cp.UpdatedAt = now

	m.appointments[cp.ID] = cp
	return cloneAppointment(cp), nil
}

func (m *MemoryRepository) Update(_ context.Context, a *Appointment) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.appointments[a.ID]
	if !ok {
		return nil, ErrAppointmentNotFound
	}

	cp := cloneAppointment(a)
	cp.CreatedAt = cur.CreatedAt
	cp.UpdatedAt = time.Now()

	m.appointments[cp.ID] = cp
	return cloneAppointment(cp), nil
}

func (m *MemoryRepository) UpdateStatus(_ context.Context, id uuid.UUID, from, to Status) (*Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.appointments[id]
	if !ok || cur.Status != from {
		return nil, ErrAppointmentNotFound
	}

	cur.Status = to
	cur.UpdatedAt = time.Now()
	return cloneAppointment(cur), nil
}

func (m *MemoryRepository) FindOverdueConfirmed(_ context.Context, cutoff time.Time) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Appointment
	for _, a := range m.appointments {
		if a.Status != StatusConfirmed {
			continue
		}
		at, err := a.ScheduledAt()
		if err != nil {
			continue
		}
		if at.Before(cutoff) {
			result = append(result, *cloneAppointment(a))
		}
	}
	return result, nil
}

func (m *MemoryRepository) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Appointment
	for _, a := range m.appointments {
		if a.PatientID == patientID {
			result = append(result, *cloneAppointment(a))
		}
	}
	return page(result, limit, offset), nil
}

func (m *MemoryRepository) ListByDoctor(_ context.Context, doctorID uuid.UUID, limit, offset int) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []Appointment
	for _, a := range m.appointments {
		if a.DoctorID == doctorID {
			result = append(result, *cloneAppointment(a))
		}
	}
	return page(result, limit, offset), nil
}

func page(list []Appointment, limit, offset int) []Appointment {
	sort.Slice(list, func(i, j int) bool {
		if list[i].Date != list[j].Date {
			return list[i].Date > list[j].Date
		}
		return list[i].Time > list[j].Time
	})

	if offset >= len(list) {
		return nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
