package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/domain/repository"
	"afi-portal/internal/shared/errors"
)

// AppointmentRepository keeps confirmed bookings in process memory.
type AppointmentRepository struct {
	mu    sync.RWMutex
	items []*model.Appointment
}

var _ repository.AppointmentRepository = (*AppointmentRepository)(nil)

func NewAppointmentRepository() *AppointmentRepository {
	return &AppointmentRepository{}
}

func (r *AppointmentRepository) Create(_ context.Context, appt *model.Appointment) error {
	if appt == nil {
		return errors.NewValidationError("appointment cannot be nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.items {
		if a.DoctorID == appt.DoctorID && a.ScheduledAt.Equal(appt.ScheduledAt) {
			return errors.NewConflictError("This time slot is no longer available")
		}
	}
	c := *appt
	r.items = append(r.items, &c)
	return nil
}

func (r *AppointmentRepository) ListByUser(_ context.Context, userEmail string) ([]*model.Appointment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*model.Appointment, 0)
	for _, a := range r.items {
		if a.UserEmail == userEmail {
			c := *a
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ScheduledAt.Before(out[j].ScheduledAt) })
	return out, nil
}

func (r *AppointmentRepository) SlotTaken(_ context.Context, doctorID int, scheduledAt time.Time) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.items {
		if a.DoctorID == doctorID && a.ScheduledAt.Equal(scheduledAt) {
			return true, nil
		}
	}
	return false, nil
}

func (r *AppointmentRepository) Ping(context.Context) error { return nil }
