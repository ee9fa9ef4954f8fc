package repository

import (
	"context"
	"time"

	"afi-portal/internal/portal/domain/model"
)

// AppointmentRepository persists confirmed bookings.
type AppointmentRepository interface {
	Create(ctx context.Context, appt *model.Appointment) error
	// ListByUser returns the bookings of a user ordered by scheduled time.
	ListByUser(ctx context.Context, userEmail string) ([]*model.Appointment, error)
	// SlotTaken reports whether a doctor already has a booking at the given time.
	SlotTaken(ctx context.Context, doctorID int, scheduledAt time.Time) (bool, error)
	Ping(ctx context.Context) error
}
