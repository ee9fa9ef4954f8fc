package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/domain/repository"
	sharedErrors "afi-portal/internal/shared/errors"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var phoneRegex = regexp.MustCompile(`^\+?[0-9][0-9 ()-]{5,}[0-9]$`)

// BookingForm carries the fields submitted on one wizard step. Empty fields
// keep the draft value.
type BookingForm struct {
	DoctorID int
	Date     string
	Time     string
	Reason   string
	Name     string
	Phone    string
	Email    string
}

// BookingUsecaseInterface drives the appointment booking wizard.
type BookingUsecaseInterface interface {
	Draft(ctx context.Context, caller model.Caller) model.BookingDraft
	// Next stores the form, validates the current step and advances. On a
	// validation failure the form is kept and the step does not change.
	Next(ctx context.Context, caller model.Caller, form BookingForm) (model.BookingDraft, error)
	Back(ctx context.Context, caller model.Caller) (model.BookingDraft, error)
	Confirm(ctx context.Context, caller model.Caller) (*model.Appointment, error)
	Reset(ctx context.Context, caller model.Caller) error
	Appointments(ctx context.Context, caller model.Caller) []*model.Appointment
	Upcoming(ctx context.Context, caller model.Caller) []*model.Appointment
}

// BookingUsecase implements BookingUsecaseInterface.
type BookingUsecase struct {
	repo     repository.AppointmentRepository
	records  *RecordStore
	metrics  *metrics.Metrics
	logger   logger.Logger
	location *time.Location
	now      func() time.Time
}

var _ BookingUsecaseInterface = (*BookingUsecase)(nil)

func NewBookingUsecase(repo repository.AppointmentRepository, records *RecordStore, m *metrics.Metrics, log logger.Logger) *BookingUsecase {
	if m == nil {
		m = metrics.NewNop()
	}
	return &BookingUsecase{
		repo:     repo,
		records:  records,
		metrics:  m,
		logger:   log.WithComponent("booking_usecase"),
		location: time.Local,
		now:      time.Now,
	}
}

// Draft returns the wizard state, prefilled from the session profile when new.
func (u *BookingUsecase) Draft(ctx context.Context, caller model.Caller) model.BookingDraft {
	var draft model.BookingDraft
	if err := u.records.Get(ctx, caller.ClientID, model.BookingDraftItemKey, &draft); err == nil {
		return draft
	}
	if caller.Session != nil {
		draft.Patient.Name = caller.Session.FullName
		draft.Patient.Email = caller.Session.Email
	}
	return draft
}

func (u *BookingUsecase) save(ctx context.Context, caller model.Caller, draft model.BookingDraft) error {
	if err := u.records.Put(ctx, caller.ClientID, model.BookingDraftItemKey, draft); err != nil {
		return sharedErrors.NewInfrastructureError("Could not save booking progress").WithCause(err)
	}
	return nil
}

func (u *BookingUsecase) Next(ctx context.Context, caller model.Caller, form BookingForm) (model.BookingDraft, error) {
	draft := u.Draft(ctx, caller)
	apply(&draft, form)

	verr := u.validateStep(draft, draft.Step)
	if verr == nil && draft.Step < model.StepConfirmation {
		draft.Step++
	}
	if err := u.save(ctx, caller, draft); err != nil {
		return draft, err
	}
	if verr != nil {
		return draft, verr
	}
	return draft, nil
}

func apply(draft *model.BookingDraft, form BookingForm) {
	if form.DoctorID != 0 {
		draft.DoctorID = form.DoctorID
	}
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&draft.Date, form.Date)
	set(&draft.Time, form.Time)
	set(&draft.Reason, form.Reason)
	set(&draft.Patient.Name, form.Name)
	set(&draft.Patient.Phone, form.Phone)
	set(&draft.Patient.Email, form.Email)
}

func (u *BookingUsecase) Back(ctx context.Context, caller model.Caller) (model.BookingDraft, error) {
	draft := u.Draft(ctx, caller)
	if draft.Step > model.StepSelectDoctor {
		draft.Step--
	}
	return draft, u.save(ctx, caller, draft)
}

func (u *BookingUsecase) Reset(ctx context.Context, caller model.Caller) error {
	return u.records.Delete(ctx, caller.ClientID, model.BookingDraftItemKey)
}

// validateStep checks the fields owned by step.
func (u *BookingUsecase) validateStep(draft model.BookingDraft, step int) error {
	ve := sharedErrors.NewValidationErrors()
	switch step {
	case model.StepSelectDoctor:
		d, ok := model.FindDoctor(draft.DoctorID)
		switch {
		case !ok:
			ve.Add("doctor_id", "Please select a doctor", draft.DoctorID)
		case !d.Available:
			ve.Add("doctor_id", d.Name+" is not available for booking", draft.DoctorID)
		}
	case model.StepChooseSlot:
		if _, err := u.scheduledAt(draft); err != nil {
			ve.Add("slot", err.Error(), draft.Date+" "+draft.Time)
		}
	case model.StepPatientDetails:
		if draft.Patient.Name == "" {
			ve.Add("name", "Full name is required", "")
		}
		if !phoneRegex.MatchString(draft.Patient.Phone) {
			ve.Add("phone", "A valid phone number is required", draft.Patient.Phone)
		}
		if !emailRegex.MatchString(draft.Patient.Email) {
			ve.Add("email", "A valid email address is required", draft.Patient.Email)
		}
	}
	if ve.HasErrors() {
		return ve.ToAppError().WithDetail("step", step)
	}
	return nil
}

var (
	errSlotMissing = errors.New("Please choose a date and time")
	errSlotInvalid = errors.New("Please choose one of the offered time slots")
	errSlotPast    = errors.New("Please choose a time in the future")
)

func (u *BookingUsecase) scheduledAt(draft model.BookingDraft) (time.Time, error) {
	if draft.Date == "" || draft.Time == "" {
		return time.Time{}, errSlotMissing
	}
	offered := false
	for _, slot := range model.TimeSlots {
		if slot == draft.Time {
			offered = true
			break
		}
	}
	if !offered {
		return time.Time{}, errSlotInvalid
	}
	at, err := time.ParseInLocation("2006-01-02 15:04", draft.Date+" "+draft.Time, u.location)
	if err != nil {
		return time.Time{}, errSlotMissing
	}
	if !at.After(u.now()) {
		return time.Time{}, errSlotPast
	}
	return at.UTC(), nil
}

// Confirm books the drafted appointment and resets the wizard.
func (u *BookingUsecase) Confirm(ctx context.Context, caller model.Caller) (*model.Appointment, error) {
	draft := u.Draft(ctx, caller)
	if draft.Step != model.StepConfirmation {
		return nil, sharedErrors.NewValidationError("Please complete every step before confirming").WithDetail("step", draft.Step)
	}
	for step := model.StepSelectDoctor; step < model.StepConfirmation; step++ {
		if err := u.validateStep(draft, step); err != nil {
			return nil, err
		}
	}

	doctor, _ := model.FindDoctor(draft.DoctorID)
	at, _ := u.scheduledAt(draft)

	taken, err := u.repo.SlotTaken(ctx, doctor.ID, at)
	if err != nil {
		return nil, sharedErrors.WrapError(err, "failed to check availability")
	}
	if taken {
		return nil, sharedErrors.NewConflictError("This time slot is no longer available")
	}

	appt := &model.Appointment{
		ID:          uuid.NewString(),
		ClientID:    caller.ClientID,
		UserEmail:   ownerEmail(caller, draft),
		DoctorID:    doctor.ID,
		DoctorName:  doctor.Name,
		Specialty:   doctor.Specialty,
		Fee:         doctor.ConsultationFee,
		ScheduledAt: at,
		Reason:      draft.Reason,
		Patient:     draft.Patient,
		CreatedAt:   u.now().UTC(),
	}
	if err := u.repo.Create(ctx, appt); err != nil {
		return nil, sharedErrors.WrapError(err, "failed to book appointment")
	}

	u.metrics.BookingsCreated.Inc()
	if err := u.Reset(ctx, caller); err != nil {
		u.logger.WithContext(ctx).Warn("Failed to reset booking draft", zap.Error(err))
	}
	u.logger.WithContext(ctx).Info("Appointment booked",
		zap.String("appointment_id", appt.ID),
		zap.Int("doctor_id", appt.DoctorID),
		zap.Time("scheduled_at", appt.ScheduledAt))
	return appt, nil
}

// ownerEmail ties bookings to the signed-in user so they follow the account.
func ownerEmail(caller model.Caller, draft model.BookingDraft) string {
	if s := caller.Session; s != nil {
		if s.Email != "" {
			return s.Email
		}
		if s.Subject != "" {
			return s.Subject
		}
	}
	return draft.Patient.Email
}

func (u *BookingUsecase) Appointments(ctx context.Context, caller model.Caller) []*model.Appointment {
	email := ownerEmail(caller, model.BookingDraft{})
	if email == "" {
		return []*model.Appointment{}
	}
	list, err := u.repo.ListByUser(ctx, email)
	if err != nil {
		u.logger.WithContext(ctx).Warn("Appointments unavailable, showing none", zap.Error(err))
		return []*model.Appointment{}
	}
	return list
}

func (u *BookingUsecase) Upcoming(ctx context.Context, caller model.Caller) []*model.Appointment {
	now := u.now()
	out := make([]*model.Appointment, 0)
	for _, a := range u.Appointments(ctx, caller) {
		if a.ScheduledAt.After(now) {
			out = append(out, a)
		}
	}
	return out
}
