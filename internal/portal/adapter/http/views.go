package http

import (
	"strings"
	"time"

	"afi-portal/internal/portal/domain/model"

	"github.com/gofiber/fiber/v2"
)

const recentLimit = 5

// PendingUploadView describes a stashed image without its bytes.
type PendingUploadView struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Size        int       `json:"size"`
	SelectedAt  time.Time `json:"selected_at"`
}

// WizardView is the booking wizard page.
type WizardView struct {
	Steps        []string             `json:"steps"`
	Step         int                  `json:"step"`
	Draft        model.BookingDraft   `json:"draft"`
	Doctors      []model.Doctor       `json:"doctors"`
	TimeSlots    []string             `json:"time_slots"`
	Appointments []*model.Appointment `json:"appointments"`
	Error        string               `json:"error,omitempty"`
}

func recent(history []model.PredictionRecord) []model.PredictionRecord {
	if len(history) > recentLimit {
		return history[:recentLimit]
	}
	return history
}

func (h *PortalHandler) signedIn(c *fiber.Ctx) bool {
	_, ok := h.gateway.CurrentUser(c.UserContext(), clientIDOf(c))
	return ok
}

func (h *PortalHandler) landingView(c *fiber.Ctx, _ model.Caller) (interface{}, error) {
	return fiber.Map{
		"title":     "AFI Classification Portal",
		"features":  landingFeatures,
		"signed_in": h.signedIn(c),
	}, nil
}

func (h *PortalHandler) authView(mode string) viewFunc {
	return func(c *fiber.Ctx, _ model.Caller) (interface{}, error) {
		return authPage(mode, h.signedIn(c), "", nil), nil
	}
}

// authPage renders the login or register form. values holds the submitted
// fields to show again after a failed attempt and never carries the password.
func authPage(mode string, signedIn bool, errMsg string, values fiber.Map) fiber.Map {
	view := fiber.Map{
		"mode":      mode,
		"roles":     []model.Role{model.RolePatient, model.RoleDoctor},
		"signed_in": signedIn,
	}
	if errMsg != "" {
		view["error"] = errMsg
	}
	if values != nil {
		view["form"] = values
	}
	return view
}

// dashboardView mounts the doctor dashboard only for a resolved doctor.
func (h *PortalHandler) dashboardView(c *fiber.Ctx, caller model.Caller) (interface{}, error) {
	ctx := c.UserContext()
	res := h.resolver.Resolve(ctx, caller.ClientID)

	history := h.clinical.History(ctx, caller)
	if res.Dashboard().IsDoctor() {
		return fiber.Map{
			"variant":       model.RoleDoctor,
			"resolution":    res,
			"analytics":     h.clinical.Analytics(ctx, caller),
			"recent":        recent(history),
			"patient_count": len(h.clinical.PatientRecords(ctx, caller)),
		}, nil
	}

	view := fiber.Map{
		"variant":    model.RolePatient,
		"resolution": res,
		"upcoming":   h.booking.Upcoming(ctx, caller),
		"recent":     recent(history),
	}
	if p, ok := h.clinical.PendingUpload(ctx, caller); ok {
		view["pending_upload"] = PendingUploadView{
			Filename:    p.Filename,
			ContentType: p.ContentType,
			Size:        len(p.Content),
			SelectedAt:  p.SelectedAt,
		}
	}
	return view, nil
}

func (h *PortalHandler) wizard(c *fiber.Ctx, caller model.Caller) WizardView {
	ctx := c.UserContext()
	draft := h.booking.Draft(ctx, caller)
	return WizardView{
		Steps:        model.BookingSteps,
		Step:         draft.Step,
		Draft:        draft,
		Doctors:      model.DoctorCatalog,
		TimeSlots:    model.TimeSlots,
		Appointments: h.booking.Appointments(ctx, caller),
	}
}

func (h *PortalHandler) appointmentsView(c *fiber.Ctx, caller model.Caller) (interface{}, error) {
	return h.wizard(c, caller), nil
}

// externalBookingView lists external specialists, optionally filtered by ?city=.
func (h *PortalHandler) externalBookingView(c *fiber.Ctx, _ model.Caller) (interface{}, error) {
	city := strings.TrimSpace(c.Query("city"))
	doctors := make([]ExternalDoctor, 0, len(externalDoctors))
	for _, d := range externalDoctors {
		if city == "" || strings.EqualFold(d.Location, city) {
			doctors = append(doctors, d)
		}
	}
	return fiber.Map{
		"provider": "Practo",
		"city":     city,
		"doctors":  doctors,
	}, nil
}

// scheduleView lays out the bookable slots of the coming week.
func (h *PortalHandler) scheduleView(_ *fiber.Ctx, _ model.Caller) (interface{}, error) {
	today := time.Now()
	days := make([]fiber.Map, 0, 7)
	for i := 0; i < 7; i++ {
		day := today.AddDate(0, 0, i)
		days = append(days, fiber.Map{
			"date":    day.Format("2006-01-02"),
			"weekday": day.Weekday().String(),
			"slots":   model.TimeSlots,
		})
	}
	return fiber.Map{"days": days}, nil
}

func (h *PortalHandler) patientRecordsView(c *fiber.Ctx, caller model.Caller) (interface{}, error) {
	records := h.clinical.PatientRecords(c.UserContext(), caller)
	return fiber.Map{"records": records, "total": len(records)}, nil
}

func (h *PortalHandler) analysisHistoryView(c *fiber.Ctx, caller model.Caller) (interface{}, error) {
	history := h.clinical.History(c.UserContext(), caller)
	return fiber.Map{"predictions": history, "total": len(history)}, nil
}

func (h *PortalHandler) reportsView(c *fiber.Ctx, caller model.Caller) (interface{}, error) {
	return h.clinical.Report(c.UserContext(), caller), nil
}

func (h *PortalHandler) healthRecordsView(c *fiber.Ctx, caller model.Caller) (interface{}, error) {
	return fiber.Map{
		"profile":     profileOf(caller),
		"predictions": h.clinical.History(c.UserContext(), caller),
	}, nil
}

func (h *PortalHandler) medicalHistoryView(c *fiber.Ctx, caller model.Caller) (interface{}, error) {
	now := time.Now()
	past := make([]*model.Appointment, 0)
	upcoming := make([]*model.Appointment, 0)
	for _, a := range h.booking.Appointments(c.UserContext(), caller) {
		if a.ScheduledAt.After(now) {
			upcoming = append(upcoming, a)
		} else {
			past = append(past, a)
		}
	}
	return fiber.Map{"past": past, "upcoming": upcoming}, nil
}

func (h *PortalHandler) referenceVideosView(_ *fiber.Ctx, _ model.Caller) (interface{}, error) {
	return fiber.Map{"videos": referenceVideos}, nil
}

func (h *PortalHandler) healthTipsView(_ *fiber.Ctx, _ model.Caller) (interface{}, error) {
	return fiber.Map{"tips": healthTips, "resources": healthResources}, nil
}

func (h *PortalHandler) doctorsView(_ *fiber.Ctx, _ model.Caller) (interface{}, error) {
	return fiber.Map{"doctors": model.DoctorCatalog}, nil
}

func (h *PortalHandler) settingsView(_ *fiber.Ctx, caller model.Caller) (interface{}, error) {
	return fiber.Map{"profile": profileOf(caller)}, nil
}

func profileOf(caller model.Caller) fiber.Map {
	s := caller.Session
	if s == nil {
		return fiber.Map{}
	}
	return fiber.Map{
		"id":                s.ID,
		"email":             s.Email,
		"full_name":         s.FullName,
		"role":              s.Role,
		"specialization":    s.Specialization,
		"profile_synced_at": s.ProfileSyncedAt,
		"token_expires_at":  s.ExpiresAt,
	}
}
