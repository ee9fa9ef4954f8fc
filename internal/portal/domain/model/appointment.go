package model

import (
	"time"
)

// BookingDraftItemKey is the client storage item holding the wizard draft.
const BookingDraftItemKey = "booking_draft"

// Booking wizard steps.
const (
	StepSelectDoctor = iota
	StepChooseSlot
	StepPatientDetails
	StepConfirmation
)

// BookingSteps are the wizard step titles, indexed by step.
var BookingSteps = []string{"Select Doctor", "Choose Date & Time", "Patient Details", "Confirmation"}

// TimeSlots are the bookable consultation times of every day.
var TimeSlots = []string{"09:00", "10:00", "11:00", "14:00", "15:00", "16:00"}

// Doctor is a bookable specialist.
type Doctor struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Specialty       string  `json:"specialty"`
	Experience      string  `json:"experience"`
	Rating          float64 `json:"rating"`
	Available       bool    `json:"available"`
	Avatar          string  `json:"avatar"`
	ConsultationFee string  `json:"consultation_fee"`
}

// DoctorCatalog is the fixed list of specialists offered for booking.
var DoctorCatalog = []Doctor{
	{ID: 1, Name: "Dr. Sarah Johnson", Specialty: "Gynecologist", Experience: "12 years", Rating: 4.9, Available: true, Avatar: "SJ", ConsultationFee: "$150"},
	{ID: 2, Name: "Dr. Michael Chen", Specialty: "Radiologist", Experience: "8 years", Rating: 4.8, Available: true, Avatar: "MC", ConsultationFee: "$120"},
	{ID: 3, Name: "Dr. Emily Rodriguez", Specialty: "Obstetrician", Experience: "15 years", Rating: 4.9, Available: false, Avatar: "ER", ConsultationFee: "$180"},
}

// FindDoctor looks a doctor up in the catalog.
func FindDoctor(id int) (Doctor, bool) {
	for _, d := range DoctorCatalog {
		if d.ID == id {
			return d, true
		}
	}
	return Doctor{}, false
}

// PatientInfo are the contact details entered in the wizard.
type PatientInfo struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

// BookingDraft is the in-progress state of the booking wizard of one client.
type BookingDraft struct {
	Step     int         `json:"step"`
	DoctorID int         `json:"doctor_id,omitempty"`
	Date     string      `json:"date,omitempty"` // YYYY-MM-DD
	Time     string      `json:"time,omitempty"`
	Reason   string      `json:"reason,omitempty"`
	Patient  PatientInfo `json:"patient"`
}

// Appointment is a confirmed booking.
type Appointment struct {
	ID          string      `json:"id" bson:"_id"`
	ClientID    string      `json:"-" bson:"client_id"`
	UserEmail   string      `json:"user_email" bson:"user_email"`
	DoctorID    int         `json:"doctor_id" bson:"doctor_id"`
	DoctorName  string      `json:"doctor_name" bson:"doctor_name"`
	Specialty   string      `json:"specialty" bson:"specialty"`
	Fee         string      `json:"consultation_fee" bson:"consultation_fee"`
	ScheduledAt time.Time   `json:"scheduled_at" bson:"scheduled_at"`
	Reason      string      `json:"reason,omitempty" bson:"reason,omitempty"`
	Patient     PatientInfo `json:"patient" bson:"patient"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
}
