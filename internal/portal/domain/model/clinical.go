package model

import (
	"encoding/json"
	"time"
)

// PredictionResult is the classification of one uploaded ultrasound image.
type PredictionResult struct {
	Class         string             `json:"class"`
	Confidence    float64            `json:"confidence"`
	Probabilities map[string]float64 `json:"probabilities"`
	PredictionID  *string            `json:"prediction_id,omitempty"`
}

// UnmarshalJSON accepts the class under either "class" or "prediction";
// "prediction" wins when both are set.
func (r *PredictionResult) UnmarshalJSON(data []byte) error {
	type plain PredictionResult
	var wire struct {
		plain
		Prediction string `json:"prediction"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	*r = PredictionResult(wire.plain)
	if wire.Prediction != "" {
		r.Class = wire.Prediction
	}
	return nil
}

// PredictionRecord is one entry of the prediction history.
type PredictionRecord struct {
	ID              string             `json:"id"`
	ClassPrediction string             `json:"class_prediction"`
	Confidence      float64            `json:"confidence"`
	Probabilities   map[string]float64 `json:"probabilities"`
	PatientID       *string            `json:"patient_id,omitempty"`
	DoctorID        string             `json:"doctor_id"`
	ImageFilename   string             `json:"image_filename"`
	CreatedAt       Timestamp          `json:"created_at"`
	Notes           *string            `json:"notes,omitempty"`
}

// PatientRecord summarises one patient seen by a doctor.
type PatientRecord struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	LastAnalysis  Timestamp `json:"last_analysis"`
	TotalAnalyses int       `json:"total_analyses"`
	LatestResult  string    `json:"latest_result"`
}

// Analytics are the doctor dashboard counters. The zero value is what views
// show when the analytics endpoint is unavailable.
type Analytics struct {
	TotalAnalyses  int     `json:"total_analyses"`
	ThisMonth      int     `json:"this_month"`
	UniquePatients int     `json:"unique_patients"`
	AccuracyRate   float64 `json:"accuracy_rate"`
}

// Report aggregates analytics with the class distribution of the history.
type Report struct {
	Analytics      Analytics          `json:"analytics"`
	ClassCounts    map[string]int     `json:"class_counts"`
	MeanConfidence float64            `json:"mean_confidence"`
	Recent         []PredictionRecord `json:"recent"`
}

// PendingUpload is the image selected for prediction, kept until a
// prediction succeeds so a failed attempt can be retried.
type PendingUpload struct {
	Filename    string    `json:"filename"`
	ContentType string    `json:"content_type"`
	Content     []byte    `json:"content"`
	SelectedAt  time.Time `json:"selected_at"`
}

// PendingUploadItemKey is the client storage item holding the pending upload.
const PendingUploadItemKey = "pending_upload"
