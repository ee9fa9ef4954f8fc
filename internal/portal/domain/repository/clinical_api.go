package repository

import (
	"context"

	"afi-portal/internal/portal/domain/model"
)

// ClinicalAPI is the bearer-authenticated clinical REST service.
type ClinicalAPI interface {
	PredictImage(ctx context.Context, accessToken string, upload model.PendingUpload) (*model.PredictionResult, error)
	PredictionHistory(ctx context.Context, accessToken string) ([]model.PredictionRecord, error)
	PredictionDetails(ctx context.Context, accessToken, predictionID string) (*model.PredictionRecord, error)
	PatientRecords(ctx context.Context, accessToken string) ([]model.PatientRecord, error)
	PatientAnalytics(ctx context.Context, accessToken string) (*model.Analytics, error)
}
