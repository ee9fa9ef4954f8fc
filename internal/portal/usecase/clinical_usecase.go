package usecase

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"strings"
	"time"

	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/domain/repository"
	sharedErrors "afi-portal/internal/shared/errors"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"

	"go.uber.org/zap"
)

// DefaultMaxUploadBytes bounds an uploaded image.
const DefaultMaxUploadBytes = 10 << 20

// ClinicalUsecaseInterface covers the prediction flow and the read-only
// clinical data shown by the views.
type ClinicalUsecaseInterface interface {
	Predict(ctx context.Context, caller model.Caller, filename, contentType string, content []byte) (*model.PredictionResult, error)
	RetryPrediction(ctx context.Context, caller model.Caller) (*model.PredictionResult, error)
	PendingUpload(ctx context.Context, caller model.Caller) (*model.PendingUpload, bool)
	DiscardUpload(ctx context.Context, caller model.Caller) error

	// History, PatientRecords and Analytics degrade to empty values.
	History(ctx context.Context, caller model.Caller) []model.PredictionRecord
	PredictionDetails(ctx context.Context, caller model.Caller, predictionID string) (*model.PredictionRecord, error)
	PatientRecords(ctx context.Context, caller model.Caller) []model.PatientRecord
	Analytics(ctx context.Context, caller model.Caller) model.Analytics
	Report(ctx context.Context, caller model.Caller) model.Report
}

// ClinicalUsecase implements ClinicalUsecaseInterface.
type ClinicalUsecase struct {
	api            repository.ClinicalAPI
	records        *RecordStore
	maxUploadBytes int
	metrics        *metrics.Metrics
	logger         logger.Logger
	now            func() time.Time
}

var _ ClinicalUsecaseInterface = (*ClinicalUsecase)(nil)

func NewClinicalUsecase(api repository.ClinicalAPI, records *RecordStore, maxUploadBytes int, m *metrics.Metrics, log logger.Logger) *ClinicalUsecase {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if m == nil {
		m = metrics.NewNop()
	}
	return &ClinicalUsecase{
		api:            api,
		records:        records,
		maxUploadBytes: maxUploadBytes,
		metrics:        m,
		logger:         log.WithComponent("clinical_usecase"),
		now:            time.Now,
	}
}

func token(caller model.Caller) (string, error) {
	if caller.Session == nil || caller.Session.AccessToken == "" {
		return "", sharedErrors.ErrNoSession
	}
	return caller.Session.AccessToken, nil
}

// Predict stashes the image for the client, then classifies it. The stash
// survives a failure so the same image can be retried.
func (u *ClinicalUsecase) Predict(ctx context.Context, caller model.Caller, filename, contentType string, content []byte) (*model.PredictionResult, error) {
	if len(content) == 0 {
		return nil, sharedErrors.NewPredictionError("Please select an image")
	}
	if len(content) > u.maxUploadBytes {
		u.metrics.RecordPrediction("rejected")
		return nil, sharedErrors.NewPredictionError("File is too large")
	}
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(content)
	}
	if !strings.HasPrefix(contentType, "image/") {
		u.metrics.RecordPrediction("rejected")
		return nil, sharedErrors.NewPredictionError("File must be an image")
	}

	upload := model.PendingUpload{
		Filename:    filename,
		ContentType: contentType,
		Content:     content,
		SelectedAt:  u.now().UTC(),
	}
	if err := u.records.Put(ctx, caller.ClientID, model.PendingUploadItemKey, upload); err != nil {
		// Classification can still proceed, only retry is lost.
		u.logger.WithContext(ctx).Warn("Failed to stash upload", zap.Error(err))
	}
	return u.submit(ctx, caller, upload)
}

func (u *ClinicalUsecase) RetryPrediction(ctx context.Context, caller model.Caller) (*model.PredictionResult, error) {
	upload, ok := u.PendingUpload(ctx, caller)
	if !ok {
		return nil, sharedErrors.NewValidationError("No image selected for analysis")
	}
	return u.submit(ctx, caller, *upload)
}

func (u *ClinicalUsecase) submit(ctx context.Context, caller model.Caller, upload model.PendingUpload) (*model.PredictionResult, error) {
	tok, err := token(caller)
	if err != nil {
		return nil, sharedErrors.NewPredictionError("not signed in").WithCause(err)
	}

	res, err := u.api.PredictImage(ctx, tok, upload)
	if err != nil {
		outcome := "failure"
		if errors.Is(err, sharedErrors.ErrTimeout) {
			outcome = "timeout"
		}
		u.metrics.RecordPrediction(outcome)
		u.logger.WithContext(ctx).Warn("Prediction failed",
			zap.String("filename", upload.Filename),
			zap.Error(err))
		return nil, sharedErrors.NewPredictionError(describe(err)).WithCause(err)
	}

	u.metrics.RecordPrediction("success")
	if err := u.records.Delete(ctx, caller.ClientID, model.PendingUploadItemKey); err != nil {
		u.logger.WithContext(ctx).Debug("Failed to drop stashed upload", zap.Error(err))
	}
	return res, nil
}

func (u *ClinicalUsecase) PendingUpload(ctx context.Context, caller model.Caller) (*model.PendingUpload, bool) {
	var upload model.PendingUpload
	if err := u.records.Get(ctx, caller.ClientID, model.PendingUploadItemKey, &upload); err != nil {
		return nil, false
	}
	return &upload, true
}

func (u *ClinicalUsecase) DiscardUpload(ctx context.Context, caller model.Caller) error {
	return u.records.Delete(ctx, caller.ClientID, model.PendingUploadItemKey)
}

func (u *ClinicalUsecase) History(ctx context.Context, caller model.Caller) []model.PredictionRecord {
	tok, err := token(caller)
	if err != nil {
		return []model.PredictionRecord{}
	}
	out, err := u.api.PredictionHistory(ctx, tok)
	if err != nil {
		u.logger.WithContext(ctx).Warn("History unavailable, showing none",
			zap.Error(sharedErrors.NewHistoryFetchError(describe(err)).WithCause(err)))
		return []model.PredictionRecord{}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt.Time) })
	return out
}

// PredictionDetails is the one clinical read whose failure reaches the caller.
func (u *ClinicalUsecase) PredictionDetails(ctx context.Context, caller model.Caller, predictionID string) (*model.PredictionRecord, error) {
	if strings.TrimSpace(predictionID) == "" {
		return nil, sharedErrors.NewValidationError("prediction id is required")
	}
	tok, err := token(caller)
	if err != nil {
		return nil, err
	}
	rec, err := u.api.PredictionDetails(ctx, tok, predictionID)
	if err != nil {
		if errors.Is(err, sharedErrors.ErrNotFound) {
			return nil, sharedErrors.NewNotFoundError("prediction").WithCause(err)
		}
		return nil, sharedErrors.NewHistoryFetchError(describe(err)).WithCause(err)
	}
	return rec, nil
}

func (u *ClinicalUsecase) PatientRecords(ctx context.Context, caller model.Caller) []model.PatientRecord {
	tok, err := token(caller)
	if err != nil {
		return []model.PatientRecord{}
	}
	out, err := u.api.PatientRecords(ctx, tok)
	if err != nil {
		u.logger.WithContext(ctx).Warn("Patient records unavailable, showing none",
			zap.Error(sharedErrors.NewHistoryFetchError(describe(err)).WithCause(err)))
		return []model.PatientRecord{}
	}
	return out
}

func (u *ClinicalUsecase) Analytics(ctx context.Context, caller model.Caller) model.Analytics {
	tok, err := token(caller)
	if err != nil {
		return model.Analytics{}
	}
	a, err := u.api.PatientAnalytics(ctx, tok)
	if err != nil {
		u.logger.WithContext(ctx).Warn("Analytics unavailable, showing zeros",
			zap.Error(sharedErrors.NewAnalyticsFetchError(describe(err)).WithCause(err)))
		return model.Analytics{}
	}
	return *a
}

// Report combines the analytics counters with the class distribution of the
// prediction history.
func (u *ClinicalUsecase) Report(ctx context.Context, caller model.Caller) model.Report {
	history := u.History(ctx, caller)
	report := model.Report{
		Analytics:   u.Analytics(ctx, caller),
		ClassCounts: make(map[string]int),
		Recent:      history,
	}
	var total float64
	for _, rec := range history {
		report.ClassCounts[rec.ClassPrediction]++
		total += rec.Confidence
	}
	if len(history) > 0 {
		report.MeanConfidence = total / float64(len(history))
	}
	if len(report.Recent) > 10 {
		report.Recent = report.Recent[:10]
	}
	return report
}
