package usecase_test

import (
	"context"
	"testing"
	"time"

	"afi-portal/internal/portal/adapter/clinicapi"
	"afi-portal/internal/portal/adapter/persistence/memory"
	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/usecase"
	sharedErrors "afi-portal/internal/shared/errors"
	"afi-portal/internal/shared/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// pngHeader is enough for content sniffing to report image/png.
var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type ClinicalUsecaseTestSuite struct {
	suite.Suite
	api      *mockClinicalAPI
	records  *usecase.RecordStore
	clinical *usecase.ClinicalUsecase
	caller   model.Caller
	ctx      context.Context
}

func (s *ClinicalUsecaseTestSuite) SetupTest() {
	s.api = new(mockClinicalAPI)
	s.records = usecase.NewRecordStore(memory.NewClientStorage(), nil)
	s.clinical = usecase.NewClinicalUsecase(s.api, s.records, 1024, nil, logger.Nop())
	s.caller = model.Caller{ClientID: "c1", Session: &model.Session{AccessToken: "tok", Role: model.RoleDoctor}}
	s.ctx = context.Background()
}

func (s *ClinicalUsecaseTestSuite) TestPredictSuccessDropsStash() {
	s.api.On("PredictImage", mock.Anything, "tok", mock.MatchedBy(func(u model.PendingUpload) bool {
		return u.Filename == "scan.png" && u.ContentType == "image/png"
	})).Return(&model.PredictionResult{Class: "normal", Confidence: 0.91}, nil)

	res, err := s.clinical.Predict(s.ctx, s.caller, "scan.png", "", pngHeader)
	s.Require().NoError(err)
	s.Equal("normal", res.Class)

	_, ok := s.clinical.PendingUpload(s.ctx, s.caller)
	s.False(ok)
}

func (s *ClinicalUsecaseTestSuite) TestPredictTimeoutKeepsStashForRetry() {
	timeout := &clinicapi.APIError{Endpoint: "/api/predict", Timeout: true, Detail: "timeout of 30000ms exceeded"}
	s.api.On("PredictImage", mock.Anything, "tok", mock.Anything).Return(nil, timeout).Once()
	s.api.On("PredictImage", mock.Anything, "tok", mock.Anything).Return(&model.PredictionResult{Class: "pcos"}, nil).Once()

	_, err := s.clinical.Predict(s.ctx, s.caller, "scan.png", "image/png", pngHeader)
	s.Require().Error(err)
	s.True(sharedErrors.IsPrediction(err))
	s.Equal("Prediction error: timeout of 30000ms exceeded", err.Error())
	s.ErrorIs(err, sharedErrors.ErrTimeout)

	pending, ok := s.clinical.PendingUpload(s.ctx, s.caller)
	s.Require().True(ok)
	s.Equal("scan.png", pending.Filename)
	s.Equal(pngHeader, pending.Content)

	res, err := s.clinical.RetryPrediction(s.ctx, s.caller)
	s.Require().NoError(err)
	s.Equal("pcos", res.Class)

	_, ok = s.clinical.PendingUpload(s.ctx, s.caller)
	s.False(ok)
}

func (s *ClinicalUsecaseTestSuite) TestPredictRejectsBadInput() {
	_, err := s.clinical.Predict(s.ctx, s.caller, "empty.png", "image/png", nil)
	s.Equal("Prediction error: Please select an image", err.Error())

	_, err = s.clinical.Predict(s.ctx, s.caller, "notes.txt", "text/plain", []byte("hello"))
	s.Equal("Prediction error: File must be an image", err.Error())

	_, err = s.clinical.Predict(s.ctx, s.caller, "big.png", "image/png", make([]byte, 2048))
	s.Equal("Prediction error: File is too large", err.Error())

	s.api.AssertNotCalled(s.T(), "PredictImage", mock.Anything, mock.Anything, mock.Anything)
}

func (s *ClinicalUsecaseTestSuite) TestRetryWithoutStash() {
	_, err := s.clinical.RetryPrediction(s.ctx, s.caller)
	s.True(sharedErrors.IsValidation(err))
}

func (s *ClinicalUsecaseTestSuite) TestHistoryDegradesAndSorts() {
	older := model.PredictionRecord{ID: "a", ClassPrediction: "normal", Confidence: 0.5, CreatedAt: model.Timestamp{Time: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}}
	newer := model.PredictionRecord{ID: "b", ClassPrediction: "pcos", Confidence: 0.7, CreatedAt: model.Timestamp{Time: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)}}
	s.api.On("PredictionHistory", mock.Anything, "tok").Return([]model.PredictionRecord{older, newer}, nil).Once()
	s.api.On("PredictionHistory", mock.Anything, "tok").Return(nil, &clinicapi.APIError{StatusCode: 500, Detail: "boom"}).Once()

	got := s.clinical.History(s.ctx, s.caller)
	s.Require().Len(got, 2)
	s.Equal("b", got[0].ID)

	got = s.clinical.History(s.ctx, s.caller)
	s.NotNil(got)
	s.Empty(got)
}

func (s *ClinicalUsecaseTestSuite) TestAnalyticsAndRecordsDegrade() {
	s.api.On("PatientAnalytics", mock.Anything, "tok").Return(nil, &clinicapi.APIError{Timeout: true, Detail: "timeout of 15000ms exceeded"})
	s.api.On("PatientRecords", mock.Anything, "tok").Return(nil, &clinicapi.APIError{StatusCode: 403, Detail: "Doctors only"})

	s.Equal(model.Analytics{}, s.clinical.Analytics(s.ctx, s.caller))
	records := s.clinical.PatientRecords(s.ctx, s.caller)
	s.NotNil(records)
	s.Empty(records)
}

func (s *ClinicalUsecaseTestSuite) TestPredictionDetails() {
	s.api.On("PredictionDetails", mock.Anything, "tok", "missing").Return(nil, &clinicapi.APIError{StatusCode: 404, Detail: "Prediction not found"})
	s.api.On("PredictionDetails", mock.Anything, "tok", "p1").Return(&model.PredictionRecord{ID: "p1"}, nil)

	_, err := s.clinical.PredictionDetails(s.ctx, s.caller, "missing")
	s.True(sharedErrors.IsNotFound(err))

	rec, err := s.clinical.PredictionDetails(s.ctx, s.caller, "p1")
	s.Require().NoError(err)
	s.Equal("p1", rec.ID)
}

func (s *ClinicalUsecaseTestSuite) TestReport() {
	history := []model.PredictionRecord{
		{ID: "1", ClassPrediction: "normal", Confidence: 0.8},
		{ID: "2", ClassPrediction: "pcos", Confidence: 0.6},
		{ID: "3", ClassPrediction: "normal", Confidence: 1.0},
	}
	s.api.On("PredictionHistory", mock.Anything, "tok").Return(history, nil)
	s.api.On("PatientAnalytics", mock.Anything, "tok").Return(&model.Analytics{TotalAnalyses: 3}, nil)

	report := s.clinical.Report(s.ctx, s.caller)
	s.Equal(3, report.Analytics.TotalAnalyses)
	s.Equal(map[string]int{"normal": 2, "pcos": 1}, report.ClassCounts)
	s.InDelta(0.8, report.MeanConfidence, 1e-9)
	s.Len(report.Recent, 3)
}

func TestClinicalUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(ClinicalUsecaseTestSuite))
}

func TestClinicalUsecase_NoSession(t *testing.T) {
	api := new(mockClinicalAPI)
	clinical := usecase.NewClinicalUsecase(api, usecase.NewRecordStore(memory.NewClientStorage(), nil), 0, nil, logger.Nop())
	anon := model.Caller{ClientID: "c1"}

	assert.Empty(t, clinical.History(context.Background(), anon))
	_, err := clinical.PredictionDetails(context.Background(), anon, "p1")
	require.ErrorIs(t, err, sharedErrors.ErrNoSession)
	api.AssertNotCalled(t, "PredictionHistory", mock.Anything, mock.Anything)
}
