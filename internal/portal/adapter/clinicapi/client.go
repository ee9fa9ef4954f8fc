package clinicapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/domain/repository"
	"afi-portal/internal/shared/logger"
	"afi-portal/internal/shared/metrics"
	"afi-portal/internal/shared/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Endpoint paths of the clinical API.
const (
	PathRegister         = "/api/auth/register"
	PathToken            = "/api/auth/token"
	PathMe               = "/api/auth/me"
	PathPredictImage     = "/api/prediction/predict_image"
	PathPredictions      = "/api/history/predictions"
	PathPatientRecords   = "/api/patients/records"
	PathPatientAnalytics = "/api/patients/analytics"
)

// Config holds the client settings. A zero timeout waits forever.
type Config struct {
	BaseURL           string
	AuthTimeout       time.Duration
	DataTimeout       time.Duration
	PredictionTimeout time.Duration
}

// Client talks to the clinical REST API through fiber's fasthttp agent.
type Client struct {
	cfg     Config
	logger  logger.Logger
	metrics *metrics.Metrics
}

var (
	_ repository.IdentityAPI = (*Client)(nil)
	_ repository.ClinicalAPI = (*Client)(nil)
)

// NewClient creates a clinical API client
func NewClient(cfg Config, log logger.Logger, m *metrics.Metrics) *Client {
	if m == nil {
		m = metrics.NewNop()
	}
	return &Client{cfg: cfg, logger: log.WithComponent("clinicapi"), metrics: m}
}

// call sends the prepared agent and decodes a 2xx JSON answer into out.
func (c *Client) call(ctx context.Context, endpoint string, agent *fiber.Agent, timeout time.Duration, out interface{}) error {
	if err := ctx.Err(); err != nil {
		return &APIError{Endpoint: endpoint, Detail: err.Error(), Cause: err, Timeout: errors.Is(err, context.DeadlineExceeded)}
	}
	if deadline, ok := ctx.Deadline(); ok {
		left := time.Until(deadline)
		if left <= 0 {
			return &APIError{Endpoint: endpoint, Detail: context.DeadlineExceeded.Error(), Cause: context.DeadlineExceeded, Timeout: true}
		}
		if timeout == 0 || left < timeout {
			timeout = left
		}
	}
	if timeout > 0 {
		agent.Timeout(timeout)
	}
	if rid, err := utils.GetRequestIDFromContext(ctx); err == nil {
		agent.Set(fiber.HeaderXRequestID, rid)
	}
	log := c.logger.WithContext(ctx)

	started := time.Now()
	code, body, errs := agent.Bytes()
	c.metrics.ObserveUpstream(endpoint, started)

	if len(errs) > 0 {
		err := errs[0]
		apiErr := &APIError{Endpoint: endpoint, Detail: err.Error(), Cause: err}
		if errors.Is(err, fasthttp.ErrTimeout) {
			apiErr.Timeout = true
			apiErr.Detail = fmt.Sprintf("timeout of %dms exceeded", timeout.Milliseconds())
		}
		log.Warn("Clinical API unreachable",
			zap.String("endpoint", endpoint),
			zap.Duration("elapsed", time.Since(started)),
			zap.Error(err))
		return apiErr
	}

	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		detail := parseDetail(body)
		if detail == "" {
			detail = http.StatusText(code)
		}
		log.Debug("Clinical API rejected request",
			zap.String("endpoint", endpoint),
			zap.Int("status", code),
			zap.String("detail", detail))
		return &APIError{Endpoint: endpoint, StatusCode: code, Detail: detail}
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Endpoint: endpoint, StatusCode: code, Detail: "malformed response", Cause: err}
	}
	return nil
}

func (c *Client) url(path string) string {
	return c.cfg.BaseURL + path
}

func bearer(agent *fiber.Agent, accessToken string) *fiber.Agent {
	return agent.Set(fiber.HeaderAuthorization, "Bearer "+accessToken)
}

// Register posts a new account as JSON.
func (c *Client) Register(ctx context.Context, req repository.RegisterRequest) (*repository.ServerAck, error) {
	agent := fiber.Post(c.url(PathRegister)).JSON(req)
	var ack repository.ServerAck
	if err := c.call(ctx, PathRegister, agent, c.cfg.AuthTimeout, &ack); err != nil {
		return nil, err
	}
	return &ack, nil
}

// Token exchanges credentials for an access token. The API expects the
// OAuth2 password form with the email as username.
func (c *Client) Token(ctx context.Context, username, password string) (*repository.TokenResponse, error) {
	args := fiber.AcquireArgs()
	defer fiber.ReleaseArgs(args)
	args.Set("username", username)
	args.Set("password", password)

	agent := fiber.Post(c.url(PathToken)).Form(args)
	var tok repository.TokenResponse
	if err := c.call(ctx, PathToken, agent, c.cfg.AuthTimeout, &tok); err != nil {
		return nil, err
	}
	if tok.AccessToken == "" {
		return nil, &APIError{Endpoint: PathToken, StatusCode: http.StatusOK, Detail: "no access token in response"}
	}
	return &tok, nil
}

// Me fetches the profile of the token owner.
func (c *Client) Me(ctx context.Context, accessToken string) (*model.ProfilePatch, error) {
	agent := bearer(fiber.Get(c.url(PathMe)), accessToken)
	var patch model.ProfilePatch
	if err := c.call(ctx, PathMe, agent, c.cfg.AuthTimeout, &patch); err != nil {
		return nil, err
	}
	return &patch, nil
}

// PredictImage uploads one image as multipart field "file". The part keeps
// the image content type since the API rejects anything but image/*.
func (c *Client) PredictImage(ctx context.Context, accessToken string, upload model.PendingUpload) (*model.PredictionResult, error) {
	body, contentType, err := imagePart(upload)
	if err != nil {
		return nil, &APIError{Endpoint: PathPredictImage, Detail: err.Error(), Cause: err}
	}
	agent := bearer(fiber.Post(c.url(PathPredictImage)), accessToken).
		ContentType(contentType).
		Body(body)

	var res model.PredictionResult
	if err := c.call(ctx, PathPredictImage, agent, c.cfg.PredictionTimeout, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// PredictionHistory lists the predictions visible to the token owner.
func (c *Client) PredictionHistory(ctx context.Context, accessToken string) ([]model.PredictionRecord, error) {
	agent := bearer(fiber.Get(c.url(PathPredictions)), accessToken)
	out := make([]model.PredictionRecord, 0)
	if err := c.call(ctx, PathPredictions, agent, c.cfg.DataTimeout, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PredictionDetails fetches one prediction.
func (c *Client) PredictionDetails(ctx context.Context, accessToken, predictionID string) (*model.PredictionRecord, error) {
	agent := bearer(fiber.Get(c.url(PathPredictions+"/"+url.PathEscape(predictionID))), accessToken)
	var rec model.PredictionRecord
	if err := c.call(ctx, PathPredictions+"/:id", agent, c.cfg.DataTimeout, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// PatientRecords lists the patients of a doctor.
func (c *Client) PatientRecords(ctx context.Context, accessToken string) ([]model.PatientRecord, error) {
	agent := bearer(fiber.Get(c.url(PathPatientRecords)), accessToken)
	out := make([]model.PatientRecord, 0)
	if err := c.call(ctx, PathPatientRecords, agent, c.cfg.DataTimeout, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// PatientAnalytics fetches the doctor dashboard counters.
func (c *Client) PatientAnalytics(ctx context.Context, accessToken string) (*model.Analytics, error) {
	agent := bearer(fiber.Get(c.url(PathPatientAnalytics)), accessToken)
	var a model.Analytics
	if err := c.call(ctx, PathPatientAnalytics, agent, c.cfg.DataTimeout, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func imagePart(upload model.PendingUpload) ([]byte, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set(fiber.HeaderContentDisposition,
		fmt.Sprintf(`form-data; name="file"; filename="%s"`, quoteEscaper.Replace(upload.Filename)))
	h.Set(fiber.HeaderContentType, upload.ContentType)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(upload.Content); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), mw.FormDataContentType(), nil
}
