package clinicapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"afi-portal/internal/portal/domain/repository"
	sharedErrors "afi-portal/internal/shared/errors"
)

// APIError is a failed clinical API call. StatusCode is zero for transport
// failures.
type APIError struct {
	Endpoint   string
	StatusCode int
	Detail     string
	Timeout    bool
	Cause      error
}

func (e *APIError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s: %s", e.Endpoint, e.Detail)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Endpoint, e.StatusCode, e.Detail)
}

// Unwrap exposes the failure class for errors.Is checks.
func (e *APIError) Unwrap() []error {
	errs := make([]error, 0, 2)
	switch {
	case e.Timeout:
		errs = append(errs, sharedErrors.ErrTimeout)
	case e.StatusCode == 401 || e.StatusCode == 403:
		errs = append(errs, sharedErrors.ErrUnauthorized)
	case e.StatusCode == 404:
		errs = append(errs, sharedErrors.ErrNotFound)
	case e.StatusCode >= 400 && e.StatusCode < 500:
		errs = append(errs, sharedErrors.ErrUpstreamReject)
	default:
		errs = append(errs, sharedErrors.ErrUpstream)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// DetailOf returns the server supplied message of err, or "" when err is not
// an APIError.
func DetailOf(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Detail
	}
	return ""
}

// parseDetail extracts the message of an error body. The API answers
// {"detail": "..."}, {"detail": {"error": "...", "reason": "..."}} or
// {"detail": [{"msg": "..."}]} for validation failures.
func parseDetail(body []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || len(envelope.Detail) == 0 {
		return strings.TrimSpace(string(body))
	}

	var s string
	if json.Unmarshal(envelope.Detail, &s) == nil {
		return s
	}

	var obj struct {
		Error  string `json:"error"`
		Reason string `json:"reason"`
	}
	if json.Unmarshal(envelope.Detail, &obj) == nil && obj.Error != "" {
		if obj.Reason != "" {
			return obj.Error + ": " + obj.Reason
		}
		return obj.Error
	}

	var list []struct {
		Msg string `json:"msg"`
	}
	if json.Unmarshal(envelope.Detail, &list) == nil && len(list) > 0 {
		msgs := make([]string, 0, len(list))
		for _, item := range list {
			msgs = append(msgs, item.Msg)
		}
		return strings.Join(msgs, "; ")
	}
	return string(envelope.Detail)
}

var _ repository.APIFailure = (*APIError)(nil)

func (e *APIError) ServerMessage() string {
	if e.StatusCode == 0 {
		return ""
	}
	return e.Detail
}

func (e *APIError) Describe() string { return e.Detail }
