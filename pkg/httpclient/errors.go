package httpclient

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	apperrors "github.com/utafrali/storefront/pkg/errors"
)

const maxErrorBody = 1 << 20

// errorEnvelope matches the error bodies written by pkg/httputil and, loosely,
// the ones returned by payment and media providers.
type errorEnvelope struct {
	Error *struct {
		Code        string `json:"code"`
		Message     string `json:"message"`
		Description string `json:"description"`
	} `json:"error"`
}

// ParseResponseError consumes a non-2xx response and maps it onto an
// AppError, keeping the remote code and message when the body is structured.
func ParseResponseError(resp *http.Response, dependency string) error {
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil {
		return fmt.Errorf("%s returned status %d (read body: %w)", dependency, resp.StatusCode, err)
	}
	return mapStatus(resp.StatusCode, body, dependency)
}

func mapStatus(status int, body []byte, dependency string) error {
	code, message := "", string(body)
	var env errorEnvelope
	if json.Unmarshal(body, &env) == nil && env.Error != nil {
		code = env.Error.Code
		message = env.Error.Message
		if message == "" {
			message = env.Error.Description
		}
	}
	message = fmt.Sprintf("%s: %s", dependency, message)

	if status >= 500 {
		// Upstream failures surface as 503 from our side.
		return apperrors.ServiceUnavailable(dependency, fmt.Errorf("status %d: %s", status, message))
	}
	m, ok := statusMap[status]
	if !ok {
		return fmt.Errorf("%s returned status %d: %s", dependency, status, message)
	}
	if code == "" {
		code = m.code
	}
	return &apperrors.AppError{Code: code, Message: message, Status: status, Err: m.sentinel}
}

var statusMap = map[int]struct {
	code     string
	sentinel error
}{
	http.StatusBadRequest:          {"INVALID_INPUT", apperrors.ErrInvalidInput},
	http.StatusUnprocessableEntity: {"INVALID_INPUT", apperrors.ErrInvalidInput},
	http.StatusUnauthorized:        {"UNAUTHORIZED", apperrors.ErrUnauthorized},
	http.StatusForbidden:           {"FORBIDDEN", apperrors.ErrForbidden},
	http.StatusNotFound:            {"NOT_FOUND", apperrors.ErrNotFound},
	http.StatusConflict:            {"CONFLICT", apperrors.ErrConflict},
	http.StatusTooManyRequests:     {"RATE_LIMITED", apperrors.ErrRateLimited},
}

// IsClientError reports whether status is 4xx.
func IsClientError(status int) bool {
	return status >= 400 && status < 500
}
