package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"
)

// ErrMissingCredential is returned before any network call when no API key is configured
var ErrMissingCredential = errors.New("remote credential not configured")

// NewRemoteError creates a remote-layer error
func NewRemoteError(op string, err error, code ErrorCode, context map[string]string) *RepositoryError {
	remoteErr := &RepositoryError{
		Op:        op,
		Err:       err,
		Code:      code,
		Layer:     LayerRemote,
		Retryable: isRetryableError(code, err),
		Context:   make(map[string]string, len(context)),
		Timestamp: time.Now(),
	}
	for k, v := range context {
		remoteErr.Context[k] = v
	}
	return remoteErr
}

// ClassifyHTTPStatus maps a non-2xx status code onto the taxonomy
func ClassifyHTTPStatus(status int) ErrorCode {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrCodeAuth
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return ErrCodeValidation
	case status == http.StatusNotFound:
		return ErrCodeNotFound
	case status == http.StatusConflict:
		return ErrCodeDuplicate
	case status == http.StatusRequestTimeout || status == http.StatusTooManyRequests:
		return ErrCodeUnavailable
	case status >= 500:
		return ErrCodeUnavailable
	default:
		return ErrCodeUnknown
	}
}

// ClassifyNetworkError maps a transport failure (no HTTP response) onto the taxonomy
func ClassifyNetworkError(err error) ErrorCode {
	if err == nil {
		return ErrCodeUnknown
	}
	if errors.Is(err, ErrMissingCredential) {
		return ErrCodeAuth
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return ErrCodeTimeout
	}
	if errors.Is(err, context.Canceled) {
		return ErrCodeTimeout
	}
	// refused, reset, DNS and anything else the transport reports
	return ErrCodeConnection
}

// HTTPStatusError builds the remote error for an unexpected response status
func HTTPStatusError(op string, status int, body string) *RepositoryError {
	return NewRemoteError(op, fmt.Errorf("unexpected status %d: %s", status, body), ClassifyHTTPStatus(status), map[string]string{
		"status": strconv.Itoa(status),
	})
}
