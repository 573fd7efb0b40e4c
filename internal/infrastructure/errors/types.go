package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrorCode classifies failures from the journal store and the remote service
type ErrorCode int

const (
	ErrCodeUnknown ErrorCode = iota
	ErrCodeNotFound
	ErrCodeDuplicate
	ErrCodeConstraint
	ErrCodeConnection
	ErrCodeTransaction
	ErrCodeTimeout
	ErrCodeValidation
	ErrCodePermission
	ErrCodeDiskSpace
	ErrCodeCorruption
	ErrCodeInternal
	ErrCodeBusy
	ErrCodeSchema
	ErrCodeUnavailable
	ErrCodeAuth
)

var codeNames = map[ErrorCode]string{
	ErrCodeNotFound:    "NOT_FOUND",
	ErrCodeDuplicate:   "DUPLICATE",
	ErrCodeConstraint:  "CONSTRAINT",
	ErrCodeConnection:  "CONNECTION",
	ErrCodeTransaction: "TRANSACTION",
	ErrCodeTimeout:     "TIMEOUT",
	ErrCodeValidation:  "VALIDATION",
	ErrCodePermission:  "PERMISSION",
	ErrCodeDiskSpace:   "DISK_SPACE",
	ErrCodeCorruption:  "CORRUPTION",
	ErrCodeInternal:    "INTERNAL",
	ErrCodeBusy:        "BUSY",
	ErrCodeSchema:      "SCHEMA",
	ErrCodeUnavailable: "UNAVAILABLE",
	ErrCodeAuth:        "AUTH",
}

// String returns a string representation of the error code
func (e ErrorCode) String() string {
	if name, ok := codeNames[e]; ok {
		return name
	}
	return "UNKNOWN"
}

// Layer records which side of the system produced an error.
type Layer string

const (
	LayerStorage Layer = "storage"
	LayerRemote  Layer = "remote"
)

// RepositoryError carries an operation name, a classification and retry information
type RepositoryError struct {
	Op        string            // operation name
	Err       error             // underlying error
	Code      ErrorCode         // error classification
	Layer     Layer             // storage or remote
	Retryable bool              // whether the error is retryable
	Context   map[string]string // additional context information
	Timestamp time.Time         // when the error occurred
}

func (e *RepositoryError) Error() string {
	if e == nil {
		return "repository error"
	}

	var parts []string
	if e.Op != "" {
		parts = append(parts, "op="+e.Op)
	}
	if e.Code != ErrCodeUnknown {
		parts = append(parts, "code="+e.Code.String())
	}
	if e.Retryable {
		parts = append(parts, "retryable=true")
	}

	keys := make([]string, 0, len(e.Context))
	for k := range e.Context {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s=%s", k, e.Context[k]))
	}

	suffix := ""
	if len(parts) > 0 {
		suffix = " [" + strings.Join(parts, " ") + "]"
	}
	if e.Err != nil {
		return e.Err.Error() + suffix
	}
	return string(e.layerOrDefault()) + " error" + suffix
}

func (e *RepositoryError) layerOrDefault() Layer {
	if e.Layer == "" {
		return LayerStorage
	}
	return e.Layer
}

func (e *RepositoryError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is matches another RepositoryError by code, otherwise defers to the wrapped error
func (e *RepositoryError) Is(target error) bool {
	if e == nil {
		return false
	}
	if t, ok := target.(*RepositoryError); ok {
		return e.Code == t.Code
	}
	if e.Err != nil {
		return errors.Is(e.Err, target)
	}
	return false
}

func (e *RepositoryError) IsRetryable() bool {
	return e != nil && e.Retryable
}

// GetCode returns the error code as a string (for logging interface compatibility)
func (e *RepositoryError) GetCode() string {
	if e == nil {
		return ErrCodeUnknown.String()
	}
	return e.Code.String()
}

// GetContext returns the error context (for logging interface compatibility)
func (e *RepositoryError) GetContext() map[string]string {
	if e == nil || e.Context == nil {
		return map[string]string{}
	}
	return e.Context
}

// GetTimestamp returns the error timestamp (for logging interface compatibility)
func (e *RepositoryError) GetTimestamp() time.Time {
	if e == nil {
		return time.Time{}
	}
	return e.Timestamp
}

// WithContext mutates the receiver. Not safe once the error is shared between goroutines.
func (e *RepositoryError) WithContext(key, value string) *RepositoryError {
	if e.Context == nil {
		e.Context = make(map[string]string)
	}
	e.Context[key] = value
	return e
}

// NewRepositoryError creates a storage-layer error
func NewRepositoryError(op string, err error, code ErrorCode) *RepositoryError {
	return &RepositoryError{
		Op:        op,
		Err:       err,
		Code:      code,
		Layer:     LayerStorage,
		Retryable: isRetryableError(code, err),
		Context:   make(map[string]string),
		Timestamp: time.Now(),
	}
}

// NewRepositoryErrorWithContext creates a storage-layer error with a copy of context
func NewRepositoryErrorWithContext(op string, err error, code ErrorCode, context map[string]string) *RepositoryError {
	repoErr := NewRepositoryError(op, err, code)
	for k, v := range context {
		repoErr.Context[k] = v
	}
	return repoErr
}

func isRetryableError(code ErrorCode, err error) bool {
	switch code {
	case ErrCodeConnection, ErrCodeTimeout, ErrCodeTransaction, ErrCodeBusy, ErrCodeUnavailable:
		return true
	case ErrCodeUnknown:
		if err == nil {
			return false
		}
		errStr := strings.ToLower(err.Error())
		return strings.Contains(errStr, "temporary") ||
			strings.Contains(errStr, "busy") ||
			strings.Contains(errStr, "locked") ||
			strings.Contains(errStr, "deadlock")
	default:
		// disk space and corruption need someone to intervene
		return false
	}
}

func asRepositoryError(err error) (*RepositoryError, bool) {
	var repoErr *RepositoryError
	if errors.As(err, &repoErr) && repoErr != nil {
		return repoErr, true
	}
	return nil, false
}

// HasCode reports whether err wraps a RepositoryError with the given code
func HasCode(err error, code ErrorCode) bool {
	repoErr, ok := asRepositoryError(err)
	return ok && repoErr.Code == code
}

func IsDuplicate(err error) bool  { return HasCode(err, ErrCodeDuplicate) }
func IsValidation(err error) bool { return HasCode(err, ErrCodeValidation) }

// IsAuth reports a rejected or missing credential
func IsAuth(err error) bool { return HasCode(err, ErrCodeAuth) }

// IsRetryable checks if the error is retryable
func IsRetryable(err error) bool {
	repoErr, ok := asRepositoryError(err)
	return ok && repoErr.Retryable
}

// IsTransient reports a remote failure that should be retried on a later pass:
// timeouts, refused connections and 5xx responses.
func IsTransient(err error) bool {
	repoErr, ok := asRepositoryError(err)
	if !ok || repoErr.Layer != LayerRemote {
		return false
	}
	switch repoErr.Code {
	case ErrCodeConnection, ErrCodeTimeout, ErrCodeUnavailable:
		return true
	}
	return false
}

// IsStorage reports a failure of the local journal. These are never recovered.
func IsStorage(err error) bool {
	repoErr, ok := asRepositoryError(err)
	if !ok || repoErr.layerOrDefault() != LayerStorage {
		return false
	}
	return repoErr.Code != ErrCodeValidation && repoErr.Code != ErrCodeNotFound
}
