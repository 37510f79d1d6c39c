// Package errors provides the unified error taxonomy for the ledger substrate.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies the kind of failure, independent of its message.
type ErrorCode string

const (
	// Not-found
	ErrCodeRunNotFound     ErrorCode = "NOTFOUND_RUN"
	ErrCodeReleaseNotFound ErrorCode = "NOTFOUND_RELEASE"
	ErrCodeCommitNotFound  ErrorCode = "NOTFOUND_COMMIT"
	ErrCodeBranchNotFound  ErrorCode = "NOTFOUND_BRANCH"
	ErrCodeCasMissing      ErrorCode = "NOTFOUND_CAS"

	// State violations
	ErrCodeInvalidRunState  ErrorCode = "STATE_INVALID_RUN_STATE"
	ErrCodeNoPreviousRelease ErrorCode = "STATE_NO_PREVIOUS_RELEASE"
	ErrCodeDuplicateTool    ErrorCode = "STATE_DUPLICATE_TOOL"
	ErrCodeDependencyCycle  ErrorCode = "STATE_DEPENDENCY_CYCLE"

	// Integrity
	ErrCodeDigestMismatch      ErrorCode = "INTEGRITY_DIGEST_MISMATCH"
	ErrCodeInvalidCanonicalJSON ErrorCode = "INTEGRITY_INVALID_CANONICAL_JSON"
	ErrCodeInvalidDigest       ErrorCode = "INTEGRITY_INVALID_DIGEST"

	// Schema
	ErrCodeSchemaViolation ErrorCode = "SCHEMA_VIOLATION"

	// Policy
	ErrCodePolicyDenied       ErrorCode = "POLICY_DENIED"
	ErrCodeApprovalRequired   ErrorCode = "POLICY_APPROVAL_REQUIRED"
	ErrCodeUnauthorizedHandoff ErrorCode = "POLICY_UNAUTHORIZED_HANDOFF"

	// Execution
	ErrCodeTimeout       ErrorCode = "EXEC_TIMEOUT"
	ErrCodeCircuitOpen   ErrorCode = "EXEC_CIRCUIT_OPEN"
	ErrCodeAdapterFailure ErrorCode = "EXEC_ADAPTER_FAILURE"

	// Backend
	ErrCodeBackend       ErrorCode = "BACKEND_GENERIC"
	ErrCodeSerialization ErrorCode = "BACKEND_SERIALIZATION"
	ErrCodeIO            ErrorCode = "BACKEND_IO"
)

// ServiceError is a structured error carrying a stable Code, a human message,
// an optional wrapped cause, and an HTTP status for API-layer translation.
type ServiceError struct {
	Code       ErrorCode              `json:"code"`
	Message    string                 `json:"message"`
	HTTPStatus int                    `json:"-"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Err        error                  `json:"-"`
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *ServiceError) Unwrap() error { return e.Err }

func (e *ServiceError) WithDetails(key string, value interface{}) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func New(code ErrorCode, message string, httpStatus int) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: httpStatus}
}

func Wrap(code ErrorCode, message string, httpStatus int, err error) *ServiceError {
	return &ServiceError{Code: code, Message: message, HTTPStatus: httpStatus, Err: err}
}

// Not-found

func RunNotFound(runID string) *ServiceError {
	return New(ErrCodeRunNotFound, "run not found", http.StatusNotFound).WithDetails("run_id", runID)
}

func ReleaseNotFound(name string) *ServiceError {
	return New(ErrCodeReleaseNotFound, "release not found", http.StatusNotFound).WithDetails("name", name)
}

func CommitNotFound(id string) *ServiceError {
	return New(ErrCodeCommitNotFound, "commit not found", http.StatusNotFound).WithDetails("commit_id", id)
}

func BranchNotFound(name string) *ServiceError {
	return New(ErrCodeBranchNotFound, "branch not found", http.StatusNotFound).WithDetails("name", name)
}

func CasMissing(digest string) *ServiceError {
	return New(ErrCodeCasMissing, "blob not found", http.StatusNotFound).WithDetails("digest", digest)
}

// State violations

func InvalidRunState(runID, current, attempted string) *ServiceError {
	return New(ErrCodeInvalidRunState, "invalid run state transition", http.StatusConflict).
		WithDetails("run_id", runID).WithDetails("current", current).WithDetails("attempted", attempted)
}

func NoPreviousRelease(name string) *ServiceError {
	return New(ErrCodeNoPreviousRelease, "no previous release to roll back to", http.StatusConflict).
		WithDetails("name", name)
}

func DuplicateTool(name string) *ServiceError {
	return New(ErrCodeDuplicateTool, "duplicate tool registration", http.StatusConflict).WithDetails("tool", name)
}

func DependencyCycle(repos []string) *ServiceError {
	return New(ErrCodeDependencyCycle, "dependency cycle detected", http.StatusConflict).WithDetails("repos", repos)
}

// Integrity

func DigestMismatch(expected, actual string) *ServiceError {
	return New(ErrCodeDigestMismatch, "digest mismatch", http.StatusConflict).
		WithDetails("expected", expected).WithDetails("actual", actual)
}

func InvalidCanonicalJSON(reason string) *ServiceError {
	return New(ErrCodeInvalidCanonicalJSON, "value cannot be canonicalized: "+reason, http.StatusBadRequest)
}

func InvalidDigest(value string) *ServiceError {
	return New(ErrCodeInvalidDigest, "malformed content digest", http.StatusBadRequest).WithDetails("value", value)
}

// Schema

func SchemaViolation(toolName, stage, field string) *ServiceError {
	return New(ErrCodeSchemaViolation, "schema violation", http.StatusBadRequest).
		WithDetails("tool", toolName).WithDetails("stage", stage).WithDetails("field", field)
}

// Policy

func PolicyDenied(reason string) *ServiceError {
	return New(ErrCodePolicyDenied, "policy denied: "+reason, http.StatusForbidden)
}

func ApprovalRequired(reason string) *ServiceError {
	return New(ErrCodeApprovalRequired, "approval required: "+reason, http.StatusForbidden)
}

func UnauthorizedHandoff(from, to string) *ServiceError {
	return New(ErrCodeUnauthorizedHandoff, "unauthorized handoff", http.StatusForbidden).
		WithDetails("from", from).WithDetails("to", to)
}

// Execution

func Timeout(operation string) *ServiceError {
	return New(ErrCodeTimeout, "operation timed out", http.StatusGatewayTimeout).WithDetails("operation", operation)
}

func CircuitOpen(tool string) *ServiceError {
	return New(ErrCodeCircuitOpen, "circuit open", http.StatusServiceUnavailable).WithDetails("tool", tool)
}

func AdapterFailure(tool string, err error) *ServiceError {
	return Wrap(ErrCodeAdapterFailure, "adapter failure", http.StatusBadGateway, err).WithDetails("tool", tool)
}

// Backend

func Backend(message string, err error) *ServiceError {
	return Wrap(ErrCodeBackend, message, http.StatusInternalServerError, err)
}

func Serialization(err error) *ServiceError {
	return Wrap(ErrCodeSerialization, "serialization failed", http.StatusInternalServerError, err)
}

func IO(op string, err error) *ServiceError {
	return Wrap(ErrCodeIO, "io failure", http.StatusInternalServerError, err).WithDetails("op", op)
}

// Helpers

func IsServiceError(err error) bool {
	var serviceErr *ServiceError
	return errors.As(err, &serviceErr)
}

func GetServiceError(err error) *ServiceError {
	var serviceErr *ServiceError
	if errors.As(err, &serviceErr) {
		return serviceErr
	}
	return nil
}

func GetHTTPStatus(err error) int {
	if serviceErr := GetServiceError(err); serviceErr != nil {
		return serviceErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

// Is reports whether err is a ServiceError with the given code.
func Is(err error, code ErrorCode) bool {
	se := GetServiceError(err)
	return se != nil && se.Code == code
}
