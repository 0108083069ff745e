package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/usestring/devtools-mcp/internal/logging"
	"github.com/usestring/devtools-mcp/internal/runner"
	"github.com/usestring/devtools-mcp/internal/schema"
	"github.com/usestring/devtools-mcp/pkg/compaction"
)

// Error codes for MCP tool responses. The first group reports a CLI that
// could not do its job; the second reports a defect in this server.
const (
	ErrCodeCLINotFound  = "CLI_NOT_FOUND"
	ErrCodeCLIFailed    = "CLI_FAILED"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeToolDisabled = "TOOL_DISABLED"

	ErrCodeSchemaViolation  = "SCHEMA_VIOLATION"
	ErrCodeEstimatorAnomaly = "ESTIMATOR_ANOMALY"
	ErrCodeInternal         = "INTERNAL"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapCLIError converts a runner or parser error into a coded error.
func WrapCLIError(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}

	switch {
	case errors.Is(err, runner.ErrFlagInjection):
		coded = &CodedError{Code: ErrCodeInvalidInput, Message: "argument rejected", Cause: err}
	case errors.Is(err, runner.ErrNotFound):
		coded = &CodedError{Code: ErrCodeCLINotFound, Message: "executable not found", Cause: err}
	case errors.Is(err, runner.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		coded = &CodedError{Code: ErrCodeTimeout, Message: "command timed out", Cause: err}
	case errors.Is(err, runner.ErrUnexpectedOutput):
		coded = &CodedError{Code: ErrCodeCLIFailed, Message: "could not parse command output", Cause: err}
	case errors.Is(err, runner.ErrFailed):
		coded = &CodedError{Code: ErrCodeCLIFailed, Message: "command failed", Cause: err}
	default:
		coded = &CodedError{Code: ErrCodeCLIFailed, Message: err.Error(), Cause: err}
	}

	logging.FromContext(ctx).Warn("cli error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
		slog.String("error", err.Error()),
	)
	return coded
}

// wrapShapeError converts a compaction or validation failure into a coded
// error. Both are defects of this server and are logged at error level.
func wrapShapeError(ctx context.Context, tool string, err error) error {
	var coded *CodedError
	switch {
	case schema.IsViolation(err):
		coded = &CodedError{Code: ErrCodeSchemaViolation, Message: "payload does not match its declared schema", Cause: err}
	case errors.Is(err, compaction.ErrEstimatorAnomaly):
		coded = &CodedError{Code: ErrCodeEstimatorAnomaly, Message: "payload size could not be estimated", Cause: err}
	default:
		coded = &CodedError{Code: ErrCodeInternal, Message: "could not build response", Cause: err}
	}
	logging.FromContext(ctx).Error("response rejected",
		slog.String("tool", tool),
		slog.String("code", coded.Code),
		slog.String("error", err.Error()),
	)
	return coded
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}

// ErrToolDisabled reports a call to a tool the policy turned off.
func ErrToolDisabled(name string) error {
	return &CodedError{
		Code:    ErrCodeToolDisabled,
		Message: fmt.Sprintf("tool %s is disabled by configuration", name),
	}
}
