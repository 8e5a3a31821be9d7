package errors

import (
	"errors"
	"fmt"
)

// Exit codes for fleet-monitor
const (
	ExitSuccess            = 0
	ExitGeneralError       = 1
	ExitConfigError        = 2
	ExitInventoryError     = 3
	ExitReportError        = 4
	ExitInvestigationFound = 5
)

// AppError is a failure that terminates the run.
type AppError struct {
	Code    int
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// New creates a new AppError
func New(code int, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// Wrap wraps an existing error with an AppError
func Wrap(code int, message string, cause error) *AppError {
	return &AppError{Code: code, Message: message, Cause: cause}
}

// ConfigError returns an error for missing or malformed engine configuration.
func ConfigError(message string, cause error) *AppError {
	return Wrap(ExitConfigError, message, cause)
}

// InventoryError returns an error for a missing or malformed fleet inventory.
func InventoryError(message string, cause error) *AppError {
	return Wrap(ExitInventoryError, message, cause)
}

// ReportError returns an error for a reporting sink that could not publish.
func ReportError(message string, cause error) *AppError {
	return Wrap(ExitReportError, message, cause)
}

// InvestigationNeeded signals that the sweep finished but at least one host failed.
func InvestigationNeeded(hosts []string) *AppError {
	return New(ExitInvestigationFound, fmt.Sprintf("investigation needed on %d host(s): %v", len(hosts), hosts))
}

// ExitCode extracts the exit code from an error. A nil error exits cleanly.
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ExitGeneralError
}
