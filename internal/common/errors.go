package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Acquisition errors: terminal for the call that raised them.
var (
	ErrInvalidImage    = errors.New("invalid image")
	ErrInvalidDocument = errors.New("invalid document")
	ErrFileTooLarge    = errors.New("file too large")
	ErrNoTextFound     = errors.New("no text found")
)

// ErrProcessingFailed wraps a text-recognition engine failure. Raised per page;
// the document loop absorbs it and continues with the next page.
var ErrProcessingFailed = errors.New("processing failed")

// NewAppError builds an AppError with the given code, message and cause.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapError annotates err with a message, passing nil through.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
