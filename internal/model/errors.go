package model

import (
	"errors"
	"fmt"
)

// Error codes for bill preparation and rendering
const (
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeMalformedInput      = "MALFORMED_INPUT"
	ErrCodeUnknownDocumentType = "UNKNOWN_DOCUMENT_TYPE"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeTemplateNotFound    = "TEMPLATE_NOT_FOUND"
	ErrCodeRender              = "RENDER_ERROR"
)

// Sentinels for errors.Is. Any *BillError with the same code matches.
var (
	ErrInvalidInput        = &BillError{Code: ErrCodeInvalidInput, Message: "invalid input"}
	ErrMalformedInput      = &BillError{Code: ErrCodeMalformedInput, Message: "malformed input"}
	ErrUnknownDocumentType = &BillError{Code: ErrCodeUnknownDocumentType, Message: "unknown document type"}
	ErrMissingField        = &BillError{Code: ErrCodeMissingField, Message: "missing field"}
	ErrTemplateNotFound    = &BillError{Code: ErrCodeTemplateNotFound, Message: "template not found"}
	ErrRender              = &BillError{Code: ErrCodeRender, Message: "render failed"}
)

// BillError represents a failure while preparing or rendering a bill
type BillError struct {
	Code    string
	Field   string
	Message string
	Cause   error
}

func (e *BillError) Error() string {
	if e.Field != "" && e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %s (%v)", e.Code, e.Field, e.Message, e.Cause)
	}
	if e.Field != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s (%v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *BillError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a *BillError carrying the same code
func (e *BillError) Is(target error) bool {
	var t *BillError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewBillError creates a new bill error
func NewBillError(code, field, message string, cause error) *BillError {
	return &BillError{
		Code:    code,
		Field:   field,
		Message: message,
		Cause:   cause,
	}
}

// Code extracts the error code from err, or "" when err is not a *BillError
func Code(err error) string {
	var be *BillError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

// Common error constructors

// NewInvalidInputError returns error for input the check digit cannot be computed over
func NewInvalidInputError(field, message string) *BillError {
	return NewBillError(ErrCodeInvalidInput, field, message, nil)
}

// NewMalformedInputError returns error when bill data fails to parse
func NewMalformedInputError(message string, cause error) *BillError {
	return NewBillError(ErrCodeMalformedInput, "", message, cause)
}

// NewUnknownDocumentTypeError returns error when a cbte_tipo code is not registered
func NewUnknownDocumentTypeError(code string) *BillError {
	return NewBillError(ErrCodeUnknownDocumentType, "cbte_tipo", fmt.Sprintf("unknown document type %q", code), nil)
}

// NewMissingFieldError returns error when a required field is absent
func NewMissingFieldError(field string) *BillError {
	return NewBillError(ErrCodeMissingField, field, "required field is missing", nil)
}

// NewTemplateNotFoundError returns error when no template backs an identifier
func NewTemplateNotFoundError(id string, cause error) *BillError {
	return NewBillError(ErrCodeTemplateNotFound, "", fmt.Sprintf("template not found: %s", id), cause)
}

// NewRenderError returns error when the PDF backend fails
func NewRenderError(backend, message string, cause error) *BillError {
	return NewBillError(ErrCodeRender, backend, message, cause)
}
