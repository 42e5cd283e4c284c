// Package apperr is the error taxonomy shared by every service.
package apperr

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/aldoetobex/glojourn-backend/pkg/models"
)

// Kinds. Check with errors.Is.
var (
	ErrNotFound   = errors.New("not found")
	ErrForbidden  = errors.New("forbidden")
	ErrValidation = errors.New("validation failed")
	ErrStorage    = errors.New("storage error")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")
)

// Error carries a kind plus what the caller needs to render it.
type Error struct {
	Kind             error
	Err              error
	Message          string
	Code             string
	HTTPStatus       int
	Details          map[string]string
	MissingDocuments []models.DocumentType
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Is lets errors.Is match on the kind sentinel.
func (e *Error) Is(target error) bool { return e.Kind == target }

func (e *Error) Unwrap() error { return e.Err }

func NotFound(resource string) *Error {
	return &Error{
		Kind:       ErrNotFound,
		Message:    resource + " not found",
		Code:       "NOT_FOUND",
		HTTPStatus: http.StatusNotFound,
		Details:    map[string]string{"resource": resource},
	}
}

func Forbidden(message string) *Error {
	return &Error{
		Kind:       ErrForbidden,
		Message:    message,
		Code:       "FORBIDDEN",
		HTTPStatus: http.StatusForbidden,
	}
}

func Validation(message string) *Error {
	return &Error{
		Kind:       ErrValidation,
		Message:    message,
		Code:       "VALIDATION_FAILED",
		HTTPStatus: http.StatusBadRequest,
	}
}

// MissingDocuments is a validation failure listing the absent required types.
func MissingDocuments(missing []models.DocumentType) *Error {
	return &Error{
		Kind:             ErrValidation,
		Message:          "Cannot change status: required documents are missing",
		Code:             "MISSING_DOCUMENTS",
		HTTPStatus:       http.StatusBadRequest,
		MissingDocuments: missing,
	}
}

func Conflict(message string) *Error {
	return &Error{
		Kind:       ErrConflict,
		Message:    message,
		Code:       "CONFLICT",
		HTTPStatus: http.StatusConflict,
	}
}

func Storage(err error) *Error {
	return &Error{
		Kind:       ErrStorage,
		Err:        err,
		Message:    "storage operation failed",
		Code:       "STORAGE_ERROR",
		HTTPStatus: http.StatusBadGateway,
	}
}

func Internal(err error) *Error {
	return &Error{
		Kind:       ErrInternal,
		Err:        err,
		Message:    "internal server error",
		Code:       "INTERNAL_ERROR",
		HTTPStatus: http.StatusInternalServerError,
	}
}

// As unwraps err into an *Error when it is one.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
