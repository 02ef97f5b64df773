package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Code identifies an application error kind.
type Code string

const (
	CodeClinicNotFound    Code = "CLINIC_NOT_FOUND"
	CodeServiceNotFound   Code = "SERVICE_NOT_FOUND"
	CodePatientNotFound   Code = "PATIENT_NOT_FOUND"
	CodeInvalidTimeSlot   Code = "INVALID_TIME_SLOT"
	CodeSlotAlreadyBooked Code = "SLOT_ALREADY_BOOKED"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeAccessDenied      Code = "ACCESS_DENIED"
	CodeEmailInUse        Code = "EMAIL_IN_USE"
	CodeInvalidTransition Code = "INVALID_TRANSITION"
	CodeBadRequest        Code = "BAD_REQUEST"
	CodeNotFound          Code = "NOT_FOUND"
	CodeInternal          Code = "INTERNAL"
)

// Error is an application error carrying a stable code, a caller-safe
// message and an optional wrapped cause. The cause is logged, never sent to
// the client.
type Error struct {
	Code    Code   `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// StatusCode maps the error code to an HTTP status.
func (e *Error) StatusCode() int {
	switch e.Code {
	case CodeClinicNotFound, CodeServiceNotFound, CodePatientNotFound, CodeNotFound:
		return http.StatusNotFound
	case CodeInvalidTimeSlot, CodeBadRequest:
		return http.StatusBadRequest
	case CodeSlotAlreadyBooked, CodeEmailInUse, CodeInvalidTransition:
		return http.StatusConflict
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeAccessDenied:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

func New(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func Wrap(code Code, message string, err error) *Error {
	return &Error{Code: code, Message: message, Err: err}
}

func ClinicNotFound() *Error {
	return New(CodeClinicNotFound, "clinic not found")
}

func ServiceNotFound() *Error {
	return New(CodeServiceNotFound, "service not found")
}

func PatientNotFound() *Error {
	return New(CodePatientNotFound, "patient not found")
}

func InvalidTimeSlot(slot string) *Error {
	return New(CodeInvalidTimeSlot, fmt.Sprintf("time %q is not a bookable slot", slot))
}

func SlotAlreadyBooked() *Error {
	return New(CodeSlotAlreadyBooked, "the selected slot is already booked")
}

func Unauthorized(message string) *Error {
	if message == "" {
		message = "unauthorized"
	}
	return New(CodeUnauthorized, message)
}

func AccessDenied(message string) *Error {
	if message == "" {
		message = "access denied"
	}
	return New(CodeAccessDenied, message)
}

func EmailInUse() *Error {
	return New(CodeEmailInUse, "email is already registered with another clinic")
}

func BadRequest(message string) *Error {
	return New(CodeBadRequest, message)
}

func NotFound(resource string) *Error {
	return New(CodeNotFound, fmt.Sprintf("%s not found", resource))
}

// Internal wraps an unexpected error without exposing its detail.
func Internal(err error) *Error {
	return Wrap(CodeInternal, "internal server error", err)
}

// Is reports whether err is an application error with the given code.
func Is(err error, code Code) bool {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

// From extracts an application error from err, or wraps err as internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}
