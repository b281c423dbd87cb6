package util

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Envelope selects the JSON body shape used when a DomainError is rendered.
type Envelope int

const (
	// EnvelopeDetail renders {"detail": ...}, the framework-level shape.
	EnvelopeDetail Envelope = iota
	// EnvelopeStatus renders {"status": "invalid", "message": ...}.
	EnvelopeStatus
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Envelope   Envelope
	Details    any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Body returns the JSON document written for the error.
func (e *DomainError) Body() fiber.Map {
	if e.Envelope == EnvelopeStatus {
		return fiber.Map{"status": "invalid", "message": e.Message}
	}
	if e.Details != nil {
		return fiber.Map{"detail": e.Details}
	}
	return fiber.Map{"detail": e.Message}
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, envelope Envelope) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Envelope: envelope}
}

// NewUnauthenticated is returned when no usable bearer credential was presented.
func NewUnauthenticated() error {
	return NewDomainError("UNAUTHENTICATED", "Not authenticated", http.StatusForbidden, EnvelopeDetail)
}

func NewTokenExpired(err error) error {
	de := NewDomainError("TOKEN_EXPIRED", "Token has expired", http.StatusUnauthorized, EnvelopeStatus)
	de.Err = err
	return de
}

func NewTokenInvalid(err error) error {
	de := NewDomainError("TOKEN_INVALID", "Invalid token", http.StatusUnauthorized, EnvelopeStatus)
	de.Err = err
	return de
}

// NewUpstreamUnavailable wraps a failed device lookup; the cause is part of the message.
func NewUpstreamUnavailable(err error) error {
	return &DomainError{
		Code:       "UPSTREAM_UNAVAILABLE",
		Message:    fmt.Sprintf("Error fetching IMEI details: %v", err),
		HTTPStatus: http.StatusServiceUnavailable,
		Envelope:   EnvelopeStatus,
		Err:        err,
	}
}

// NewMissingQuery reports a required query parameter that was not sent.
func NewMissingQuery(name string) error {
	return &DomainError{
		Code:       "VALIDATION_FAILED",
		Message:    fmt.Sprintf("query parameter %s is required", name),
		HTTPStatus: http.StatusUnprocessableEntity,
		Details: []fiber.Map{{
			"loc":  []string{"query", name},
			"msg":  "field required",
			"type": "value_error.missing",
		}},
	}
}

func NewNotFound(message string) error {
	return NewDomainError("NOT_FOUND", message, http.StatusNotFound, EnvelopeDetail)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "Internal Server Error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code := "HTTP_ERROR"
		if fiberErr.Code == http.StatusNotFound {
			code = "NOT_FOUND"
		}
		return &DomainError{Code: code, Message: fiberErr.Message, HTTPStatus: fiberErr.Code, Err: err}
	}
	return &DomainError{
		Code:       "INTERNAL_ERROR",
		Message:    "Internal Server Error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}
