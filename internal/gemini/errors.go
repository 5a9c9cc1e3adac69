package gemini

import (
	"errors"
	"fmt"
	"strings"

	"home-rugs-studio/internal/room"
)

var (
	// ErrCredentialInvalid marks failures caused by a missing, revoked or
	// rejected API key.
	ErrCredentialInvalid = room.ErrCredentialInvalid
	ErrNoImage           = errors.New("gemini: no image data found in response")
)

// APIError is a non-2xx reply from the generateContent endpoint.
type APIError struct {
	HTTPStatus int
	Code       int
	Status     string
	Reason     string
	Message    string
}

func (e *APIError) Error() string {
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("HTTP %d", e.HTTPStatus)
	}
	return fmt.Sprintf("gemini API %s: %s", status, e.Message)
}

// ContentError is returned when the model answered with text instead of an
// image. Text usually explains why.
type ContentError struct {
	Text string
}

func (e *ContentError) Error() string {
	return "generation failed: " + e.Text
}

type credentialError struct {
	err error
}

func (e *credentialError) Error() string {
	return ErrCredentialInvalid.Error() + ": " + e.err.Error()
}

func (e *credentialError) Unwrap() []error {
	return []error{ErrCredentialInvalid, e.err}
}

// classify wraps provider errors that mean "bad credential" so callers can
// detect them with errors.Is while keeping the original for errors.As.
func classify(err error, status string, reason string, message string) error {
	if isCredentialFailure(status, reason, message) {
		return &credentialError{err: err}
	}
	return err
}

func isCredentialFailure(status, reason, message string) bool {
	switch strings.ToUpper(status) {
	case "UNAUTHENTICATED", "PERMISSION_DENIED":
		return true
	}
	if strings.EqualFold(reason, "API_KEY_INVALID") {
		return true
	}
	if strings.Contains(message, "API key not valid") {
		return true
	}
	// Older provider builds report a revoked key only through this text.
	return strings.Contains(message, "Requested entity was not found")
}
