package dto

import "github.com/spec-kit/imei-service/internal/domain"

// Check statuses.
const (
	StatusValid   = "valid"
	StatusInvalid = "invalid"
)

// InvalidIMEIResponse is the 200 body for input that failed validation. IMEI echoes the
// raw query value, even when it is empty.
type InvalidIMEIResponse struct {
	Status  string `json:"status"`
	IMEI    string `json:"imei"`
	Message string `json:"message"`
}

// ValidIMEIResponse is the 200 body for a completed lookup. User is null for a token
// without a subject and Details is the upstream payload as received.
type ValidIMEIResponse struct {
	Status  string               `json:"status"`
	IMEI    string               `json:"imei"`
	Message string               `json:"message"`
	User    *string              `json:"user"`
	Details domain.LookupDetails `json:"details"`
}

// CheckResponse decodes any body GET /api/check-imei can return: the two success shapes,
// the status envelope of auth and upstream failures, and framework-level {"detail": ...}.
type CheckResponse struct {
	Status  string               `json:"status,omitempty"`
	IMEI    string               `json:"imei,omitempty"`
	Message string               `json:"message,omitempty"`
	User    string               `json:"user,omitempty"`
	Details domain.LookupDetails `json:"details,omitempty"`
	Detail  any                  `json:"detail,omitempty"`
}
