package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Kind groups errors by how the portal reacts to them.
type Kind string

const (
	KindAuthentication Kind = "authentication"
	KindNetwork        Kind = "network"
	KindServer         Kind = "server"
	KindValidation     Kind = "validation"
	KindInternal       Kind = "internal"
)

type APIError struct {
	Kind       Kind              `json:"-"`
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    string            `json:"details,omitempty"`
	Fields     map[string]string `json:"fields,omitempty"`
	HTTPStatus int               `json:"-"`
	cause      error
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}

	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

func New(code string, message string, details string, status int) *APIError {
	return &APIError{Kind: kindForStatus(status), Code: code, Message: message, Details: details, HTTPStatus: status}
}

// Authentication reports rejected credentials or an unusable bearer token.
// message is what the user should see.
func Authentication(message string) *APIError {
	if strings.TrimSpace(message) == "" {
		message = "invalid credentials"
	}
	return &APIError{Kind: KindAuthentication, Code: "UNAUTHORIZED", Message: message, HTTPStatus: http.StatusUnauthorized}
}

// Network wraps a transport failure talking to the upstream API.
func Network(endpoint string, cause error) *APIError {
	return &APIError{
		Kind:       KindNetwork,
		Code:       "UPSTREAM_UNREACHABLE",
		Message:    "the FPC service could not be reached",
		Details:    endpoint,
		HTTPStatus: http.StatusBadGateway,
		cause:      cause,
	}
}

// Server reports a non-2xx upstream response.
func Server(endpoint string, status int, detail string) *APIError {
	message := strings.TrimSpace(detail)
	if message == "" {
		message = fmt.Sprintf("the FPC service answered %d", status)
	}
	return &APIError{
		Kind:       KindServer,
		Code:       "UPSTREAM_ERROR",
		Message:    message,
		Details:    endpoint,
		HTTPStatus: upstreamStatus(status),
	}
}

// Validation carries per-field messages that block a submission.
func Validation(fields map[string]string) *APIError {
	return &APIError{
		Kind:       KindValidation,
		Code:       "VALIDATION_FAILED",
		Message:    "please correct the highlighted fields",
		Details:    strings.Join(sortedKeys(fields), ","),
		Fields:     fields,
		HTTPStatus: http.StatusUnprocessableEntity,
	}
}

// IsKind reports whether err is an *APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Kind == kind
}

// FieldErrors returns the per-field messages of a validation error, or nil.
func FieldErrors(err error) map[string]string {
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Kind != KindValidation {
		return nil
	}
	return apiErr.Fields
}

// UserMessage is the text safe to put in front of a user.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "unexpected error"
}

func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthentication
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return KindValidation
	case status >= 500:
		return KindServer
	default:
		return KindInternal
	}
}

func upstreamStatus(status int) int {
	if status >= 500 {
		return http.StatusBadGateway
	}
	if status >= 400 {
		return status
	}
	return http.StatusBadGateway
}

func sortedKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
