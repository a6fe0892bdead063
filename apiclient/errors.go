package apiclient

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jrsteele09/pgportal/internal/errors"
)

// Error is a non-2xx answer from the API.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("api error: %d %s", e.Status, e.Message)
}

func (e *Error) StatusCode() int {
	return e.Status
}

// codeErrors are the API error codes that carry a more specific sentinel than
// their status.
var codeErrors = map[string]error{
	"INVALID_CREDENTIALS": errors.ErrInvalidCredentials,
	"TENANT_SUSPENDED":    errors.ErrTenantSuspended,
	"TENANT_NOT_FOUND":    errors.ErrTenantNotFound,
}

// Unwrap maps the status, and the code where it is more specific, onto the
// shared sentinels so callers can use errors.Is.
func (e *Error) Unwrap() []error {
	var errs []error
	switch e.Status {
	case http.StatusUnauthorized:
		errs = append(errs, errors.ErrNotAuthenticated)
	case http.StatusForbidden:
		errs = append(errs, errors.ErrForbidden)
	case http.StatusNotFound:
		errs = append(errs, errors.ErrNotFound)
	case http.StatusConflict:
		errs = append(errs, errors.ErrConflict)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		errs = append(errs, errors.ErrValidation)
	}
	if err, ok := codeErrors[e.Code]; ok {
		errs = append(errs, err)
	}
	return errs
}

// errorBody is the error envelope the API answers with. Some handlers send
// message as a list of validation messages.
type errorBody struct {
	Code    string          `json:"code"`
	Error   string          `json:"error"`
	Message json.RawMessage `json:"message"`
}

func newError(resp *Response) *Error {
	e := &Error{Status: resp.StatusCode}

	var body errorBody
	if err := json.Unmarshal(resp.Body, &body); err != nil {
		e.Message = strings.TrimSpace(string(resp.Body))
		return e
	}
	e.Code = body.Code

	var msg string
	var msgs []string
	switch {
	case json.Unmarshal(body.Message, &msg) == nil:
		e.Message = msg
	case json.Unmarshal(body.Message, &msgs) == nil:
		e.Message = strings.Join(msgs, "; ")
	default:
		e.Message = body.Error
	}
	return e
}

var friendlyMessages = map[string]string{
	"INVALID_CREDENTIALS":  "Incorrect email or password.",
	"USER_NOT_FOUND":       "No account exists for that email address.",
	"EMAIL_TAKEN":          "An account with this email already exists.",
	"TENANT_NOT_FOUND":     "We could not find that organisation. Check the address and try again.",
	"TENANT_SLUG_TAKEN":    "That organisation address is already in use.",
	"TENANT_SUSPENDED":     "This organisation has been suspended. Contact support.",
	"WEAK_PASSWORD":        "Password is too weak.",
	"SESSION_EXPIRED":      "Your session has expired. Please sign in again.",
	"FORBIDDEN":            "You do not have permission to do that.",
	"FEATURE_DISABLED":     "This feature is not enabled for your account.",
	"VALIDATION_FAILED":    "Some fields are invalid. Check the form and try again.",
	"RATE_LIMITED":         "Too many attempts. Wait a moment and try again.",
	"INTERNAL_ERROR":       "Something went wrong on our side. Please try again.",
	"SERVICE_UNAVAILABLE":  "The service is temporarily unavailable.",
	"REFRESH_TOKEN_REUSED": "Your session has expired. Please sign in again.",
}

// FriendlyMessage turns err into text suitable for an end user. Known API
// error codes map through a fixed table; otherwise the server message is used.
func FriendlyMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, errors.ErrSessionExpired) {
		return friendlyMessages["SESSION_EXPIRED"]
	}
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		return err.Error()
	}
	if msg, ok := friendlyMessages[apiErr.Code]; ok {
		return msg
	}
	if apiErr.Message != "" {
		return apiErr.Message
	}
	if apiErr.Status >= http.StatusInternalServerError {
		return friendlyMessages["INTERNAL_ERROR"]
	}
	return http.StatusText(apiErr.Status)
}
