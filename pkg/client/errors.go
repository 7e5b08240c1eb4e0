package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// APIError is a non-2xx backend response. Code is the backend's stable
// error identifier (e.g. "invalid_credentials"); Message is safe to show
// to a user.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error %d: %s", e.Status, e.Code)
	}
	return fmt.Sprintf("api error %d", e.Status)
}

// ErrNotAuthenticated is returned by calls that need a session when the
// client has none.
var ErrNotAuthenticated = errors.New("not authenticated")

func newAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if err != nil {
		return apiErr
	}

	var payload struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(body, &payload) == nil {
		apiErr.Code = payload.Error
	}
	apiErr.Message = userMessage(resp.StatusCode, apiErr.Code)
	return apiErr
}

// userMessage maps backend error codes to short, non-technical text.
func userMessage(status int, code string) string {
	switch code {
	case "invalid_credentials":
		return "Incorrect email or password."
	case "email_taken":
		return "That email address is already registered."
	case "permission_denied":
		return "You do not have permission to do that."
	case "authentication_required":
		return "Please sign in to continue."
	case "role_in_use":
		return "That role is still assigned to users."
	case "department_in_use":
		return "That department still has members."
	}
	if status >= 500 {
		return "Something went wrong. Please try again."
	}
	return "The request could not be completed."
}
