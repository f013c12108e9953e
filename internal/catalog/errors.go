package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidParams is returned when arguments are rejected before any request is made.
var ErrInvalidParams = errors.New("invalid parameters")

// APIError is a non-2xx response from TMDb.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tmdb API error %d", e.StatusCode)
	}
	return fmt.Sprintf("tmdb API error %d: %s", e.StatusCode, e.Message)
}

// newAPIError builds an APIError from a response body, preferring TMDb's
// status_message over the raw body.
func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		StatusMessage string `json:"status_message"`
	}
	msg := string(body)
	if err := json.Unmarshal(body, &payload); err == nil && payload.StatusMessage != "" {
		msg = payload.StatusMessage
	}
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return &APIError{StatusCode: status, Message: msg}
}
