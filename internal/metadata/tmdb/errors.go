package tmdb

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a non-2xx response from TMDb. Body holds the response body
// exactly as received.
type APIError struct {
	StatusCode int
	Body       []byte
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if msg := e.StatusMessage(); msg != "" {
		return fmt.Sprintf("tmdb API error %d: %s", e.StatusCode, msg)
	}
	return fmt.Sprintf("tmdb API error %d", e.StatusCode)
}

// StatusMessage extracts a human-readable message from the error body.
// TMDb uses status_message; proxies and rate limiters often use message.
func (e *APIError) StatusMessage() string {
	var body struct {
		StatusMessage string `json:"status_message"`
		Message       string `json:"message"`
	}
	if err := json.Unmarshal(e.Body, &body); err != nil {
		return http.StatusText(e.StatusCode)
	}
	if body.StatusMessage != "" {
		return body.StatusMessage
	}
	if body.Message != "" {
		return body.Message
	}
	return http.StatusText(e.StatusCode)
}

// IsNotFound checks if the error indicates a not found response
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized checks if the error indicates an authentication failure
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}
