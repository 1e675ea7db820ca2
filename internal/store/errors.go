package store

import (
	"errors"
	"fmt"

	"github.com/vadimtrunov/cinebrowse/internal/metadata/tmdb"
)

// Op names a store operation.
type Op string

// Store operations.
const (
	OpListAll        Op = "list_all"
	OpListNowPlaying Op = "list_now_playing"
	OpListUpcoming   Op = "list_upcoming"
	OpListTopRated   Op = "list_top_rated"
	OpGetDetails     Op = "get_details"
	OpGetCredits     Op = "get_credits"
	OpListByGenre    Op = "list_by_genre"
	OpListGenres     Op = "list_genres"
	OpSearchByTitle  Op = "search_by_title"
)

// OpError is returned by every failed store operation.
//
// Payload is the remote error body exactly as the API sent it, or nil when
// the failure never produced a response (network error, bad JSON).
type OpError struct {
	Op      Op
	Payload []byte
	Err     error
}

func newOpError(op Op, err error) *OpError {
	e := &OpError{Op: op, Err: err}
	var apiErr *tmdb.APIError
	if errors.As(err, &apiErr) {
		e.Payload = apiErr.Body
	}
	return e
}

// Error implements the error interface.
func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *OpError) Unwrap() error {
	return e.Err
}

// HasPayload reports whether the remote side supplied an error body.
func (e *OpError) HasPayload() bool {
	return len(e.Payload) > 0
}

// Describe renders err for people: the remote status message when the API
// answered with an error, otherwise the error text.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *tmdb.APIError
	if errors.As(err, &apiErr) {
		return fmt.Sprintf("%s (HTTP %d)", apiErr.StatusMessage(), apiErr.StatusCode)
	}
	return err.Error()
}
