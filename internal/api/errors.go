package api

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery is returned when a search is issued without text
	ErrEmptyQuery = errors.New("search query is empty")
	// ErrInvalidPage is returned for page numbers below 1
	ErrInvalidPage = errors.New("page must be >= 1")
)

// NetworkFailure is the only error kind the Flickr client reports for a
// request that reached (or tried to reach) the network. StatusCode is 0 for
// transport errors such as timeouts, DNS failures and connection resets.
type NetworkFailure struct {
	StatusCode int
	Err        error
}

func (e *NetworkFailure) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("network failure: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("network failure: %v", e.Err)
}

func (e *NetworkFailure) Unwrap() error {
	return e.Err
}

// IsNetworkFailure reports whether err is or wraps a NetworkFailure
func IsNetworkFailure(err error) bool {
	var nf *NetworkFailure
	return errors.As(err, &nf)
}
