package search

import (
	"errors"
	"fmt"
)

var (
	// ErrBlocked is matched by every *BlockedError.
	ErrBlocked = errors.New("search: upstream blocked the request")

	// ErrInvalidRank is returned for ranks below 1.
	ErrInvalidRank = errors.New("search: rank must be a positive integer")

	// ErrInvalidPageIndex is returned for page indices below 1.
	ErrInvalidPageIndex = errors.New("search: page index must be a positive integer")
)

// ConfigError reports an option value that has no encoding on the wire.
// Conflicting options are not errors; they are resolved by precedence.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("search: invalid %s: %s", e.Field, e.Reason)
}

// TransportError wraps a failed fetch. StatusCode is zero when no response
// was received.
type TransportError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("search: fetch %s: unexpected status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("search: fetch %s: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BlockedError is returned when a fetched document is recognised as a block
// or challenge page rather than a result page.
type BlockedError struct {
	URL    string
	Source string // e.g. "Google", "Cloudflare"
}

func (e *BlockedError) Error() string {
	return fmt.Sprintf("search: %s blocked request for %s", e.Source, e.URL)
}

func (e *BlockedError) Is(target error) bool {
	return target == ErrBlocked
}
