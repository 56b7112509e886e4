package fetch

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced to the import runner for user messaging.
var (
	ErrInvalidURL       = errors.New("invalid URL")
	ErrDisallowedScheme = errors.New("disallowed URL scheme")
	ErrDisallowedHost   = errors.New("disallowed host")
	ErrTooManyRedirects = errors.New("too many redirects")
	ErrBodyTooLarge     = errors.New("response body too large")
)

// HTTPStatusError reports a non-success upstream status so later user
// messaging can reference it.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d", e.StatusCode)
}

// StatusFromError extracts the HTTP status carried by err, if any.
func StatusFromError(err error) (int, bool) {
	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode, true
	}
	return 0, false
}
