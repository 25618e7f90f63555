package enrollapi

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrTransport = errors.New("enrollment api unreachable")
	ErrDecode    = errors.New("unexpected enrollment api response")
)

// StatusError reports a non-2xx answer from the enrollment API.
type StatusError struct {
	Op     string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d %s", e.Op, e.Status, http.StatusText(e.Status))
}

// IsStatus reports whether err carries the given HTTP status.
func IsStatus(err error, status int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Status == status
}
