package apiclient

import (
	"errors"
	"fmt"
)

// ErrTimeout matches a TransportError whose attempt was cut off by the
// per-attempt timeout.
var ErrTimeout = errors.New("request attempt timed out")

// TransportError describes one failed HTTP attempt: a network error, a
// timeout or a non-2xx response.
type TransportError struct {
	Method     string
	URL        string
	StatusCode int
	Attempt    int
	Err        error
	timeout    bool
}

func (e *TransportError) Error() string {
	switch {
	case e.timeout:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, ErrTimeout)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s %s: %s", e.Method, e.URL, StatusText(e.StatusCode))
	default:
		return fmt.Sprintf("%s %s: %v", e.Method, e.URL, e.Err)
	}
}

// StatusText is how a non-2xx answer is reported to the operator.
func StatusText(code int) string {
	return fmt.Sprintf("erro HTTP: %d", code)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Timeout() bool { return e.timeout }

func (e *TransportError) Is(target error) bool {
	return target == ErrTimeout && e.timeout
}

// NotFoundError is returned when a lookup by domain id, or by name when Name
// is set, matches no record.
type NotFoundError struct {
	Collection string
	Entity     string
	ID         int
	Name       string
}

func (e *NotFoundError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s com nome %s não encontrado", e.Entity, e.Name)
	}
	return fmt.Sprintf("%s com ID %d não encontrado", e.Entity, e.ID)
}

// IsNotFound reports whether err, or anything it wraps, is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
