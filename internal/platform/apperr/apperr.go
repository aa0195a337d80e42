// Package apperr defines the error taxonomy shared by the domain services.
// Handlers translate these into HTTP responses; none of them is fatal.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrInvalidTransition is returned when an illegal state change is
	// attempted on a bed or an admission.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrBedUnavailable is returned when the requested bed is not in an
	// assignable state. Lost compare-and-set races surface as this error so
	// callers can retry with a different bed.
	ErrBedUnavailable = errors.New("bed unavailable")

	// ErrInactiveResource is returned for operations on a deactivated
	// bed, room, or ward.
	ErrInactiveResource = errors.New("resource is inactive")

	// ErrNotAuthorized is returned when a capability check fails, e.g. a
	// non-participant trying to join a telemedicine call.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound is returned when a referenced entity does not exist.
	ErrNotFound = errors.New("not found")
)

// Wrap annotates err with a message while preserving its identity for
// errors.Is checks.
func Wrap(err error, format string, args ...interface{}) error {
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// HTTPStatus maps a domain error to the HTTP status code handlers should
// respond with. Unknown errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, ErrInactiveResource):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrBedUnavailable):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
