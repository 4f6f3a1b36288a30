package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrNotFound marks lookups for unknown games, releases, folders, or updates.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateGrab marks a grab attempt for a (game, release) pair that is
	// already pending or downloading.
	ErrDuplicateGrab = errors.New("duplicate grab")
	// ErrAdapterUnavailable marks timeouts and connection failures against the
	// indexer gateway, download client, or metadata provider.
	ErrAdapterUnavailable = errors.New("adapter unavailable")
	// ErrAmbiguousMatch marks auto-match outcomes with zero or multiple
	// high-confidence candidates.
	ErrAmbiguousMatch = errors.New("ambiguous match")
	// ErrInvalidState marks operations attempted against a record whose status
	// does not permit them.
	ErrInvalidState = errors.New("invalid state")
	// ErrValidation marks malformed requests rejected at the boundary.
	ErrValidation = errors.New("validation error")
)

// Wrap builds an error message with component context while tagging it with the
// provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrAdapterUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// HTTPStatus maps a classified error to the status code the API boundary
// should respond with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrDuplicateGrab), errors.Is(err, ErrInvalidState):
		return http.StatusConflict
	case errors.Is(err, ErrAmbiguousMatch):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrAdapterUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// IsRetryable reports whether an error should be recovered by skipping the
// current cycle and retrying on the next scheduled tick rather than failing
// any persisted record.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrAdapterUnavailable)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
