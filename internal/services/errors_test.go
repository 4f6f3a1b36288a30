package services

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesMarkerAndCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrAdapterUnavailable, "downloader", "list", "client unreachable", cause)
	if !errors.Is(err, ErrAdapterUnavailable) {
		t.Fatalf("expected marker to survive wrapping: %v", err)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected cause to survive wrapping: %v", err)
	}
}

func TestWrapNilMarkerDefaultsToAdapterUnavailable(t *testing.T) {
	err := Wrap(nil, "indexer", "search", "", nil)
	if !errors.Is(err, ErrAdapterUnavailable) {
		t.Fatalf("expected default marker, got %v", err)
	}
}

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{ErrNotFound, http.StatusNotFound},
		{ErrDuplicateGrab, http.StatusConflict},
		{ErrInvalidState, http.StatusConflict},
		{ErrAmbiguousMatch, http.StatusUnprocessableEntity},
		{ErrValidation, http.StatusBadRequest},
		{ErrAdapterUnavailable, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
		{fmt.Errorf("wrapped: %w", ErrNotFound), http.StatusNotFound},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(Wrap(ErrAdapterUnavailable, "indexer", "search", "", nil)) {
		t.Fatal("adapter failures should be retryable")
	}
	if IsRetryable(ErrNotFound) {
		t.Fatal("not-found should not be retryable")
	}
}
