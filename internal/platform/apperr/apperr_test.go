package apperr

import (
	"errors"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{ErrNotAuthorized, http.StatusForbidden},
		{ErrInactiveResource, http.StatusUnprocessableEntity},
		{ErrInvalidTransition, http.StatusConflict},
		{ErrBedUnavailable, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := HTTPStatus(tc.err); got != tc.want {
			t.Errorf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestWrapPreservesIdentity(t *testing.T) {
	err := Wrap(ErrBedUnavailable, "occupy bed %s", "B-101")
	if !errors.Is(err, ErrBedUnavailable) {
		t.Error("wrapped error lost identity")
	}
	if HTTPStatus(err) != http.StatusConflict {
		t.Error("wrapped error should map to 409")
	}
}
