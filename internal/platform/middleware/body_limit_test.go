package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func runBodyLimit(t *testing.T, mw echo.MiddlewareFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := mw(func(c echo.Context) error {
		// Drain the body so the limiting reader is exercised even without
		// a Content-Length header.
		buf := new(bytes.Buffer)
		if _, err := buf.ReadFrom(c.Request().Body); err != nil {
			return err
		}
		return c.String(http.StatusOK, "ok")
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	return rec
}

func TestBodyLimit_AllowsSmallBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(`{"first_name":"A"}`))
	req.Header.Set("Content-Type", "application/json")

	rec := runBodyLimit(t, BodyLimit("1M"), req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestBodyLimit_RejectsOversizeContentLength(t *testing.T) {
	largeBody := bytes.Repeat([]byte("x"), 2<<10)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", bytes.NewReader(largeBody))
	req.Header.Set("Content-Type", "application/json")

	rec := runBodyLimit(t, BodyLimit("1K"), req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestBodyLimit_RejectsOversizeStreamWithoutContentLength(t *testing.T) {
	largeBody := bytes.Repeat([]byte("x"), 2<<10)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", bytes.NewReader(largeBody))
	req.ContentLength = -1

	rec := runBodyLimit(t, BodyLimit("1K"), req)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestBodyLimit_SkipsEmptyBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients", nil)

	rec := runBodyLimit(t, BodyLimit("1K"), req)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestParseLimit(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1K", 1 << 10},
		{"1M", 1 << 20},
		{"2M", 2 << 20},
		{"1G", 1 << 30},
		{"512", 512},
		{"", 1 << 20},
		{"bogus", 1 << 20},
	}
	for _, tc := range cases {
		if got := parseLimit(tc.in); got != tc.want {
			t.Errorf("parseLimit(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
