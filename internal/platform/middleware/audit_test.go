package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/laso/hms/internal/platform/auth"
)

func TestAudit_RecordsAPIAccess(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/admissions/abc/transfer", nil)

	ctx := context.WithValue(req.Context(), auth.UserIDKey, "doc-1")
	ctx = context.WithValue(ctx, auth.UserRolesKey, []string{"doctor"})
	req = req.WithContext(ctx)

	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "req-abc")

	var entry AuditEntry
	recorder := AuditRecorderFunc(func(ae AuditEntry) error {
		entry = ae
		return nil
	})

	mw := Audit(zerolog.Nop(), recorder)
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if entry.UserID != "doc-1" {
		t.Errorf("expected user doc-1, got %q", entry.UserID)
	}
	if entry.Resource != "admissions" {
		t.Errorf("expected resource admissions, got %q", entry.Resource)
	}
	if entry.Action != "create" {
		t.Errorf("expected action create, got %q", entry.Action)
	}
	if entry.RequestID != "req-abc" {
		t.Errorf("expected request_id 'req-abc', got %q", entry.RequestID)
	}
}

func TestAudit_SkipsNonAPIPaths(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	recorder := AuditRecorderFunc(func(AuditEntry) error {
		called = true
		return nil
	})

	mw := Audit(zerolog.Nop(), recorder)
	h := mw(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Error("health endpoint should not be audited")
	}
}
