package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func requestWithRoles(e *echo.Echo, roles []string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	ctx := context.WithValue(req.Context(), UserRolesKey, roles)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRequireRole_Allowed(t *testing.T) {
	e := echo.New()
	c, rec := requestWithRoles(e, []string{"technician"})

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := RequireRole("technician", "pathologist")
	h := mw(handler)
	err := h(c)

	if err != nil {
		t.Errorf("expected no error, got %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestRequireRole_Denied(t *testing.T) {
	e := echo.New()
	c, _ := requestWithRoles(e, []string{"receptionist"})

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := RequireRole("technician", "pathologist")
	h := mw(handler)
	err := h(c)

	if err == nil {
		t.Error("expected error for unauthorized role")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok {
		t.Fatalf("expected echo.HTTPError, got %T", err)
	}
	if httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", httpErr.Code)
	}
}

func TestRequireRole_AdminBypass(t *testing.T) {
	e := echo.New()
	c, _ := requestWithRoles(e, []string{"admin"})

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := RequireRole("pathologist")
	h := mw(handler)
	err := h(c)

	if err != nil {
		t.Error("admin should bypass role checks")
	}
}

func TestRequireRole_NoRoles(t *testing.T) {
	e := echo.New()
	c, _ := requestWithRoles(e, nil)

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := RequireRole("technician")
	h := mw(handler)
	err := h(c)

	if err == nil {
		t.Error("expected error when no roles present")
	}
}

func TestUserIDFromContext(t *testing.T) {
	ctx := context.WithValue(context.Background(), UserIDKey, "user-123")
	uid := UserIDFromContext(ctx)
	if uid != "user-123" {
		t.Errorf("expected user-123, got %s", uid)
	}

	empty := UserIDFromContext(context.Background())
	if empty != "" {
		t.Errorf("expected empty string, got %s", empty)
	}
}
