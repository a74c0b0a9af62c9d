package lab

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/openlis/lis/internal/platform/auth"
)

func newTestServer(f *fixture) *echo.Echo {
	e := echo.New()
	e.Use(auth.DevAuthMiddleware())
	h := NewHandler(f.orderSvc, f.smpSvc, f.examSvc)
	h.RegisterRoutes(e.Group("/api/v1"))
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandlerStatusMapping(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)
	ex := f.seedExam(ExamInProgress)

	// Success: 200 with ok result and fresh token.
	rec := doJSON(e, http.MethodPost, "/api/v1/exams/"+ex.ID.String()+"/results",
		`{"results":{"glucose":95}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("save draft status = %d, body %s", rec.Code, rec.Body.String())
	}
	var r Result
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !r.OK || r.UpdatedAt == nil {
		t.Fatalf("result = %+v", r)
	}

	// Stale token: 409 with conflict flag.
	stale := ex.UpdatedAt.Format(`"2006-01-02T15:04:05.999999999Z07:00"`)
	rec = doJSON(e, http.MethodPost, "/api/v1/exams/"+ex.ID.String()+"/results",
		`{"results":{"glucose":96},"expected_version":`+stale+`}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("stale token status = %d, body %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil || !r.Conflict {
		t.Fatalf("conflict result = %+v (err %v)", r, err)
	}

	// Invalid transition: 422 with the failure message in the body.
	rec = doJSON(e, http.MethodPost, "/api/v1/exams/"+ex.ID.String()+"/approve", `{}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("approve status = %d, body %s", rec.Code, rec.Body.String())
	}

	// Malformed id: 400.
	rec = doJSON(e, http.MethodPost, "/api/v1/exams/not-a-uuid/start", ``)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", rec.Code)
	}
}

func TestHandlerRejectMessage(t *testing.T) {
	f := newFixture()
	e := newTestServer(f)
	ex := f.seedExam(ExamReadyForValidation)

	rec := doJSON(e, http.MethodPost, "/api/v1/exams/"+ex.ID.String()+"/reject", `{"reason":""}`)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	var r Result
	if err := json.Unmarshal(rec.Body.Bytes(), &r); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if r.Error != "Debe indicar un motivo de rechazo" {
		t.Fatalf("error = %q", r.Error)
	}
}
