package patients

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

func newPatientServer() (*echo.Echo, *mockPatientRepo) {
	repo := newMockPatientRepo()
	h := NewHandler(NewService(repo))
	e := echo.New()
	h.RegisterRoutes(e.Group("/api/v1"))
	return e, repo
}

const patientBody = `{"first_name":"Jessica","last_name":"Argonaut","date_of_birth":"1985-06-15T00:00:00Z","email":"jessica@example.org"}`

func TestHandler_CreatePatient(t *testing.T) {
	e, repo := newPatientServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(patientBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}
	var p Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if p.ID == uuid.Nil {
		t.Error("response has no ID")
	}
	if len(repo.items) != 1 {
		t.Errorf("stored patients = %d, want 1", len(repo.items))
	}
}

func TestHandler_CreatePatient_Invalid(t *testing.T) {
	e, _ := newPatientServer()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients",
		strings.NewReader(`{"first_name":"Jessica"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandler_GetPatient(t *testing.T) {
	e, _ := newPatientServer()
	id := createPatientViaHTTP(t, e)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+id, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var p Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if p.Email != "jessica@example.org" {
		t.Errorf("email = %q", p.Email)
	}
}

func TestHandler_GetPatient_BadAndMissingIDs(t *testing.T) {
	e, _ := newPatientServer()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients/not-a-uuid", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("malformed id status = %d, want 400", rec.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/patients/"+uuid.NewString(), nil)
	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown id status = %d, want 404", rec.Code)
	}
}

func TestHandler_UpdatePatient(t *testing.T) {
	e, repo := newPatientServer()
	id := createPatientViaHTTP(t, e)

	body := strings.Replace(patientBody, "Argonaut", "Smith", 1)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/patients/"+id, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
	stored := repo.items[uuid.MustParse(id)]
	if stored.LastName != "Smith" {
		t.Errorf("last name = %q, want Smith", stored.LastName)
	}
}

func TestHandler_DeletePatient(t *testing.T) {
	e, repo := newPatientServer()
	id := createPatientViaHTTP(t, e)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/patients/"+id, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if len(repo.items) != 0 {
		t.Error("patient still stored after delete")
	}

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/patients/"+id, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}

func TestHandler_ListPatients(t *testing.T) {
	e, _ := newPatientServer()
	createPatientViaHTTP(t, e)
	createPatientViaHTTP(t, e)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/patients?limit=1", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Data    []*Patient `json:"data"`
		Total   int        `json:"total"`
		HasMore bool       `json:"has_more"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Total != 2 {
		t.Errorf("total = %d, want 2", resp.Total)
	}
	if len(resp.Data) != 1 {
		t.Errorf("page size = %d, want 1", len(resp.Data))
	}
	if !resp.HasMore {
		t.Error("has_more = false, want true")
	}
}

func createPatientViaHTTP(t *testing.T, e *echo.Echo) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/patients", strings.NewReader(patientBody))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var p Patient
	if err := json.Unmarshal(rec.Body.Bytes(), &p); err != nil {
		t.Fatalf("decode create response: %v", err)
	}
	return p.ID.String()
}
