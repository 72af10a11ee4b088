package student

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/fittracker/fittracker/internal/domain/measurement"
	"github.com/fittracker/fittracker/internal/platform/auth"
	"github.com/fittracker/fittracker/internal/platform/middleware"
)

type testEnv struct {
	h     *Handler
	e     *echo.Echo
	svc   *Service
	store *memStore
	sess  *auth.Session
}

func newTestHandler() *testEnv {
	svc, store := newTestService()
	e := echo.New()
	e.Validator = middleware.NewValidator()
	h := NewHandler(svc, time.UTC)
	h.now = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }
	return &testEnv{h: h, e: e, svc: svc, store: store, sess: &auth.Session{UserID: uuid.New()}}
}

func (env *testEnv) context(method, target, body, id string) (echo.Context, *httptest.ResponseRecorder) {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	req = req.WithContext(auth.WithSession(req.Context(), env.sess))
	rec := httptest.NewRecorder()
	c := env.e.NewContext(req, rec)
	if id != "" {
		c.SetParamNames("id")
		c.SetParamValues(id)
	}
	return c, rec
}

func TestHandler_CreateStudent(t *testing.T) {
	env := newTestHandler()
	c, rec := env.context(http.MethodPost, "/", `{"name":"Ana","email":"ana@example.com","date_of_birth":"1990-04-12"}`, "")

	if err := env.h.CreateStudent(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var s Student
	json.Unmarshal(rec.Body.Bytes(), &s)
	if s.Name != "Ana" || s.UserID != env.sess.UserID {
		t.Errorf("unexpected student %+v", s)
	}
}

func TestHandler_CreateStudent_Invalid(t *testing.T) {
	env := newTestHandler()
	c, _ := env.context(http.MethodPost, "/", `{"name":"Ana","email":"nope","date_of_birth":"12/04/1990"}`, "")

	err := env.h.CreateStudent(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	msg, ok := httpErr.Message.(map[string]interface{})
	if !ok {
		t.Fatalf("expected field errors, got %v", httpErr.Message)
	}
	fields := msg["fields"].(map[string]string)
	if _, ok := fields["email"]; !ok {
		t.Error("expected email field error")
	}
	if _, ok := fields["date_of_birth"]; !ok {
		t.Error("expected date_of_birth field error")
	}
}

func TestHandler_GetStudent_Profile(t *testing.T) {
	env := newTestHandler()
	ctx := context.Background()
	s, _ := env.svc.Create(ctx, env.sess, CreateInput{Name: "Bia", Email: "bia@example.com", DateOfBirth: "1990-06-02"})
	fat := 20.0
	measurement.NewService(memMeasurements{env.store}).
		Create(ctx, env.sess, s.ID, measurement.CreateInput{Weight: 70, Height: 175, BodyFatPercentage: &fat})

	c, rec := env.context(http.MethodGet, "/", "", s.ID.String())
	if err := env.h.GetStudent(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var body struct {
		Name              string  `json:"name"`
		DateOfBirth       string  `json:"date_of_birth"`
		Age               int     `json:"age"`
		BMI               *string `json:"bmi"`
		MeasurementsCount int     `json:"measurements_count"`
		Latest            *struct {
			Weight float64 `json:"weight"`
		} `json:"latest_measurement"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Name != "Bia" {
		t.Errorf("expected embedded student fields, got %q", body.Name)
	}
	if body.DateOfBirth != "1990-06-02" {
		t.Errorf("expected date_of_birth in the input layout, got %q", body.DateOfBirth)
	}
	if body.Age != 33 {
		t.Errorf("expected age 33 the day before the birthday, got %d", body.Age)
	}
	if body.BMI == nil || *body.BMI != "22.9" {
		t.Errorf("expected bmi 22.9, got %v", body.BMI)
	}
	if body.MeasurementsCount != 1 || body.Latest == nil || body.Latest.Weight != 70 {
		t.Errorf("unexpected aggregate %+v", body)
	}
}

func TestHandler_GetStudent_NoMeasurements(t *testing.T) {
	env := newTestHandler()
	s, _ := env.svc.Create(context.Background(), env.sess, CreateInput{Name: "Caio", Email: "caio@example.com", DateOfBirth: "2000-01-01"})

	c, rec := env.context(http.MethodGet, "/", "", s.ID.String())
	if err := env.h.GetStudent(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(rec.Body.String(), `"bmi":null`) || !strings.Contains(rec.Body.String(), `"latest_measurement":null`) {
		t.Errorf("expected null bmi and latest, got %s", rec.Body.String())
	}
}

func TestHandler_GetStudent_NotFound(t *testing.T) {
	env := newTestHandler()
	c, _ := env.context(http.MethodGet, "/", "", uuid.NewString())

	err := env.h.GetStudent(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", err)
	}
}

func TestHandler_ListStudents_Search(t *testing.T) {
	env := newTestHandler()
	ctx := context.Background()
	env.svc.Create(ctx, env.sess, CreateInput{Name: "Duda", Email: "duda@example.com", DateOfBirth: "1995-01-01"})
	env.svc.Create(ctx, env.sess, CreateInput{Name: "Edu", Email: "edu@example.com", DateOfBirth: "1995-01-01"})

	c, rec := env.context(http.MethodGet, "/?q=dud", "", "")
	if err := env.h.ListStudents(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var items []map[string]any
	json.Unmarshal(rec.Body.Bytes(), &items)
	if len(items) != 1 || items[0]["name"] != "Duda" {
		t.Errorf("expected only Duda, got %v", items)
	}
}

func TestHandler_UpdateAndDelete(t *testing.T) {
	env := newTestHandler()
	s, _ := env.svc.Create(context.Background(), env.sess, CreateInput{Name: "Fer", Email: "fer@example.com", DateOfBirth: "1995-01-01"})

	c, rec := env.context(http.MethodPatch, "/", `{"phone":"555"}`, s.ID.String())
	if err := env.h.UpdateStudent(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got Student
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.Phone != "555" || got.Name != "Fer" {
		t.Errorf("unexpected update result %+v", got)
	}

	c, rec = env.context(http.MethodDelete, "/", "", s.ID.String())
	if err := env.h.DeleteStudent(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}

	c, _ = env.context(http.MethodDelete, "/", "", s.ID.String())
	err := env.h.DeleteStudent(c)
	if httpErr, ok := err.(*echo.HTTPError); !ok || httpErr.Code != http.StatusNotFound {
		t.Errorf("expected 404 on second delete, got %v", err)
	}
}

func TestHandler_Dashboard(t *testing.T) {
	env := newTestHandler()
	env.svc.Create(context.Background(), env.sess, CreateInput{Name: "Gil", Email: "gil@example.com", DateOfBirth: "1995-01-01"})

	c, rec := env.context(http.MethodGet, "/", "", "")
	if err := env.h.Dashboard(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var d Dashboard
	if err := json.Unmarshal(rec.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Stats.TotalStudents != 1 || len(d.Recent) != 1 {
		t.Errorf("unexpected dashboard %+v", d)
	}
}

func TestHandler_Unauthenticated(t *testing.T) {
	env := newTestHandler()
	env.sess = nil

	c, _ := env.context(http.MethodGet, "/", "", "")
	err := env.h.ListStudents(c)
	if httpErr, ok := err.(*echo.HTTPError); !ok || httpErr.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
	if env.store.calls != 0 {
		t.Errorf("expected zero repository calls, got %d", env.store.calls)
	}
}
