package main

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/fittracker/fittracker/internal/config"
	"github.com/fittracker/fittracker/internal/platform/auth"
	"github.com/fittracker/fittracker/internal/platform/blobstore"
	"github.com/fittracker/fittracker/internal/platform/telemetry"
)

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func testConfig() *config.Config {
	return &config.Config{
		Env:            "test",
		AuthSigningKey: strings.Repeat("k", 32),
		AuthIssuer:     "fittracker",
		AuthTokenTTL:   time.Hour,
		ReportTimezone: "UTC",
		ReportBrand:    "FitTracker Pro",
		BodyLimit:      "1M",
		RateLimitRPS:   100,
		RateLimitBurst: 100,
		RequestTimeout: 5 * time.Second,
		CORSOrigins:    []string{"http://localhost:5173"},
	}
}

func newTestServer(t *testing.T, archive blobstore.BlobStore, pingErr error) http.Handler {
	t.Helper()
	e, err := newServer(testConfig(), zerolog.Nop(), serverDeps{
		Pinger:    stubPinger{err: pingErr},
		Archive:   archive,
		Telemetry: telemetry.New(zerolog.Nop()),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestServer_PublicEndpoints(t *testing.T) {
	h := newTestServer(t, nil, nil)

	if rec := serve(h, http.MethodGet, "/health"); rec.Code != http.StatusOK {
		t.Errorf("expected /health 200, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/health/db"); rec.Code != http.StatusOK {
		t.Errorf("expected /health/db 200, got %d", rec.Code)
	}
	rec := serve(h, http.MethodGet, "/metrics")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "fittracker_http_requests_total") {
		t.Errorf("expected metrics exposition, got %d", rec.Code)
	}
}

func TestServer_DatabaseDown(t *testing.T) {
	h := newTestServer(t, nil, errors.New("connection refused"))
	if rec := serve(h, http.MethodGet, "/health/db"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestServer_APIRequiresToken(t *testing.T) {
	h := newTestServer(t, nil, nil)
	for _, path := range []string{"/api/v1/students", "/api/v1/dashboard", "/auth/me"} {
		if rec := serve(h, http.MethodGet, path); rec.Code != http.StatusUnauthorized {
			t.Errorf("expected %s to be 401, got %d", path, rec.Code)
		}
	}
}

func TestServer_SecurityHeaders(t *testing.T) {
	h := newTestServer(t, nil, nil)
	rec := serve(h, http.MethodGet, "/health")
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("expected nosniff header, got %v", rec.Header())
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("expected a request id")
	}
}

func bearer(t *testing.T) string {
	t.Helper()
	cfg := testConfig()
	token, _, err := auth.NewTokenIssuer([]byte(cfg.AuthSigningKey), cfg.AuthIssuer, time.Hour).
		Issue(&auth.User{ID: uuid.New(), Email: "coach@example.com"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return "Bearer " + token
}

func TestServer_ArchiveRoutesOnlyWhenEnabled(t *testing.T) {
	token := bearer(t)
	get := func(h http.Handler) int {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/reports", nil)
		req.Header.Set(echo.HeaderAuthorization, token)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if code := get(newTestServer(t, nil, nil)); code != http.StatusNotFound {
		t.Errorf("expected 404 without archive, got %d", code)
	}
	if code := get(newTestServer(t, blobstore.NewInMemoryBlobStore(), nil)); code != http.StatusOK {
		t.Errorf("expected 200 with archive enabled, got %d", code)
	}
}

func TestNewArchive(t *testing.T) {
	ctx := context.Background()

	store, err := newArchive(ctx, &config.Config{ArchiveBackend: "none"})
	if err != nil || store != nil {
		t.Errorf("expected no archive, got %v (%v)", store, err)
	}
	store, err = newArchive(ctx, &config.Config{ArchiveBackend: "memory"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := store.(*blobstore.InMemoryBlobStore); !ok {
		t.Errorf("expected in-memory store, got %T", store)
	}
	if _, err := newArchive(ctx, &config.Config{ArchiveBackend: "ftp"}); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestSplitCharts(t *testing.T) {
	got := splitCharts(" peso, cintura ,,gordura")
	want := []string{"peso", "cintura", "gordura"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if splitCharts("") != nil {
		t.Error("expected nil for an empty flag")
	}
}

func TestNewLogger_Level(t *testing.T) {
	if got := newLogger("production", "debug").GetLevel(); got != zerolog.DebugLevel {
		t.Errorf("expected debug, got %s", got)
	}
	if got := newLogger("production", "nonsense").GetLevel(); got != zerolog.InfoLevel {
		t.Errorf("expected info fallback, got %s", got)
	}
}
