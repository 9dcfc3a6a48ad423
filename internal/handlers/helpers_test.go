package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"helpdetective/internal/catalog"
	"helpdetective/internal/database"
	"helpdetective/internal/logger"
	"helpdetective/internal/repository"
	"helpdetective/internal/security"
	"helpdetective/internal/service"
)

const testCards = `[
  {"id": 1, "title": "Recreio", "pistas": "olhar; postura"},
  {"id": 2, "nome": "Parque"},
  {"id": 3, "title": "Sala de aula"}
]`

// testServer is the full router over a temp sqlite database
type testServer struct {
	t        *testing.T
	handler  http.Handler
	registry *WorkflowRegistry
	patients *repository.PatientRepository
	cookies  []*http.Cookie
	csrf     string
}

func newTestServer(t *testing.T, passwordHash string) *testServer {
	t.Helper()
	dir := t.TempDir()

	db, err := database.Initialize(filepath.Join(dir, "clinic.db"))
	if err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if _, err := db.RunMigrations(); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	cardsPath := filepath.Join(dir, "cards.json")
	if err := os.WriteFile(cardsPath, []byte(testCards), 0o644); err != nil {
		t.Fatal(err)
	}
	cards, err := catalog.New(cardsPath, nil)
	if err != nil {
		t.Fatalf("catalog.New() error = %v", err)
	}

	log := logger.Nop()
	patientRepo := repository.NewPatientRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authService := service.NewAuthService(passwordHash, "test-secret", time.Hour)
	emailService, err := service.NewEmailService(context.Background(), "us-east-1", "", "", log)
	if err != nil {
		t.Fatal(err)
	}
	csrf := security.NewCSRFGenerator("test-secret")
	limiter := security.NewRateLimiter(3, time.Minute)

	registry := NewWorkflowRegistry(time.Hour, func() *service.SessionWorkflow {
		return service.NewSessionWorkflow(patientRepo, sessionRepo, cards, log)
	})

	h := Handlers{
		Auth:     NewAuthHandler(authService, registry, limiter, log),
		Patients: NewPatientHandler(service.NewPatientService(patientRepo), log),
		Cards:    NewCardHandler(cards, log),
		Workflow: NewWorkflowHandler(registry, csrf, log),
		Reports:  NewReportHandler(service.NewReportService(patientRepo, reportRepo), emailService, log),
	}
	return &testServer{
		t:        t,
		handler:  NewRouter(h, NewMiddleware(authService, csrf, limiter, log), log),
		registry: registry,
		patients: patientRepo,
	}
}

// do sends a request carrying the stored cookies and CSRF token, and keeps
// any cookies the response sets
func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if s.csrf != "" {
		req.Header.Set(CSRFHeaderName, s.csrf)
	}
	for _, c := range s.cookies {
		req.AddCookie(c)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		s.setCookie(c)
	}
	return rec
}

func (s *testServer) setCookie(c *http.Cookie) {
	kept := s.cookies[:0]
	for _, old := range s.cookies {
		if old.Name != c.Name {
			kept = append(kept, old)
		}
	}
	s.cookies = kept
	if c.MaxAge >= 0 && c.Value != "" {
		s.cookies = append(s.cookies, c)
	}
}

// start opens a workflow and remembers its CSRF token
func (s *testServer) start() workflowResponse {
	s.t.Helper()
	rec := s.do(http.MethodGet, "/api/workflow", nil)
	if rec.Code != http.StatusOK {
		s.t.Fatalf("GET /api/workflow status = %d, body = %s", rec.Code, rec.Body.String())
	}
	state := decode[workflowResponse](s.t, rec)
	s.csrf = state.CSRFToken
	return state
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("failed to decode %q: %v", rec.Body.String(), err)
	}
	return v
}
