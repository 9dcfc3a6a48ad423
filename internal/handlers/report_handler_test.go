package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"helpdetective/internal/models"
)

func TestReportForPatientWithoutSessions(t *testing.T) {
	s := newTestServer(t, "")
	p, err := s.patients.CreatePatient("P05", models.AgeGroupChild, "")
	if err != nil {
		t.Fatal(err)
	}

	rec := s.do(http.MethodGet, fmt.Sprintf("/api/reports/%d", p.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	report := decode[reportResponse](t, rec)
	if report.Rows == nil || len(report.Rows) != 0 {
		t.Errorf("rows = %v, want empty list", report.Rows)
	}
	if report.Summary.Attempts != 0 {
		t.Errorf("summary = %+v", report.Summary)
	}

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/reports/%d/csv", p.ID), nil)
	if got := strings.TrimSpace(rec.Body.String()); strings.Count(got, "\n") != 0 {
		t.Errorf("empty report csv should be the header only, got %q", got)
	}
}

func TestReportErrors(t *testing.T) {
	s := newTestServer(t, "")
	s.start()
	p, err := s.patients.CreatePatient("P06", models.AgeGroupAdult, "")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{name: "unknown patient", method: http.MethodGet, path: "/api/reports/404", status: http.StatusNotFound},
		{name: "unknown patient csv", method: http.MethodGet, path: "/api/reports/404/csv", status: http.StatusNotFound},
		{name: "bad id", method: http.MethodGet, path: "/api/reports/x", status: http.StatusBadRequest},
		{name: "email not configured", method: http.MethodPost, path: fmt.Sprintf("/api/reports/%d/email", p.ID), body: map[string]string{"to": "clinica@example.com"}, status: http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := s.do(tt.method, tt.path, tt.body); rec.Code != tt.status {
				t.Errorf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
		})
	}
}

func TestManual(t *testing.T) {
	s := newTestServer(t, "")

	rec := s.do(http.MethodGet, "/manual", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Type"), "text/markdown") {
		t.Errorf("Content-Type = %q", rec.Header().Get("Content-Type"))
	}
	if !strings.Contains(rec.Body.String(), "Objetivo do aplicativo") {
		t.Error("manual body missing first section")
	}
	if rec.Header().Get("Content-Disposition") != "" {
		t.Error("inline manual should not be an attachment")
	}

	rec = s.do(http.MethodGet, "/manual?download=1", nil)
	if !strings.Contains(rec.Header().Get("Content-Disposition"), manualFilename) {
		t.Errorf("Content-Disposition = %q", rec.Header().Get("Content-Disposition"))
	}
}

func TestSuggestNickname(t *testing.T) {
	s := newTestServer(t, "")
	rec := s.do(http.MethodGet, "/api/patients/nickname", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := decode[map[string]string](t, rec)["nickname"]; strings.Count(got, "-") != 2 {
		t.Errorf("nickname = %q, want animal-color-NN", got)
	}
}
