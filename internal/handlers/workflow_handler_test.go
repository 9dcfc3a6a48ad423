package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"testing"

	"helpdetective/internal/models"
)

func scorePayload(safety int) map[string]interface{} {
	return map[string]interface{}{
		"hint_level":     1,
		"detection":      2,
		"clues":          1,
		"cog_empathy":    2,
		"action":         3,
		"communication":  1,
		"safety":         safety,
		"notes":          "  olhou para o colega  ",
		"classification": "alvo",
	}
}

func TestSessionFlowOverHTTP(t *testing.T) {
	s := newTestServer(t, "")
	s.start()

	rec := s.do(http.MethodPost, "/api/patients", map[string]string{"nickname": "  P01 ", "age_group": "adulto"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create patient status = %d, body = %s", rec.Code, rec.Body.String())
	}
	patient := decode[models.Patient](t, rec)
	if patient.Nickname != "P01" {
		t.Errorf("nickname = %q, want trimmed P01", patient.Nickname)
	}

	if rec := s.do(http.MethodPost, "/api/workflow/patient", map[string]int64{"patient_id": patient.ID}); rec.Code != http.StatusOK {
		t.Fatalf("select patient status = %d, body = %s", rec.Code, rec.Body.String())
	}

	rec = s.do(http.MethodPost, "/api/workflow/cards", map[string][]int{"card_ids": {2, 1, 2}})
	if rec.Code != http.StatusOK {
		t.Fatalf("choose cards status = %d, body = %s", rec.Code, rec.Body.String())
	}
	state := decode[workflowResponse](t, rec)
	if fmt.Sprint(state.SelectedCardIDs) != "[2 1]" {
		t.Errorf("selected = %v, want [2 1]", state.SelectedCardIDs)
	}
	if state.CurrentCardID == nil || *state.CurrentCardID != 2 {
		t.Errorf("current card = %v, want 2", state.CurrentCardID)
	}

	rec = s.do(http.MethodPost, "/api/workflow/score", scorePayload(2))
	if rec.Code != http.StatusOK {
		t.Fatalf("score status = %d, body = %s", rec.Code, rec.Body.String())
	}
	state = decode[workflowResponse](t, rec)
	if state.Draft == nil || state.Draft.Total != 11 {
		t.Fatalf("draft = %+v, want total 11", state.Draft)
	}

	s.do(http.MethodPost, "/api/workflow/next", nil)
	if rec := s.do(http.MethodPost, "/api/workflow/score", scorePayload(0)); rec.Code != http.StatusOK {
		t.Fatalf("second score status = %d", rec.Code)
	}

	rec = s.do(http.MethodPost, "/api/workflow/finish", map[string]string{"mode": "avaliacao", "notes": "primeira sessão"})
	if rec.Code != http.StatusOK {
		t.Fatalf("finish status = %d, body = %s", rec.Code, rec.Body.String())
	}
	state = decode[workflowResponse](t, rec)
	if state.Session == nil || len(state.Session.Attempts) != 2 {
		t.Fatalf("committed session = %+v, want 2 attempts", state.Session)
	}
	if len(state.Drafts) != 0 || state.Cursor != 0 {
		t.Errorf("after finish drafts = %d cursor = %d, want 0 and 0", len(state.Drafts), state.Cursor)
	}
	if state.PatientID == nil || *state.PatientID != patient.ID {
		t.Errorf("patient should stay selected, got %v", state.PatientID)
	}

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/reports/%d", patient.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("report status = %d", rec.Code)
	}
	report := decode[reportResponse](t, rec)
	if report.Summary.Attempts != 2 || report.Summary.Sessions != 1 {
		t.Errorf("summary = %+v", report.Summary)
	}
	if report.Rows[0].CardID != 1 {
		t.Errorf("newest attempt first: got card %d, want 1", report.Rows[0].CardID)
	}

	rec = s.do(http.MethodGet, fmt.Sprintf("/api/reports/%d/csv", patient.ID), nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv status = %d", rec.Code)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, fmt.Sprintf("relatorio_tentativas_%d.csv", patient.ID)) {
		t.Errorf("Content-Disposition = %q", got)
	}
	lines := strings.Split(strings.TrimSpace(rec.Body.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv lines = %d, want header + 2", len(lines))
	}
	if !strings.HasPrefix(lines[0], "session_id,created_at,mode,card_id") {
		t.Errorf("csv header = %q", lines[0])
	}
}

func TestChooseCardsReportsDroppedDrafts(t *testing.T) {
	s := newTestServer(t, "")
	s.start()
	p, err := s.patients.CreatePatient("P02", models.AgeGroupChild, "")
	if err != nil {
		t.Fatal(err)
	}

	s.do(http.MethodPost, "/api/workflow/patient", map[string]int64{"patient_id": p.ID})
	s.do(http.MethodPost, "/api/workflow/cards", map[string][]int{"card_ids": {1, 2}})
	s.do(http.MethodPost, "/api/workflow/score", scorePayload(1))

	rec := s.do(http.MethodPost, "/api/workflow/cards", map[string][]int{"card_ids": {2, 3}})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	state := decode[workflowResponse](t, rec)
	if fmt.Sprint(state.DroppedDraftCardIDs) != "[1]" {
		t.Errorf("dropped = %v, want [1]", state.DroppedDraftCardIDs)
	}
	if len(state.Drafts) != 0 {
		t.Errorf("drafts = %d, want 0", len(state.Drafts))
	}
}

func TestWorkflowErrors(t *testing.T) {
	s := newTestServer(t, "")
	s.start()
	p, err := s.patients.CreatePatient("P03", models.AgeGroupAdolescent, "")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		path   string
		body   interface{}
		status int
		field  string
	}{
		{name: "cards before patient", path: "/api/workflow/cards", body: map[string][]int{"card_ids": {1}}, status: http.StatusBadRequest, field: "patient_id"},
		{name: "unknown patient", path: "/api/workflow/patient", body: map[string]int64{"patient_id": 999}, status: http.StatusNotFound},
		{name: "select patient", path: "/api/workflow/patient", body: map[string]int64{"patient_id": p.ID}, status: http.StatusOK},
		{name: "empty selection", path: "/api/workflow/cards", body: map[string][]int{"card_ids": {}}, status: http.StatusBadRequest, field: "card_ids"},
		{name: "card outside catalog", path: "/api/workflow/cards", body: map[string][]int{"card_ids": {42}}, status: http.StatusBadRequest, field: "card_ids"},
		{name: "valid selection", path: "/api/workflow/cards", body: map[string][]int{"card_ids": {3}}, status: http.StatusOK},
		{name: "safety out of range", path: "/api/workflow/score", body: scorePayload(5), status: http.StatusBadRequest, field: "safety"},
		{name: "unknown field", path: "/api/workflow/score", body: map[string]int{"bonus": 1}, status: http.StatusBadRequest},
		{name: "finish without drafts", path: "/api/workflow/finish", body: map[string]string{"mode": "avaliacao"}, status: http.StatusBadRequest, field: "drafts"},
		{name: "finish with bad mode", path: "/api/workflow/finish", body: map[string]string{"mode": "livre"}, status: http.StatusBadRequest, field: "mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.status, rec.Body.String())
			}
			if tt.field != "" {
				if body := decode[errorResponse](t, rec); body.Field != tt.field {
					t.Errorf("field = %q, want %q", body.Field, tt.field)
				}
			}
		})
	}
}

func TestWorkflowsAreIsolatedPerBrowser(t *testing.T) {
	s := newTestServer(t, "")
	s.start()
	p, err := s.patients.CreatePatient("P04", models.AgeGroupAdult, "")
	if err != nil {
		t.Fatal(err)
	}
	s.do(http.MethodPost, "/api/workflow/patient", map[string]int64{"patient_id": p.ID})

	other := &testServer{t: t, handler: s.handler}
	state := other.start()
	if state.PatientID != nil {
		t.Errorf("second browser sees patient %d", *state.PatientID)
	}
	if s.registry.Len() != 1 {
		t.Errorf("registry holds %d workflows, want 1", s.registry.Len())
	}
}

func TestReadingWorkflowDoesNotRegisterOne(t *testing.T) {
	s := newTestServer(t, "")
	for i := 0; i < 5; i++ {
		anon := &testServer{t: t, handler: s.handler}
		state := anon.start()
		if state.CSRFToken == "" || len(state.SelectedCardIDs) != 0 || state.PatientID != nil {
			t.Fatalf("unexpected initial state %+v", state)
		}
	}
	if s.registry.Len() != 0 {
		t.Fatalf("cookieless reads registered %d workflows", s.registry.Len())
	}

	s.start()
	s.start()
	if rec := s.do(http.MethodPost, "/api/workflow/next", nil); rec.Code != http.StatusOK {
		t.Fatalf("next status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if s.registry.Len() != 1 {
		t.Fatalf("registry holds %d workflows after first change, want 1", s.registry.Len())
	}

	p, err := s.patients.CreatePatient("P05", models.AgeGroupAdult, "")
	if err != nil {
		t.Fatal(err)
	}
	s.do(http.MethodPost, "/api/workflow/patient", map[string]int64{"patient_id": p.ID})
	if state := s.start(); state.PatientID == nil || *state.PatientID != p.ID {
		t.Errorf("state after select = %+v, want patient %d", state.PatientID, p.ID)
	}
	if s.registry.Len() != 1 {
		t.Errorf("registry holds %d workflows, want 1", s.registry.Len())
	}
}
