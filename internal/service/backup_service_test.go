package service

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"helpdetective/internal/logger"
	"helpdetective/internal/models"
	"helpdetective/internal/repository"
	"helpdetective/internal/validation"
)

func seedClinic(t *testing.T) (*BackupService, int64) {
	t.Helper()
	db := newTestDB(t)
	patients := repository.NewPatientRepository(db)
	sessions := repository.NewSessionRepository(db)

	p, err := patients.CreatePatient("P01", models.AgeGroupAdolescent, "")
	if err != nil {
		t.Fatal(err)
	}
	a := models.Attempt{CardID: 2, Scores: scores(2, 1, 1, 2, 1, 1), Classification: models.ClassificationValidAlternative, AlternativeRationale: "ok"}
	a.Total = a.Scores.Sum()
	if _, err := sessions.CommitSession(p.ID, models.ModeEvaluation, "notas", []models.Attempt{a}); err != nil {
		t.Fatal(err)
	}
	return NewBackupService(repository.NewBackupRepository(db), logger.Nop()), p.ID
}

func TestBackupRoundTrip(t *testing.T) {
	source, patientID := seedClinic(t)

	var buf bytes.Buffer
	if err := source.ExportToWriter(&buf); err != nil {
		t.Fatalf("ExportToWriter() error = %v", err)
	}

	var exported BackupData
	if err := json.Unmarshal(buf.Bytes(), &exported); err != nil {
		t.Fatal(err)
	}
	if exported.DatabaseType != "sqlite" || len(exported.Patients) != 1 || len(exported.Attempts) != 1 {
		t.Fatalf("unexpected export %+v", exported)
	}

	targetDB := newTestDB(t)
	target := NewBackupService(repository.NewBackupRepository(targetDB), logger.Nop())
	if err := target.ImportFromReader(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatalf("ImportFromReader() error = %v", err)
	}

	rows, err := repository.NewReportRepository(targetDB).AttemptsForPatient(patientID)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Total != 8 || rows[0].AlternativeRationale != "ok" || rows[0].Mode != models.ModeEvaluation {
		t.Errorf("restored rows = %+v", rows)
	}

	// New records continue after restored ids
	next, err := repository.NewPatientRepository(targetDB).CreatePatient("P02", models.AgeGroupAdult, "")
	if err != nil {
		t.Fatal(err)
	}
	if next.ID <= patientID {
		t.Errorf("new patient id %d collides with restored id %d", next.ID, patientID)
	}

	t.Run("refuses non-empty database", func(t *testing.T) {
		err := target.ImportFromReader(bytes.NewReader(buf.Bytes()))
		if !validation.IsValidationError(err) {
			t.Errorf("error = %v, want ValidationError", err)
		}
	})
}

func TestImportRejectsBadBackups(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantMsg string
	}{
		{name: "not json", doc: "{", wantMsg: "decode"},
		{name: "wrong version", doc: `{"version": "9"}`, wantMsg: "unsupported backup version"},
		{name: "orphan session", doc: `{"version": "1.0", "sessions": [{"id": 1, "client_id": 5, "mode": "avaliacao"}]}`, wantMsg: "missing patient 5"},
		{name: "bad total", doc: `{"version": "1.0",
			"clients": [{"id": 1, "nickname": "P", "age_group": "adulto"}],
			"sessions": [{"id": 1, "client_id": 1, "mode": "avaliacao"}],
			"attempts": [{"id": 1, "session_id": 1, "card_id": 1, "detection": 2, "total": 0}]}`, wantMsg: "does not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewBackupService(repository.NewBackupRepository(newTestDB(t)), nil)
			err := svc.ImportFromReader(strings.NewReader(tt.doc))
			if err == nil || !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want it to mention %q", err, tt.wantMsg)
			}
		})
	}
}
