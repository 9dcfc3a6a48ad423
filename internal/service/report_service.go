package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"

	"helpdetective/internal/models"
)

// CSVHeader is the column order of exported reports
var CSVHeader = []string{
	"session_id", "created_at", "mode",
	"card_id", "hint_level", "detection", "clues", "cog_empathy",
	"action", "communication", "safety", "total", "notes",
	"low_support_prompts", "medium_support_prompts", "high_support_prompts",
	"reformulations", "classification", "alternative_rationale", "alternative_divergence",
}

const csvTimeLayout = "2006-01-02T15:04:05"

// ReportService reads a patient's attempt history and renders exports
type ReportService struct {
	patients PatientStore
	reports  ReportStore
}

// NewReportService creates a new report service
func NewReportService(patients PatientStore, reports ReportStore) *ReportService {
	return &ReportService{patients: patients, reports: reports}
}

// AttemptsForPatient returns every attempt of the patient, newest session
// first and newest attempt first within a session
func (s *ReportService) AttemptsForPatient(patientID int64) ([]models.ReportRow, error) {
	if _, err := s.patients.GetPatientByID(patientID); err != nil {
		return nil, storageErr("get patient", err, ErrPatientNotFound)
	}

	rows, err := s.reports.AttemptsForPatient(patientID)
	if err != nil {
		return nil, storageErr("load attempts", err, nil)
	}
	if rows == nil {
		rows = []models.ReportRow{}
	}
	return rows, nil
}

// Summarize computes attempt and session counts plus mean total and mean hint
// level, rounded to two decimals
func Summarize(rows []models.ReportRow) models.ReportSummary {
	summary := models.ReportSummary{Attempts: len(rows)}
	if len(rows) == 0 {
		return summary
	}

	sessions := make(map[int64]bool)
	var totals, hints int
	for _, r := range rows {
		sessions[r.SessionID] = true
		totals += r.Total
		hints += r.HintLevel
	}

	summary.Sessions = len(sessions)
	summary.MeanTotal = round2(float64(totals) / float64(len(rows)))
	summary.MeanHintLevel = round2(float64(hints) / float64(len(rows)))
	return summary
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// WriteCSV writes rows with a header line to w
func WriteCSV(w io.Writer, rows []models.ReportRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, r := range rows {
		if err := cw.Write(csvRecord(r)); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func csvRecord(r models.ReportRow) []string {
	itoa := strconv.Itoa
	return []string{
		strconv.FormatInt(r.SessionID, 10),
		r.SessionCreatedAt.Format(csvTimeLayout),
		string(r.Mode),
		itoa(r.CardID),
		itoa(r.HintLevel),
		itoa(r.Detection),
		itoa(r.Clues),
		itoa(r.CogEmpathy),
		itoa(r.Action),
		itoa(r.Communication),
		itoa(r.Safety),
		itoa(r.Total),
		r.Notes,
		itoa(r.LowSupportPrompts),
		itoa(r.MediumSupportPrompts),
		itoa(r.HighSupportPrompts),
		itoa(r.Reformulations),
		string(r.Classification),
		r.AlternativeRationale,
		r.AlternativeDivergence,
	}
}

// ExportCSV renders the patient's report as CSV bytes
func (s *ReportService) ExportCSV(patientID int64) ([]byte, error) {
	rows, err := s.AttemptsForPatient(patientID)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := WriteCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// CSVFilename is the download name of a patient's report
func CSVFilename(patientID int64) string {
	return fmt.Sprintf("relatorio_tentativas_%d.csv", patientID)
}
