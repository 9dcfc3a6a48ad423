package handlers

import (
	"net/http"
	"strconv"

	"helpdetective/internal/logger"
	"helpdetective/internal/models"
	"helpdetective/internal/service"
)

// ReportHandler serves per-patient attempt reports
type ReportHandler struct {
	reportService *service.ReportService
	emailService  *service.EmailService
	log           *logger.Logger
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportService *service.ReportService, emailService *service.EmailService, log *logger.Logger) *ReportHandler {
	return &ReportHandler{reportService: reportService, emailService: emailService, log: log}
}

type reportResponse struct {
	PatientID int64                `json:"patient_id"`
	Summary   models.ReportSummary `json:"summary"`
	Rows      []models.ReportRow   `json:"rows"`
}

func patientIDFromPath(r *http.Request) (int64, error) {
	return strconv.ParseInt(r.PathValue("patientId"), 10, 64)
}

// Show returns every attempt for a patient together with a summary
func (h *ReportHandler) Show(w http.ResponseWriter, r *http.Request) {
	patientID, err := patientIDFromPath(r)
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	rows, err := h.reportService.AttemptsForPatient(patientID)
	if err != nil {
		respondServiceError(w, h.log, "Failed to load report", err)
		return
	}
	if rows == nil {
		rows = []models.ReportRow{}
	}
	respondJSON(w, http.StatusOK, reportResponse{
		PatientID: patientID,
		Summary:   service.Summarize(rows),
		Rows:      rows,
	})
}

// CSV downloads the report as a CSV file
func (h *ReportHandler) CSV(w http.ResponseWriter, r *http.Request) {
	patientID, err := patientIDFromPath(r)
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	data, err := h.reportService.ExportCSV(patientID)
	if err != nil {
		respondServiceError(w, h.log, "Failed to export report", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="`+service.CSVFilename(patientID)+`"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Email sends the CSV report to an address
func (h *ReportHandler) Email(w http.ResponseWriter, r *http.Request) {
	patientID, err := patientIDFromPath(r)
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}
	var req struct {
		To string `json:"to"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}
	if !h.emailService.IsEnabled() {
		respondServiceError(w, h.log, "", service.ErrEmailDisabled)
		return
	}

	data, err := h.reportService.ExportCSV(patientID)
	if err != nil {
		respondServiceError(w, h.log, "Failed to export report", err)
		return
	}
	if err := h.emailService.SendReport(r.Context(), req.To, patientID, data); err != nil {
		respondServiceError(w, h.log, "Failed to send report", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"sent": true, "patient_id": patientID})
}
