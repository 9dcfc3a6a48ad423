package handlers

import (
	"net/http"

	"helpdetective/internal/logger"
	"helpdetective/internal/models"
	"helpdetective/internal/service"
)

// PatientHandler handles patient registration and listing
type PatientHandler struct {
	patientService *service.PatientService
	log            *logger.Logger
}

// NewPatientHandler creates a new patient handler
func NewPatientHandler(patientService *service.PatientService, log *logger.Logger) *PatientHandler {
	return &PatientHandler{patientService: patientService, log: log}
}

type createPatientRequest struct {
	Nickname string          `json:"nickname"`
	AgeGroup models.AgeGroup `json:"age_group"`
	Notes    string          `json:"notes"`
}

// List returns every patient, newest first
func (h *PatientHandler) List(w http.ResponseWriter, r *http.Request) {
	patients, err := h.patientService.List()
	if err != nil {
		respondServiceError(w, h.log, "Failed to list patients", err)
		return
	}
	if patients == nil {
		patients = []models.Patient{}
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"patients":   patients,
		"age_groups": models.AgeGroups,
	})
}

// Create registers a new patient
func (h *PatientHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createPatientRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	patient, err := h.patientService.Create(req.Nickname, req.AgeGroup, req.Notes)
	if err != nil {
		respondServiceError(w, h.log, "Failed to create patient", err)
		return
	}
	h.log.Info("Patient registered", "patient_id", patient.ID, "age_group", patient.AgeGroup)
	respondJSON(w, http.StatusCreated, patient)
}

// SuggestNickname proposes a free pseudonymous patient code
func (h *PatientHandler) SuggestNickname(w http.ResponseWriter, r *http.Request) {
	nickname, err := h.patientService.SuggestNickname()
	if err != nil {
		respondServiceError(w, h.log, "Failed to suggest nickname", err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"nickname": nickname})
}
