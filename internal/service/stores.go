package service

import (
	"helpdetective/internal/catalog"
	"helpdetective/internal/models"
)

// PatientStore is the persistence the patient and workflow services need
type PatientStore interface {
	CreatePatient(nickname string, ageGroup models.AgeGroup, notes string) (*models.Patient, error)
	GetPatientByID(id int64) (*models.Patient, error)
	ListPatients() ([]models.Patient, error)
}

// SessionStore commits a finished session with its attempts atomically
type SessionStore interface {
	CommitSession(patientID int64, mode models.SessionMode, notes string, attempts []models.Attempt) (*models.SessionWithAttempts, error)
}

// ReportStore reads a patient's attempt history
type ReportStore interface {
	AttemptsForPatient(patientID int64) ([]models.ReportRow, error)
}

// CardSource serves the current card catalog snapshot
type CardSource interface {
	Current() (*catalog.Snapshot, error)
}
