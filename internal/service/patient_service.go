package service

import (
	"strings"

	"helpdetective/internal/credentials"
	"helpdetective/internal/models"
	"helpdetective/internal/validation"
)

// PatientService handles patient registration and lookup
type PatientService struct {
	store PatientStore
}

// NewPatientService creates a new patient service
func NewPatientService(store PatientStore) *PatientService {
	return &PatientService{store: store}
}

// Create registers a patient under a pseudonymous nickname
func (s *PatientService) Create(nickname string, ageGroup models.AgeGroup, notes string) (*models.Patient, error) {
	nickname, err := validation.ValidateNickname(nickname)
	if err != nil {
		return nil, err
	}
	if !ageGroup.Valid() {
		return nil, validation.New("age_group", "age group must be one of: crianca, adolescente, adulto")
	}

	patient, err := s.store.CreatePatient(nickname, ageGroup, strings.TrimSpace(notes))
	if err != nil {
		return nil, storageErr("create patient", err, nil)
	}
	return patient, nil
}

// List returns all patients, most recently created first
func (s *PatientService) List() ([]models.Patient, error) {
	patients, err := s.store.ListPatients()
	if err != nil {
		return nil, storageErr("list patients", err, nil)
	}
	return patients, nil
}

// Get returns one patient or ErrPatientNotFound
func (s *PatientService) Get(id int64) (*models.Patient, error) {
	patient, err := s.store.GetPatientByID(id)
	if err != nil {
		return nil, storageErr("get patient", err, ErrPatientNotFound)
	}
	return patient, nil
}

// SuggestNickname proposes a pseudonymous code not used by any patient yet
func (s *PatientService) SuggestNickname() (string, error) {
	patients, err := s.store.ListPatients()
	if err != nil {
		return "", storageErr("list patients", err, nil)
	}
	used := make(map[string]bool, len(patients))
	for _, p := range patients {
		used[strings.ToLower(p.Nickname)] = true
	}
	return credentials.GenerateUniquePatientCode(func(code string) bool { return used[code] }, 20)
}
