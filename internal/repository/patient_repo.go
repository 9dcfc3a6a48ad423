package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"helpdetective/internal/database"
	"helpdetective/internal/models"
)

// PatientRepository handles database operations for patients (clients table)
type PatientRepository struct {
	db *database.DB
}

// NewPatientRepository creates a new patient repository
func NewPatientRepository(db *database.DB) *PatientRepository {
	return &PatientRepository{db: db}
}

// CreatePatient inserts a patient. Inputs are expected to be validated.
func (r *PatientRepository) CreatePatient(nickname string, ageGroup models.AgeGroup, notes string) (*models.Patient, error) {
	createdAt := time.Now()
	query := "INSERT INTO clients (nickname, age_group, notes, created_at) VALUES (?, ?, ?, ?)"

	id, err := r.db.ExecReturningID(query, nickname, string(ageGroup), notes, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create patient: %w", err)
	}

	return &models.Patient{
		ID:        id,
		Nickname:  nickname,
		AgeGroup:  ageGroup,
		Notes:     notes,
		CreatedAt: createdAt,
	}, nil
}

// GetPatientByID retrieves a patient, or ErrNotFound
func (r *PatientRepository) GetPatientByID(id int64) (*models.Patient, error) {
	query := "SELECT id, nickname, age_group, notes, created_at FROM clients WHERE id = ?"

	patient, err := scanPatient(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return patient, nil
}

// ListPatients returns every patient, most recently created first
func (r *PatientRepository) ListPatients() ([]models.Patient, error) {
	query := "SELECT id, nickname, age_group, notes, created_at FROM clients ORDER BY id DESC"

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	patients := []models.Patient{}
	for rows.Next() {
		patient, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, *patient)
	}

	return patients, rows.Err()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPatient(row rowScanner) (*models.Patient, error) {
	var (
		p         models.Patient
		ageGroup  string
		notes     sql.NullString
		createdAt dbTime
	)
	if err := row.Scan(&p.ID, &p.Nickname, &ageGroup, &notes, &createdAt); err != nil {
		return nil, err
	}
	p.AgeGroup = models.AgeGroup(ageGroup)
	p.Notes = notes.String
	p.CreatedAt = createdAt.Time
	return &p, nil
}
