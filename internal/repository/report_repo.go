package repository

import (
	"fmt"

	"helpdetective/internal/database"
	"helpdetective/internal/models"
)

// ReportRepository reads the joined session/attempt history used by reports
type ReportRepository struct {
	db *database.DB
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *database.DB) *ReportRepository {
	return &ReportRepository{db: db}
}

// AttemptsForPatient returns every attempt of every session of the patient,
// newest session first, then newest attempt first
func (r *ReportRepository) AttemptsForPatient(patientID int64) ([]models.ReportRow, error) {
	query := `
		SELECT s.created_at, s.mode, ` + attemptColumns + `
		FROM attempts a
		JOIN sessions s ON s.id = a.session_id
		WHERE s.client_id = ?
		ORDER BY s.id DESC, a.id DESC
	`

	rows, err := r.db.Query(query, patientID)
	if err != nil {
		return nil, fmt.Errorf("failed to query patient attempts: %w", err)
	}
	defer rows.Close()

	report := []models.ReportRow{}
	for rows.Next() {
		var (
			createdAt dbTime
			mode      string
		)
		attempt, err := scanAttempt(rows, &createdAt, &mode)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report row: %w", err)
		}
		report = append(report, models.ReportRow{
			SessionCreatedAt: createdAt.Time,
			Mode:             models.SessionMode(mode),
			Attempt:          *attempt,
		})
	}

	return report, rows.Err()
}
