package repository

import (
	"errors"
	"fmt"

	"helpdetective/internal/database"
	"helpdetective/internal/models"
)

// ErrStoreNotEmpty is returned when restoring into a database that already holds patients
var ErrStoreNotEmpty = errors.New("database already contains clinical records")

// BackupRepository reads and restores whole tables, preserving ids
type BackupRepository struct {
	db *database.DB
}

// NewBackupRepository creates a new backup repository
func NewBackupRepository(db *database.DB) *BackupRepository {
	return &BackupRepository{db: db}
}

// DialectName reports the dialect of the underlying database
func (r *BackupRepository) DialectName() string {
	return r.db.GetDialect().Name()
}

// AllPatients returns every patient in id order
func (r *BackupRepository) AllPatients() ([]models.Patient, error) {
	rows, err := r.db.Query("SELECT id, nickname, age_group, notes, created_at FROM clients ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query patients: %w", err)
	}
	defer rows.Close()

	patients := []models.Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan patient: %w", err)
		}
		patients = append(patients, *p)
	}
	return patients, rows.Err()
}

// AllSessions returns every session in id order
func (r *BackupRepository) AllSessions() ([]models.Session, error) {
	rows, err := r.db.Query("SELECT id, client_id, created_at, mode, session_notes FROM sessions ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	sessions := []models.Session{}
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, *s)
	}
	return sessions, rows.Err()
}

// AllAttempts returns every attempt in id order
func (r *BackupRepository) AllAttempts() ([]models.Attempt, error) {
	rows, err := r.db.Query("SELECT " + attemptColumns + " FROM attempts a ORDER BY a.id")
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	attempts := []models.Attempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

// Restore inserts all records with their original ids in one transaction.
// The clients table must be empty.
func (r *BackupRepository) Restore(patients []models.Patient, sessions []models.Session, attempts []models.Attempt) error {
	return r.db.WithTx(func(tx *database.Tx) error {
		var count int
		if err := tx.QueryRow("SELECT COUNT(*) FROM clients").Scan(&count); err != nil {
			return fmt.Errorf("failed to count patients: %w", err)
		}
		if count > 0 {
			return ErrStoreNotEmpty
		}

		for _, p := range patients {
			_, err := tx.Exec("INSERT INTO clients (id, nickname, age_group, notes, created_at) VALUES (?, ?, ?, ?, ?)",
				p.ID, p.Nickname, string(p.AgeGroup), p.Notes, p.CreatedAt)
			if err != nil {
				return fmt.Errorf("failed to restore patient %d: %w", p.ID, err)
			}
		}

		for _, s := range sessions {
			_, err := tx.Exec("INSERT INTO sessions (id, client_id, created_at, mode, session_notes) VALUES (?, ?, ?, ?, ?)",
				s.ID, s.PatientID, s.CreatedAt, string(s.Mode), s.Notes)
			if err != nil {
				return fmt.Errorf("failed to restore session %d: %w", s.ID, err)
			}
		}

		for _, a := range attempts {
			_, err := tx.Exec(`
				INSERT INTO attempts
				(id, session_id, card_id, hint_level, detection, clues, cog_empathy, action, communication, safety, total, notes,
				 low_support_prompts, medium_support_prompts, high_support_prompts, reformulations,
				 classification, alternative_rationale, alternative_divergence)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				a.ID, a.SessionID, a.CardID, a.HintLevel,
				a.Detection, a.Clues, a.CogEmpathy, a.Action, a.Communication, a.Safety,
				a.Total, a.Notes,
				a.LowSupportPrompts, a.MediumSupportPrompts, a.HighSupportPrompts, a.Reformulations,
				string(a.Classification), a.AlternativeRationale, a.AlternativeDivergence)
			if err != nil {
				return fmt.Errorf("failed to restore attempt %d: %w", a.ID, err)
			}
		}

		return resetSequences(tx)
	})
}

// resetSequences moves serial counters past restored ids where the dialect needs it
func resetSequences(tx *database.Tx) error {
	for _, table := range []string{"clients", "sessions", "attempts"} {
		query := tx.GetDialect().ResetSequenceQuery(table)
		if query == "" {
			continue
		}
		if _, err := tx.Exec(query); err != nil {
			return fmt.Errorf("failed to reset %s sequence: %w", table, err)
		}
	}
	return nil
}
