package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"helpdetective/internal/database"
	"helpdetective/internal/models"
)

const insertAttemptQuery = `
	INSERT INTO attempts
	(session_id, card_id, hint_level, detection, clues, cog_empathy, action, communication, safety, total, notes,
	 low_support_prompts, medium_support_prompts, high_support_prompts, reformulations,
	 classification, alternative_rationale, alternative_divergence)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

const attemptColumns = `
	a.id, a.session_id, a.card_id, a.hint_level, a.detection, a.clues, a.cog_empathy,
	a.action, a.communication, a.safety, a.total, a.notes,
	a.low_support_prompts, a.medium_support_prompts, a.high_support_prompts, a.reformulations,
	a.classification, a.alternative_rationale, a.alternative_divergence
`

// SessionRepository handles sessions and their attempts
type SessionRepository struct {
	db *database.DB
}

// NewSessionRepository creates a new session repository
func NewSessionRepository(db *database.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// CommitSession inserts a session and all of its attempts in one transaction.
// Returns ErrNotFound if the patient does not exist. Nothing is written on error.
func (r *SessionRepository) CommitSession(patientID int64, mode models.SessionMode, notes string, attempts []models.Attempt) (*models.SessionWithAttempts, error) {
	result := &models.SessionWithAttempts{
		Session: models.Session{
			PatientID: patientID,
			CreatedAt: time.Now(),
			Mode:      mode,
			Notes:     notes,
		},
		Attempts: make([]models.Attempt, 0, len(attempts)),
	}

	err := r.db.WithTx(func(tx *database.Tx) error {
		var count int
		if err := tx.QueryRow("SELECT COUNT(*) FROM clients WHERE id = ?", patientID).Scan(&count); err != nil {
			return fmt.Errorf("failed to check patient: %w", err)
		}
		if count == 0 {
			return ErrNotFound
		}

		sessionID, err := tx.ExecReturningID(
			"INSERT INTO sessions (client_id, created_at, mode, session_notes) VALUES (?, ?, ?, ?)",
			patientID, result.Session.CreatedAt, string(mode), notes,
		)
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		result.Session.ID = sessionID

		for _, attempt := range attempts {
			attempt.SessionID = sessionID
			id, err := insertAttempt(tx, attempt)
			if err != nil {
				return fmt.Errorf("failed to record attempt for card %d: %w", attempt.CardID, err)
			}
			attempt.ID = id
			result.Attempts = append(result.Attempts, attempt)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func insertAttempt(tx database.DBTX, a models.Attempt) (int64, error) {
	return tx.ExecReturningID(insertAttemptQuery,
		a.SessionID, a.CardID, a.HintLevel,
		a.Detection, a.Clues, a.CogEmpathy, a.Action, a.Communication, a.Safety,
		a.Total, a.Notes,
		a.LowSupportPrompts, a.MediumSupportPrompts, a.HighSupportPrompts, a.Reformulations,
		string(a.Classification), a.AlternativeRationale, a.AlternativeDivergence,
	)
}

// GetSessionByID retrieves a session, or ErrNotFound
func (r *SessionRepository) GetSessionByID(sessionID int64) (*models.Session, error) {
	query := "SELECT id, client_id, created_at, mode, session_notes FROM sessions WHERE id = ?"

	s, err := scanSession(r.db.QueryRow(query, sessionID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	return s, nil
}

func scanSession(row rowScanner) (*models.Session, error) {
	var (
		s         models.Session
		mode      string
		notes     sql.NullString
		createdAt dbTime
	)
	if err := row.Scan(&s.ID, &s.PatientID, &createdAt, &mode, &notes); err != nil {
		return nil, err
	}
	s.Mode = models.SessionMode(mode)
	s.Notes = notes.String
	s.CreatedAt = createdAt.Time
	return &s, nil
}

// GetSessionAttempts retrieves all attempts of a session in insert order
func (r *SessionRepository) GetSessionAttempts(sessionID int64) ([]models.Attempt, error) {
	query := "SELECT " + attemptColumns + " FROM attempts a WHERE a.session_id = ? ORDER BY a.id ASC"

	rows, err := r.db.Query(query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to query attempts: %w", err)
	}
	defer rows.Close()

	attempts := []models.Attempt{}
	for rows.Next() {
		attempt, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attempt: %w", err)
		}
		attempts = append(attempts, *attempt)
	}
	return attempts, rows.Err()
}

// CountPatientSessions returns how many sessions a patient has
func (r *SessionRepository) CountPatientSessions(patientID int64) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM sessions WHERE client_id = ?", patientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return count, nil
}

// scanAttempt reads the columns listed in attemptColumns, optionally preceded by extra destinations
func scanAttempt(row rowScanner, prefix ...interface{}) (*models.Attempt, error) {
	var (
		a              models.Attempt
		notes          sql.NullString
		classification sql.NullString
		rationale      sql.NullString
		divergence     sql.NullString
	)
	dest := append(prefix,
		&a.ID, &a.SessionID, &a.CardID, &a.HintLevel,
		&a.Detection, &a.Clues, &a.CogEmpathy, &a.Action, &a.Communication, &a.Safety,
		&a.Total, &notes,
		&a.LowSupportPrompts, &a.MediumSupportPrompts, &a.HighSupportPrompts, &a.Reformulations,
		&classification, &rationale, &divergence,
	)
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	a.Notes = notes.String
	a.Classification = models.Classification(classification.String)
	if a.Classification == "" {
		a.Classification = models.ClassificationUnclassified
	}
	a.AlternativeRationale = rationale.String
	a.AlternativeDivergence = divergence.String
	return &a, nil
}
