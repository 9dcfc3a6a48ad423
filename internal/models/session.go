package models

import "time"

// SessionMode is how the clinician ran the session
type SessionMode string

const (
	ModeGuidedTraining      SessionMode = "treino_guiado"
	ModeIndependentTraining SessionMode = "treino_independente"
	ModeEvaluation          SessionMode = "avaliacao"
)

// SessionModes lists the accepted modes in display order
var SessionModes = []SessionMode{ModeGuidedTraining, ModeIndependentTraining, ModeEvaluation}

// Valid reports whether m is a known session mode
func (m SessionMode) Valid() bool {
	switch m {
	case ModeGuidedTraining, ModeIndependentTraining, ModeEvaluation:
		return true
	}
	return false
}

// Session is one committed clinical encounter
type Session struct {
	ID        int64       `json:"id"`
	PatientID int64       `json:"client_id"`
	CreatedAt time.Time   `json:"created_at"`
	Mode      SessionMode `json:"mode"`
	Notes     string      `json:"session_notes"`
}

// SessionWithAttempts is a session together with the attempts committed in it
type SessionWithAttempts struct {
	Session  Session   `json:"session"`
	Attempts []Attempt `json:"attempts"`
}
