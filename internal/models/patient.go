package models

import "time"

// AgeGroup is the patient's age band
type AgeGroup string

const (
	AgeGroupChild      AgeGroup = "crianca"
	AgeGroupAdolescent AgeGroup = "adolescente"
	AgeGroupAdult      AgeGroup = "adulto"
)

// AgeGroups lists the accepted age groups in display order
var AgeGroups = []AgeGroup{AgeGroupChild, AgeGroupAdolescent, AgeGroupAdult}

// Valid reports whether g is a known age group
func (g AgeGroup) Valid() bool {
	switch g {
	case AgeGroupChild, AgeGroupAdolescent, AgeGroupAdult:
		return true
	}
	return false
}

// Patient is a client of the clinic, stored in the clients table.
// Nickname is a code chosen by the clinician, never a real name.
type Patient struct {
	ID        int64     `json:"id"`
	Nickname  string    `json:"nickname"`
	AgeGroup  AgeGroup  `json:"age_group"`
	Notes     string    `json:"notes"`
	CreatedAt time.Time `json:"created_at"`
}
