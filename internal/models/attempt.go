package models

import "time"

// Rubric maximums
const (
	MaxHintLevel     = 3
	MaxDetection     = 2
	MaxClues         = 2
	MaxCogEmpathy    = 2
	MaxAction        = 3
	MaxCommunication = 1
	MaxSafety        = 2

	// MaxReformulations is the workflow cap per attempt; storage accepts more.
	MaxReformulations = 1

	MaxTotal = MaxDetection + MaxClues + MaxCogEmpathy + MaxAction + MaxCommunication + MaxSafety
)

// Classification categorizes the patient's response against the card's target
type Classification string

const (
	ClassificationUnclassified     Classification = "nao_classificada"
	ClassificationTarget           Classification = "alvo"
	ClassificationPartial          Classification = "parcial"
	ClassificationValidAlternative Classification = "alternativa_valida"
	ClassificationInadequate       Classification = "inadequada"
)

// Valid reports whether c is a known classification
func (c Classification) Valid() bool {
	switch c {
	case ClassificationUnclassified, ClassificationTarget, ClassificationPartial,
		ClassificationValidAlternative, ClassificationInadequate:
		return true
	}
	return false
}

// Scores holds the six rubric values for one attempt
type Scores struct {
	Detection     int `json:"detection" validate:"min=0,max=2"`
	Clues         int `json:"clues" validate:"min=0,max=2"`
	CogEmpathy    int `json:"cog_empathy" validate:"min=0,max=2"`
	Action        int `json:"action" validate:"min=0,max=3"`
	Communication int `json:"communication" validate:"min=0,max=1"`
	Safety        int `json:"safety" validate:"min=0,max=2"`
}

// Sum is the exact sum of the six rubrics
func (s Scores) Sum() int {
	return s.Detection + s.Clues + s.CogEmpathy + s.Action + s.Communication + s.Safety
}

// SupportCounters records how much prompting an attempt needed
type SupportCounters struct {
	LowSupportPrompts    int `json:"low_support_prompts" validate:"min=0"`
	MediumSupportPrompts int `json:"medium_support_prompts" validate:"min=0"`
	HighSupportPrompts   int `json:"high_support_prompts" validate:"min=0"`
	Reformulations       int `json:"reformulations" validate:"min=0,max=1"`
}

// Attempt is one scored response to one card. Total always equals Scores.Sum().
type Attempt struct {
	ID        int64 `json:"id"`
	SessionID int64 `json:"session_id"`
	CardID    int   `json:"card_id"`
	HintLevel int   `json:"hint_level"`
	Scores
	Total int    `json:"total"`
	Notes string `json:"notes"`
	SupportCounters
	Classification        Classification `json:"classification"`
	AlternativeRationale  string         `json:"alternative_rationale"`
	AlternativeDivergence string         `json:"alternative_divergence"`
}

// ReportRow is one attempt joined with its session, as exported in reports
type ReportRow struct {
	SessionCreatedAt time.Time   `json:"created_at"`
	Mode             SessionMode `json:"mode"`
	Attempt
}

// ReportSummary aggregates a patient's attempts
type ReportSummary struct {
	Attempts      int     `json:"attempts"`
	Sessions      int     `json:"sessions"`
	MeanTotal     float64 `json:"mean_total"`
	MeanHintLevel float64 `json:"mean_hint_level"`
}
