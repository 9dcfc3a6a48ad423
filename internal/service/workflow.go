package service

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"helpdetective/internal/logger"
	"helpdetective/internal/models"
	"helpdetective/internal/validation"
)

// ScoreInput is what the clinician enters for the current card
type ScoreInput struct {
	HintLevel int `json:"hint_level" validate:"min=0,max=3"`
	models.Scores
	Notes string `json:"notes"`
	models.SupportCounters
	Classification        models.Classification `json:"classification" validate:"omitempty,oneof=nao_classificada alvo parcial alternativa_valida inadequada"`
	AlternativeRationale  string                `json:"alternative_rationale"`
	AlternativeDivergence string                `json:"alternative_divergence"`
}

// WorkflowState is a read-only view of a workflow
type WorkflowState struct {
	PatientID       *int64           `json:"patient_id"`
	SelectedCardIDs []int            `json:"selected_card_ids"`
	Cursor          int              `json:"cursor"`
	CurrentCardID   *int             `json:"current_card_id"`
	Drafts          []models.Attempt `json:"drafts"`
}

// SessionWorkflow walks one clinician through a chosen set of cards and
// accumulates scored drafts until the session is finished. A zero cursor with
// no selection is the initial state.
type SessionWorkflow struct {
	mu sync.Mutex

	patients PatientStore
	sessions SessionStore
	cards    CardSource
	log      *logger.Logger

	activePatientID *int64
	selected        []int
	cursor          int

	// drafts keeps first-scored order; draftIndex maps card id to position
	drafts     []models.Attempt
	draftIndex map[int]int
}

// NewSessionWorkflow creates an empty workflow
func NewSessionWorkflow(patients PatientStore, sessions SessionStore, cards CardSource, log *logger.Logger) *SessionWorkflow {
	if log == nil {
		log = logger.Nop()
	}
	return &SessionWorkflow{
		patients:   patients,
		sessions:   sessions,
		cards:      cards,
		log:        log,
		draftIndex: make(map[int]int),
	}
}

// SelectPatient makes id the active patient. Switching to a different
// patient discards the selection, cursor and drafts of the previous one.
func (w *SessionWorkflow) SelectPatient(id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.patients.GetPatientByID(id); err != nil {
		return storageErr("select patient", err, ErrPatientNotFound)
	}

	if w.activePatientID != nil && *w.activePatientID == id {
		return nil
	}
	w.clearLocked()
	w.activePatientID = &id
	return nil
}

// ChooseCards replaces the selection with ids, keeping first occurrences in
// order. Drafts for cards no longer selected are dropped and their ids
// returned.
func (w *SessionWorkflow) ChooseCards(ids []int) ([]int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.activePatientID == nil {
		return nil, ErrNoActivePatient
	}
	if len(ids) == 0 {
		return nil, ErrEmptySelection
	}

	snap, err := w.cards.Current()
	if err != nil {
		w.log.Warn("Card catalog reload failed, using previous snapshot", "error", err)
	}

	selected := make([]int, 0, len(ids))
	seen := make(map[int]bool, len(ids))
	for _, id := range ids {
		if !snap.Contains(id) {
			return nil, validation.New("card_ids", fmt.Sprintf("card %d is not in the catalog", id))
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		selected = append(selected, id)
	}

	var dropped []int
	kept := make([]models.Attempt, 0, len(w.drafts))
	for _, d := range w.drafts {
		if seen[d.CardID] {
			kept = append(kept, d)
		} else {
			dropped = append(dropped, d.CardID)
		}
	}

	w.selected = selected
	w.setDraftsLocked(kept)
	if w.cursor > len(selected)-1 {
		w.cursor = len(selected) - 1
	}
	return dropped, nil
}

// Advance moves the cursor forward, stopping at the last card
func (w *SessionWorkflow) Advance() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cursor < len(w.selected)-1 {
		w.cursor++
	}
	return w.cursor
}

// Retreat moves the cursor back, stopping at the first card
func (w *SessionWorkflow) Retreat() int {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.cursor > 0 {
		w.cursor--
	}
	return w.cursor
}

// ScoreCurrent validates in and stores it as the draft for the current card,
// replacing any earlier draft for that card.
func (w *SessionWorkflow) ScoreCurrent(in ScoreInput) (models.Attempt, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.activePatientID == nil {
		return models.Attempt{}, ErrNoActivePatient
	}
	if len(w.selected) == 0 {
		return models.Attempt{}, ErrEmptySelection
	}
	if err := validation.Struct(in); err != nil {
		return models.Attempt{}, err
	}

	classification := in.Classification
	if classification == "" {
		classification = models.ClassificationUnclassified
	}

	draft := models.Attempt{
		CardID:          w.selected[w.cursor],
		HintLevel:       in.HintLevel,
		Scores:          in.Scores,
		Total:           in.Scores.Sum(),
		Notes:           strings.TrimSpace(in.Notes),
		SupportCounters: in.SupportCounters,
		Classification:  classification,
	}
	if classification == models.ClassificationValidAlternative {
		draft.AlternativeRationale = strings.TrimSpace(in.AlternativeRationale)
		draft.AlternativeDivergence = strings.TrimSpace(in.AlternativeDivergence)
	}

	if i, ok := w.draftIndex[draft.CardID]; ok {
		w.drafts[i] = draft
	} else {
		w.draftIndex[draft.CardID] = len(w.drafts)
		w.drafts = append(w.drafts, draft)
	}
	return draft, nil
}

// FinishSession commits the drafts as one session. On success the drafts are
// cleared and the cursor rewinds; the patient and selection are kept. On any
// failure the workflow is unchanged.
func (w *SessionWorkflow) FinishSession(mode models.SessionMode, notes string) (*models.SessionWithAttempts, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.activePatientID == nil {
		return nil, ErrNoActivePatient
	}
	if !mode.Valid() {
		return nil, validation.New("mode", "mode must be one of: treino_guiado, treino_independente, avaliacao")
	}
	if len(w.drafts) == 0 {
		return nil, ErrNoDrafts
	}

	committed, err := w.sessions.CommitSession(*w.activePatientID, mode, strings.TrimSpace(notes), slices.Clone(w.drafts))
	if err != nil {
		return nil, storageErr("commit session", err, ErrPatientNotFound)
	}

	w.log.Info("Session committed",
		"session_id", committed.Session.ID,
		"patient_id", committed.Session.PatientID,
		"mode", mode,
		"attempts", len(committed.Attempts))

	w.setDraftsLocked(nil)
	w.cursor = 0
	return committed, nil
}

// Reset returns the workflow to its initial state
func (w *SessionWorkflow) Reset() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clearLocked()
	w.activePatientID = nil
}

// Snapshot returns a copy of the current state
func (w *SessionWorkflow) Snapshot() WorkflowState {
	w.mu.Lock()
	defer w.mu.Unlock()

	state := WorkflowState{
		SelectedCardIDs: slices.Clone(w.selected),
		Cursor:          w.cursor,
		Drafts:          slices.Clone(w.drafts),
	}
	if state.SelectedCardIDs == nil {
		state.SelectedCardIDs = []int{}
	}
	if state.Drafts == nil {
		state.Drafts = []models.Attempt{}
	}
	if w.activePatientID != nil {
		id := *w.activePatientID
		state.PatientID = &id
	}
	if len(w.selected) > 0 {
		id := w.selected[w.cursor]
		state.CurrentCardID = &id
	}
	return state
}

func (w *SessionWorkflow) clearLocked() {
	w.selected = nil
	w.cursor = 0
	w.setDraftsLocked(nil)
}

func (w *SessionWorkflow) setDraftsLocked(drafts []models.Attempt) {
	w.drafts = drafts
	w.draftIndex = make(map[int]int, len(drafts))
	for i, d := range drafts {
		w.draftIndex[d.CardID] = i
	}
}
