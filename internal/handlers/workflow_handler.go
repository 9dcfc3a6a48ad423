package handlers

import (
	"net/http"
	"time"

	"helpdetective/internal/logger"
	"helpdetective/internal/models"
	"helpdetective/internal/security"
	"helpdetective/internal/service"
)

// WorkflowHandler drives the per-browser session workflow
type WorkflowHandler struct {
	registry *WorkflowRegistry
	csrf     *security.CSRFGenerator
	idle     time.Duration
	log      *logger.Logger
}

// NewWorkflowHandler creates a new workflow handler
func NewWorkflowHandler(registry *WorkflowRegistry, csrf *security.CSRFGenerator, log *logger.Logger) *WorkflowHandler {
	return &WorkflowHandler{
		registry: registry,
		csrf:     csrf,
		idle:     registry.idle,
		log:      log,
	}
}

type workflowResponse struct {
	service.WorkflowState
	CSRFToken string `json:"csrf_token"`

	DroppedDraftCardIDs []int                       `json:"dropped_draft_card_ids,omitempty"`
	Draft               *models.Attempt             `json:"draft,omitempty"`
	Session             *models.SessionWithAttempts `json:"session,omitempty"`
}

// cookieID returns the caller's workflow id when the cookie carries one
func cookieID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(WorkflowCookieName)
	if err != nil || !security.IsWorkflowID(cookie.Value) {
		return "", false
	}
	return cookie.Value, true
}

func (h *WorkflowHandler) setCookie(w http.ResponseWriter, r *http.Request, id string) {
	http.SetCookie(w, security.CreateSessionCookie(r, WorkflowCookieName, id, time.Now().Add(h.idle)))
}

// workflowFor finds the caller's workflow, starting one on first change.
// A caller without a cookie gets a new id and cookie.
func (h *WorkflowHandler) workflowFor(w http.ResponseWriter, r *http.Request) (string, *service.SessionWorkflow) {
	if id, ok := cookieID(r); ok {
		return id, h.registry.GetOrCreate(id)
	}

	id, wf := h.registry.Create()
	h.setCookie(w, r, id)
	return id, wf
}

// respondState fills resp with the workflow snapshot and CSRF token
func (h *WorkflowHandler) respondState(w http.ResponseWriter, id string, wf *service.SessionWorkflow, resp workflowResponse) {
	resp.WorkflowState = wf.Snapshot()
	h.respond(w, id, resp)
}

func (h *WorkflowHandler) respond(w http.ResponseWriter, id string, resp workflowResponse) {
	token, err := h.csrf.GenerateToken(id)
	if err != nil {
		respondWithError(w, h.log, http.StatusInternalServerError, ErrInternalServerError, "Failed to generate CSRF token", err)
		return
	}
	resp.CSRFToken = token
	respondJSON(w, http.StatusOK, resp)
}

// State returns the caller's workflow and its CSRF token. Reading never
// registers a workflow; one without a live entry reads as the initial state.
func (h *WorkflowHandler) State(w http.ResponseWriter, r *http.Request) {
	id, ok := cookieID(r)
	if !ok {
		id = security.NewWorkflowID()
		h.setCookie(w, r, id)
	}

	if wf, found := h.registry.Get(id); found {
		h.respondState(w, id, wf, workflowResponse{})
		return
	}
	h.respond(w, id, workflowResponse{WorkflowState: service.WorkflowState{
		SelectedCardIDs: []int{},
		Drafts:          []models.Attempt{},
	}})
}

// SelectPatient makes a patient active
func (h *WorkflowHandler) SelectPatient(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PatientID int64 `json:"patient_id"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	id, wf := h.workflowFor(w, r)
	if err := wf.SelectPatient(req.PatientID); err != nil {
		respondServiceError(w, h.log, "Failed to select patient", err)
		return
	}
	h.respondState(w, id, wf, workflowResponse{})
}

// ChooseCards replaces the card selection. Drafts dropped by the new
// selection are reported back so the UI can tell the clinician.
func (h *WorkflowHandler) ChooseCards(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CardIDs []int `json:"card_ids"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	id, wf := h.workflowFor(w, r)
	dropped, err := wf.ChooseCards(req.CardIDs)
	if err != nil {
		respondServiceError(w, h.log, "Failed to choose cards", err)
		return
	}
	h.respondState(w, id, wf, workflowResponse{DroppedDraftCardIDs: dropped})
}

// Next moves to the next card
func (h *WorkflowHandler) Next(w http.ResponseWriter, r *http.Request) {
	id, wf := h.workflowFor(w, r)
	wf.Advance()
	h.respondState(w, id, wf, workflowResponse{})
}

// Prev moves to the previous card
func (h *WorkflowHandler) Prev(w http.ResponseWriter, r *http.Request) {
	id, wf := h.workflowFor(w, r)
	wf.Retreat()
	h.respondState(w, id, wf, workflowResponse{})
}

// Score stores the draft for the current card
func (h *WorkflowHandler) Score(w http.ResponseWriter, r *http.Request) {
	var in service.ScoreInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	id, wf := h.workflowFor(w, r)
	draft, err := wf.ScoreCurrent(in)
	if err != nil {
		respondServiceError(w, h.log, "Failed to score card", err)
		return
	}
	h.respondState(w, id, wf, workflowResponse{Draft: &draft})
}

// Finish commits the drafts as a session
func (h *WorkflowHandler) Finish(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode  models.SessionMode `json:"mode"`
		Notes string             `json:"notes"`
	}
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidJSON, "", nil)
		return
	}

	id, wf := h.workflowFor(w, r)
	committed, err := wf.FinishSession(req.Mode, req.Notes)
	if err != nil {
		respondServiceError(w, h.log, "Failed to save session", err)
		return
	}
	h.respondState(w, id, wf, workflowResponse{Session: committed})
}
