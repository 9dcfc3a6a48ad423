package handlers

import (
	"net/http"

	"helpdetective/internal/logger"
)

// Handlers bundles the handlers mounted by NewRouter
type Handlers struct {
	Auth     *AuthHandler
	Patients *PatientHandler
	Cards    *CardHandler
	Workflow *WorkflowHandler
	Reports  *ReportHandler
}

// NewRouter registers every route and wraps the mux with request logging
func NewRouter(h Handlers, m *Middleware, log *logger.Logger) http.Handler {
	mux := http.NewServeMux()

	// Public routes
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	mux.HandleFunc("GET /manual", Manual)
	mux.HandleFunc("POST /login", m.RateLimit(h.Auth.Login))
	mux.HandleFunc("POST /logout", h.Auth.Logout)

	protected := func(next http.HandlerFunc) http.HandlerFunc {
		return m.RequireAuth(m.CSRFProtect(next))
	}

	mux.HandleFunc("GET /api/patients", protected(h.Patients.List))
	mux.HandleFunc("POST /api/patients", protected(h.Patients.Create))
	mux.HandleFunc("GET /api/patients/nickname", protected(h.Patients.SuggestNickname))

	mux.HandleFunc("GET /api/cards", protected(h.Cards.List))
	mux.HandleFunc("GET /api/cards/{id}", protected(h.Cards.Get))

	mux.HandleFunc("GET /api/workflow", protected(h.Workflow.State))
	mux.HandleFunc("POST /api/workflow/patient", protected(h.Workflow.SelectPatient))
	mux.HandleFunc("POST /api/workflow/cards", protected(h.Workflow.ChooseCards))
	mux.HandleFunc("POST /api/workflow/next", protected(h.Workflow.Next))
	mux.HandleFunc("POST /api/workflow/prev", protected(h.Workflow.Prev))
	mux.HandleFunc("POST /api/workflow/score", protected(h.Workflow.Score))
	mux.HandleFunc("POST /api/workflow/finish", protected(h.Workflow.Finish))

	mux.HandleFunc("GET /api/reports/{patientId}", protected(h.Reports.Show))
	mux.HandleFunc("GET /api/reports/{patientId}/csv", protected(h.Reports.CSV))
	mux.HandleFunc("POST /api/reports/{patientId}/email", protected(h.Reports.Email))

	return Logging(log, mux)
}
