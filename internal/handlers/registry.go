package handlers

import (
	"sync"
	"time"

	"helpdetective/internal/security"
	"helpdetective/internal/service"
)

type registryEntry struct {
	workflow *service.SessionWorkflow
	lastSeen time.Time
}

// WorkflowRegistry owns one SessionWorkflow per clinician browser session
type WorkflowRegistry struct {
	mu      sync.Mutex
	entries map[string]*registryEntry
	idle    time.Duration
	newFlow func() *service.SessionWorkflow
	now     func() time.Time
}

// NewWorkflowRegistry creates a registry that builds workflows with newFlow
// and forgets them after idle without use
func NewWorkflowRegistry(idle time.Duration, newFlow func() *service.SessionWorkflow) *WorkflowRegistry {
	return &WorkflowRegistry{
		entries: make(map[string]*registryEntry),
		idle:    idle,
		newFlow: newFlow,
		now:     time.Now,
	}
}

// Get returns the workflow for id and marks it as used
func (r *WorkflowRegistry) Get(id string) (*service.SessionWorkflow, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	e.lastSeen = r.now()
	return e.workflow, true
}

// Create starts a fresh workflow under a new id
func (r *WorkflowRegistry) Create() (string, *service.SessionWorkflow) {
	id := security.NewWorkflowID()
	return id, r.GetOrCreate(id)
}

// GetOrCreate returns the workflow for id, starting one when id has none
func (r *WorkflowRegistry) GetOrCreate(id string) *service.SessionWorkflow {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[id]; ok {
		e.lastSeen = r.now()
		return e.workflow
	}
	wf := r.newFlow()
	r.entries[id] = &registryEntry{workflow: wf, lastSeen: r.now()}
	return wf
}

// Remove forgets id
func (r *WorkflowRegistry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, id)
}

// Prune drops workflows idle longer than the configured timeout and returns
// how many were removed. Uncommitted drafts in them are lost.
func (r *WorkflowRegistry) Prune() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	removed := 0
	for id, e := range r.entries {
		if now.Sub(e.lastSeen) > r.idle {
			delete(r.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of live workflows
func (r *WorkflowRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
