package handlers

import (
	"net/http"
	"strconv"

	"helpdetective/internal/catalog"
	"helpdetective/internal/logger"
	"helpdetective/internal/service"
)

// CardHandler serves the card catalog
type CardHandler struct {
	cards service.CardSource
	log   *logger.Logger
}

// NewCardHandler creates a new card handler
func NewCardHandler(cards service.CardSource, log *logger.Logger) *CardHandler {
	return &CardHandler{cards: cards, log: log}
}

// snapshot returns the current catalog, logging a failed reload
func (h *CardHandler) snapshot() *catalog.Snapshot {
	snap, err := h.cards.Current()
	if err != nil {
		h.log.Warn("Card catalog reload failed, using previous snapshot", "error", err)
	}
	return snap
}

// List returns every card in catalog order
func (h *CardHandler) List(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"cards": snap.Cards(),
		"count": snap.Len(),
	})
}

// Get returns one card by id
func (h *CardHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondWithError(w, h.log, http.StatusBadRequest, ErrInvalidID, "", nil)
		return
	}

	card, ok := h.snapshot().Lookup(id)
	if !ok {
		respondServiceError(w, h.log, "", service.ErrCardNotFound)
		return
	}
	respondJSON(w, http.StatusOK, card)
}
