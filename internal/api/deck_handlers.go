package api

import (
	"net/http"
	"time"

	"github.com/flashforge/flashforge/internal/logger"
	"github.com/flashforge/flashforge/internal/models"
)

type createDeckRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	RuleSet string `json:"rule_set" validate:"omitempty,oneof=sm2 leitner"`
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var req createDeckRequest
	if err := s.decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	deck, err := s.Decks.CreateDeck(r.Context(), req.Name, models.RuleSet(req.RuleSet))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, deck)
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.Decks.ListDecks(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if decks == nil {
		decks = []models.Deck{}
	}
	respondJSON(w, http.StatusOK, decks)
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	deck, err := s.Decks.GetDeck(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, deck)
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	id, err := urlParamInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Decks.DeleteDeck(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("deck deleted via api: id=%d", id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeckProgress(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	progress, err := s.Decks.Progress(r.Context(), id, time.Now())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, progress)
}

func (s *Server) handleHardestCards(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	cards, err := s.Stats.HardestCards(r.Context(), id, queryInt(r, "limit", 10))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if cards == nil {
		cards = []models.HardCard{}
	}
	respondJSON(w, http.StatusOK, cards)
}
