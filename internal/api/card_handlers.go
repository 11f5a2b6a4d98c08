package api

import (
	"net/http"

	"github.com/flashforge/flashforge/internal/logger"
	"github.com/flashforge/flashforge/internal/models"
)

type cardRequest struct {
	Term       string `json:"term" validate:"required"`
	Definition string `json:"definition" validate:"required"`
	Hint       string `json:"hint"`
}

type importCardsRequest struct {
	Cards []cardRequest `json:"cards" validate:"required,min=1,dive"`
}

func (s *Server) handleAddCard(w http.ResponseWriter, r *http.Request) {
	deckID, err := urlParamInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req cardRequest
	if err := s.decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	card, err := s.Decks.AddCard(r.Context(), models.Card{
		DeckID:     deckID,
		Term:       req.Term,
		Definition: req.Definition,
		Hint:       req.Hint,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, card)
}

func (s *Server) handleImportCards(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	deckID, err := urlParamInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	var req importCardsRequest
	if err := s.decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	cards := make([]models.Card, 0, len(req.Cards))
	for _, c := range req.Cards {
		cards = append(cards, models.Card{Term: c.Term, Definition: c.Definition, Hint: c.Hint})
	}
	ids, err := s.Decks.ImportCards(r.Context(), deckID, cards)
	if err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("imported %d cards via api: deck_id=%d", len(ids), deckID)
	respondJSON(w, http.StatusCreated, map[string]any{"ids": ids, "count": len(ids)})
}

func (s *Server) handleListCards(w http.ResponseWriter, r *http.Request) {
	deckID, err := urlParamInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}

	filter := models.CardFilter{
		DeckID: deckID,
		Search: r.URL.Query().Get("search"),
		Limit:  queryInt(r, "limit", 0),
		Offset: queryInt(r, "offset", 0),
	}
	if raw := r.URL.Query().Get("starred"); raw != "" {
		starred := raw == "true" || raw == "1"
		filter.Starred = &starred
	}

	cards, err := s.Decks.ListCards(r.Context(), filter)
	if err != nil {
		handleError(w, r, err)
		return
	}
	if cards == nil {
		cards = []models.Card{}
	}
	respondJSON(w, http.StatusOK, cards)
}

func (s *Server) handleDeleteCard(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Decks.DeleteCard(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleStar(w http.ResponseWriter, r *http.Request) {
	id, err := urlParamInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	starred, err := s.Decks.ToggleStar(r.Context(), id)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"id": id, "starred": starred})
}

func (s *Server) handleResetCard(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	id, err := urlParamInt64(r, "id")
	if err != nil {
		handleError(w, r, err)
		return
	}
	if err := s.Decks.ResetCard(r.Context(), id); err != nil {
		handleError(w, r, err)
		return
	}
	log.Info("card scheduling reset via api: id=%d", id)
	w.WriteHeader(http.StatusNoContent)
}
