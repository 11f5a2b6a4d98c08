package api

import (
	"net/http"

	"github.com/flashforge/flashforge/internal/evaluator"
	"github.com/flashforge/flashforge/internal/models"
	"github.com/flashforge/flashforge/internal/session"
)

type startSessionRequest struct {
	DeckID          int64  `json:"deck_id" validate:"required"`
	Mode            string `json:"mode" validate:"required,oneof=flashcards learn write test match"`
	Shuffle         bool   `json:"shuffle"`
	DefinitionFirst bool   `json:"definition_first"`
	StarredOnly     bool   `json:"starred_only"`
	Limit           int    `json:"limit" validate:"omitempty,min=1,max=500"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := s.decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	info, err := s.Study.StartSession(r.Context(), req.DeckID, models.Mode(req.Mode), session.Options{
		Shuffle:         req.Shuffle,
		DefinitionFirst: req.DefinitionFirst,
		StarredOnly:     req.StarredOnly,
		Limit:           req.Limit,
	})
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, info)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.Study.GetSession(r.Context(), sessionID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleNextQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := s.Study.NextQuestion(r.Context(), sessionID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, q)
}

func (s *Server) handleSubmitResponse(w http.ResponseWriter, r *http.Request) {
	var resp evaluator.Response
	if err := s.decodeJSON(r, &resp); err != nil {
		handleError(w, r, err)
		return
	}

	outcome, info, err := s.Study.SubmitResponse(r.Context(), sessionID(r), resp)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"outcome": outcome,
		"session": info,
	})
}

func (s *Server) handleSkipCard(w http.ResponseWriter, r *http.Request) {
	info, err := s.Study.SkipCard(r.Context(), sessionID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handlePauseSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Study.PauseSession(r.Context(), sessionID(r)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Study.ResumeSession(r.Context(), sessionID(r)); err != nil {
		handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAbortSession(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Study.AbortSession(r.Context(), sessionID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}

func (s *Server) handleRestartSession(w http.ResponseWriter, r *http.Request) {
	info, err := s.Study.RestartSession(r.Context(), sessionID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, info)
}

func (s *Server) handleSessionSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := s.Study.Summary(r.Context(), sessionID(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, summary)
}
