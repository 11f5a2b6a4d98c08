package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(loggingMiddleware)
	r.Use(securityHeadersMiddleware)
	r.Use(timeoutMiddleware(30 * time.Second))

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/decks", func(r chi.Router) {
			r.Get("/", s.handleListDecks)
			r.Post("/", s.handleCreateDeck)
			r.Get("/{id}", s.handleGetDeck)
			r.Delete("/{id}", s.handleDeleteDeck)
			r.Get("/{id}/cards", s.handleListCards)
			r.Post("/{id}/cards", s.handleAddCard)
			r.Post("/{id}/cards/import", s.handleImportCards)
			r.Get("/{id}/progress", s.handleDeckProgress)
			r.Get("/{id}/hardest", s.handleHardestCards)
		})

		r.Route("/cards", func(r chi.Router) {
			r.Delete("/{id}", s.handleDeleteCard)
			r.Post("/{id}/star", s.handleToggleStar)
			r.Post("/{id}/reset", s.handleResetCard)
		})

		r.Route("/sessions", func(r chi.Router) {
			r.Post("/", s.handleStartSession)
			r.Get("/{id}", s.handleGetSession)
			r.Get("/{id}/question", s.handleNextQuestion)
			r.Post("/{id}/response", s.handleSubmitResponse)
			r.Post("/{id}/skip", s.handleSkipCard)
			r.Post("/{id}/pause", s.handlePauseSession)
			r.Post("/{id}/resume", s.handleResumeSession)
			r.Post("/{id}/abort", s.handleAbortSession)
			r.Post("/{id}/restart", s.handleRestartSession)
			r.Get("/{id}/summary", s.handleSessionSummary)
		})

		r.Route("/stats", func(r chi.Router) {
			r.Get("/today", s.handleTodayStats)
			r.Get("/breakdown", s.handleStatsBreakdown)
			r.Get("/streak", s.handleStreak)
			r.Get("/alltime", s.handleAllTimeStats)
		})
	})

	return r
}
