package api

import (
	"net/http"

	"github.com/flashforge/flashforge/internal/models"
)

func (s *Server) handleTodayStats(w http.ResponseWriter, r *http.Request) {
	day, err := s.Stats.Today(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"stat":     day,
		"accuracy": day.Accuracy(),
	})
}

func (s *Server) handleStatsBreakdown(w http.ResponseWriter, r *http.Request) {
	days, err := s.Stats.Breakdown(r.Context(), queryInt(r, "days", 30))
	if err != nil {
		handleError(w, r, err)
		return
	}
	if days == nil {
		days = []models.DailyStat{}
	}
	respondJSON(w, http.StatusOK, days)
}

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	streak, err := s.Stats.Streak(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"streak": streak})
}

func (s *Server) handleAllTimeStats(w http.ResponseWriter, r *http.Request) {
	all, err := s.Stats.AllTime(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, all)
}
