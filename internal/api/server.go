package api

import (
	"github.com/go-playground/validator/v10"

	"github.com/flashforge/flashforge/internal/services"
)

type Server struct {
	Decks services.DeckService
	Study services.StudyService
	Stats services.StatsService

	validate *validator.Validate
}

// NewServer creates a Server wired to the given services.
func NewServer(decks services.DeckService, study services.StudyService, stats services.StatsService) *Server {
	return &Server{
		Decks:    decks,
		Study:    study,
		Stats:    stats,
		validate: validator.New(),
	}
}
