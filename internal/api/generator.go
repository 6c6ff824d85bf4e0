package api

//go:generate mockgen -destination=./mock_generator.go -package=api -source=generator.go Generator

import (
	"context"

	"github.com/diogo/panjul/internal/models"
)

// Generator produces a model reply for a prompt given the prior conversation.
type Generator interface {
	// Generate returns the complete reply text.
	Generate(ctx context.Context, history []models.Message, prompt string) (string, error)
	// GenerateStream calls onChunk for every piece of text as it arrives and
	// returns the concatenated reply.
	GenerateStream(ctx context.Context, history []models.Message, prompt string, onChunk func(string)) (string, error)
}
