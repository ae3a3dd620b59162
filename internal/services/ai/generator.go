package ai

//go:generate mockgen -destination=mock/mock_generator.go -package=mockai -source=generator.go

import (
	"context"
)

// GenerateInput is what a generation service receives
type GenerateInput struct {
	SystemPrompt string
	Context      string

	// JSON asks the provider for a JSON object response when it supports it
	JSON bool
}

// Generator is the external AI generation service. It returns free text or JSON.
type Generator interface {
	Generate(ctx context.Context, input *GenerateInput) (string, error)
}
