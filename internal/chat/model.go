package chat

import (
	"context"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"google.golang.org/genai"
)

// ModelRequest is one generative-model invocation: system instructions, the
// transcript so far, and the tool schemas the model may call this round.
type ModelRequest struct {
	System   string
	Messages []*ai.Message
	Tools    []ai.ToolRef
}

// ModelClient is the generative-model boundary. The orchestrator only needs
// Generate; tests script it, production uses GenkitModel.
type ModelClient interface {
	Generate(ctx context.Context, req *ModelRequest) (*ai.ModelResponse, error)
}

// GenkitModel calls the configured model through Genkit. Tool requests are
// returned to the caller instead of being auto-executed, so the orchestrator
// keeps control of the loop.
type GenkitModel struct {
	g           *genkit.Genkit
	modelName   string
	temperature float32
	maxTokens   int
}

// NewGenkitModel creates a model client for the provider-qualified model
// name (for example "googleai/gemini-2.5-flash").
func NewGenkitModel(g *genkit.Genkit, modelName string, temperature float32, maxTokens int) *GenkitModel {
	return &GenkitModel{
		g:           g,
		modelName:   modelName,
		temperature: temperature,
		maxTokens:   maxTokens,
	}
}

func (m *GenkitModel) Generate(ctx context.Context, req *ModelRequest) (*ai.ModelResponse, error) {
	opts := []ai.GenerateOption{
		ai.WithModelName(m.modelName),
		ai.WithSystem(req.System),
		ai.WithMessages(req.Messages...),
		ai.WithConfig(&genai.GenerateContentConfig{
			Temperature:     genai.Ptr(m.temperature),
			MaxOutputTokens: int32(m.maxTokens),
		}),
	}
	if len(req.Tools) > 0 {
		opts = append(opts, ai.WithTools(req.Tools...), ai.WithReturnToolRequests(true))
	}
	return genkit.Generate(ctx, m.g, opts...)
}
