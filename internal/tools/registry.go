package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Registry holds the closed set of tools available to the model and
// dispatches executions by name.
//
// Registration happens once at startup; after that the registry is
// read-only and safe for concurrent use.
type Registry struct {
	order  []string
	tools  map[string]Tool
	logger *slog.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		tools:  make(map[string]Tool),
		logger: logger,
	}
}

// Register adds a tool. Registration order is preserved so tool schemas are
// presented to the model deterministically.
func (r *Registry) Register(t Tool) error {
	name := t.Name()
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = t
	r.order = append(r.order, name)
	return nil
}

// DefineAll registers every tool's schema with Genkit and returns the refs
// to include in model requests.
func (r *Registry) DefineAll(g *genkit.Genkit) []ai.ToolRef {
	refs := make([]ai.ToolRef, 0, len(r.order))
	for _, name := range r.order {
		refs = append(refs, r.tools[name].Definition(g))
	}
	return refs
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Execute dispatches one tool call. An unknown tool name is a model mistake,
// not a system fault: the result text tells the model so it can recover
// conversationally.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (Result, error) {
	t, ok := r.tools[name]
	if !ok {
		r.logger.Warn("model requested unknown tool", "tool", name)
		return Result{Text: fmt.Sprintf("Tool '%s' not found", name)}, nil
	}

	res, err := t.Execute(ctx, args)
	if err != nil {
		return Result{}, fmt.Errorf("executing tool %q: %w", name, err)
	}
	return res, nil
}
