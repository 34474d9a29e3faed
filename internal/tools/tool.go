// Package tools defines the callable capabilities the generative model may
// invoke during a query, and the registry that dispatches them by name.
//
// Tools are a closed set registered at startup. Dispatch goes through a
// lookup table keyed by tool name; argument payloads arrive as the untyped
// JSON maps produced by the model and are decoded into each tool's typed
// input.
package tools

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
)

// Attribution records which course and lesson a piece of tool output came
// from. It lives only for the duration of one query, so the caller can show
// "what was consulted" next to the final answer. Not persisted.
type Attribution struct {
	CourseTitle  string `json:"course_title"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
	Link         string `json:"link,omitempty"`
}

// Result is one tool execution's outcome: the text block appended to the
// model-visible transcript, plus the source attributions behind it.
type Result struct {
	Text    string
	Sources []Attribution
}

// Tool is one callable capability. Implementations carry their own argument
// schema (via Definition) and execution logic.
type Tool interface {
	// Name returns the tool's unique identifier, as the model invokes it.
	Name() string

	// Description tells the model when to call the tool.
	Description() string

	// Definition registers the tool's typed schema with Genkit so it can be
	// offered to the model.
	Definition(g *genkit.Genkit) ai.Tool

	// Execute runs the tool against the untyped argument map from a model
	// tool request. Expected, recoverable outcomes (no course matched, no
	// content found) are ordinary Results; an error means the tool itself
	// failed.
	Execute(ctx context.Context, args map[string]any) (Result, error)
}

// decodeArgs converts a model-supplied argument map into a tool's typed
// input via a JSON round trip, matching how Genkit itself decodes tool
// payloads.
func decodeArgs[T any](args map[string]any) (T, error) {
	var in T
	data, err := json.Marshal(args)
	if err != nil {
		return in, fmt.Errorf("encoding tool arguments: %w", err)
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return in, fmt.Errorf("decoding tool arguments: %w", err)
	}
	return in, nil
}
