// Package chat drives one query end to end through the tool-calling loop:
// build the prompt, call the generative model, execute any requested tools,
// and repeat until the model produces a final answer or the round bound
// forces one.
//
// The loop is an explicit finite state machine with a bounded round counter,
// so termination holds regardless of model behavior. Model calls go through
// retry with backoff, a rate limiter, and a circuit breaker.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/firebase/genkit/go/ai"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/lecternhq/lectern/internal/session"
	"github.com/lecternhq/lectern/internal/tools"
)

// ErrGenerationUnavailable indicates the model service failed after
// exhausting retries, or the circuit breaker is open. It is the only
// user-fatal failure on the query path.
var ErrGenerationUnavailable = errors.New("generation unavailable")

// DefaultMaxToolRounds bounds how many tool-execution rounds one query may
// take before the model is forced to answer with what it has.
const DefaultMaxToolRounds = 2

// state is the orchestrator's position in the tool-calling loop.
type state int

const (
	stateAwaitingModel state = iota
	stateExecutingTool
	stateDone
)

// ToolExecutor dispatches one tool call by name. The registry implements
// it; orchestrator tests script it.
type ToolExecutor interface {
	Execute(ctx context.Context, name string, args map[string]any) (tools.Result, error)
}

// Answer is one completed query: the final text, the source attributions
// gathered across all tool executions, and the session the exchange was
// recorded in.
type Answer struct {
	Text      string
	Sources   []tools.Attribution
	SessionID uuid.UUID
}

// Config tunes the orchestrator. Zero values use defaults.
type Config struct {
	MaxToolRounds int
	Retry         RetryConfig
	Breaker       CircuitBreakerConfig
	Limiter       *rate.Limiter
}

// Orchestrator owns the query lifecycle. It is constructed once at startup
// with its collaborators and is safe for concurrent use; queries on the
// same session are serialized by the session itself.
type Orchestrator struct {
	model     ModelClient
	executor  ToolExecutor
	toolRefs  []ai.ToolRef
	sessions  *session.Manager
	maxRounds int
	retry     RetryConfig
	breaker   *CircuitBreaker
	limiter   *rate.Limiter
	logger    *slog.Logger
}

// New creates an orchestrator. toolRefs are the schemas offered to the
// model each round; executor runs the calls the model makes against them.
func New(model ModelClient, executor ToolExecutor, toolRefs []ai.ToolRef, sessions *session.Manager, cfg Config, logger *slog.Logger) *Orchestrator {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.MaxToolRounds <= 0 {
		cfg.MaxToolRounds = DefaultMaxToolRounds
	}
	if cfg.Retry.MaxRetries == 0 && cfg.Retry.InitialInterval == 0 {
		cfg.Retry = DefaultRetryConfig()
	}

	return &Orchestrator{
		model:     model,
		executor:  executor,
		toolRefs:  toolRefs,
		sessions:  sessions,
		maxRounds: cfg.MaxToolRounds,
		retry:     cfg.Retry,
		breaker:   NewCircuitBreaker(cfg.Breaker),
		limiter:   cfg.Limiter,
		logger:    logger,
	}
}

// Query answers one user query. sessionID selects the conversation; the
// zero UUID, or an unknown one, starts a new session. The new exchange is
// appended to the session's history only after the answer is final.
func (o *Orchestrator) Query(ctx context.Context, sessionID uuid.UUID, query string) (*Answer, error) {
	sess := o.sessions.GetOrCreate(sessionID)

	// One query in flight per session, so history is appended strictly in
	// arrival order.
	sess.Acquire()
	defer sess.Release()

	system := buildSystem(sess.History())
	msgs := []*ai.Message{ai.NewUserTextMessage(query)}

	var (
		st       = stateAwaitingModel
		rounds   = 0
		pending  []*ai.ToolRequest
		sources  []tools.Attribution
		finalTxt string
	)

	for st != stateDone {
		switch st {
		case stateAwaitingModel:
			req := &ModelRequest{System: system, Messages: msgs}
			// Tool schemas are offered every round until the bound; the
			// final forced call goes out without them so the model must
			// answer from gathered context.
			if rounds < o.maxRounds {
				req.Tools = o.toolRefs
			}

			resp, err := o.generate(ctx, req)
			if err != nil {
				return nil, err
			}

			if reqs := resp.ToolRequests(); len(reqs) > 0 && rounds < o.maxRounds {
				msgs = append(msgs, resp.Message)
				pending = reqs
				st = stateExecutingTool
				break
			}

			finalTxt = resp.Text()
			st = stateDone

		case stateExecutingTool:
			parts := make([]*ai.Part, 0, len(pending))
			for _, tr := range pending {
				text, srcs := o.executeTool(ctx, tr)
				sources = append(sources, srcs...)
				parts = append(parts, ai.NewToolResponsePart(&ai.ToolResponse{
					Name:   tr.Name,
					Ref:    tr.Ref,
					Output: text,
				}))
			}
			msgs = append(msgs, ai.NewMessage(ai.RoleTool, nil, parts...))
			pending = nil
			rounds++
			st = stateAwaitingModel
		}
	}

	sess.Append(session.Exchange{UserText: query, AssistantText: finalTxt})
	o.logger.Debug("query answered",
		"session_id", sess.ID(),
		"tool_rounds", rounds,
		"sources", len(sources),
	)

	return &Answer{Text: finalTxt, Sources: sources, SessionID: sess.ID()}, nil
}

// executeTool runs one requested tool call. Failures become model-visible
// tool output rather than aborting the query, so the model can recover
// conversationally.
func (o *Orchestrator) executeTool(ctx context.Context, tr *ai.ToolRequest) (string, []tools.Attribution) {
	args, _ := tr.Input.(map[string]any)

	res, err := o.executor.Execute(ctx, tr.Name, args)
	if err != nil {
		o.logger.Warn("tool execution failed", "tool", tr.Name, "error", err)
		return fmt.Sprintf("Error executing tool: %v", err), nil
	}
	return res.Text, res.Sources
}

// generate wraps one model call with the circuit breaker and retry. Any
// terminal failure maps to ErrGenerationUnavailable.
func (o *Orchestrator) generate(ctx context.Context, req *ModelRequest) (*ai.ModelResponse, error) {
	if err := o.breaker.Allow(); err != nil {
		o.logger.Warn("circuit breaker rejecting model call", "state", o.breaker.State())
		return nil, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}

	resp, err := o.generateWithRetry(ctx, req)
	if err != nil {
		o.breaker.Failure()
		return nil, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	o.breaker.Success()
	return resp, nil
}
