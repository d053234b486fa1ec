package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/minhyannv/github-mcp-agent/pkg/llm"
	loggerpkg "github.com/minhyannv/github-mcp-agent/pkg/logger"
)

// DefaultMaxTurns bounds a Run when no WithMaxTurns option is given.
const DefaultMaxTurns = 20

// ErrMaxTurns is returned when the backend keeps requesting tools past the turn limit.
var ErrMaxTurns = errors.New("max turns reached before assistant produced a final response")

// ToolExecutor advertises tools and executes tool calls. An error from either
// method ends the run; tool-level failures belong in the Execute output.
type ToolExecutor interface {
	Specs(ctx context.Context) ([]llm.ToolSpec, error)
	Execute(ctx context.Context, call llm.ToolCall) (string, error)
}

// Agent pairs a backend, a tool set and a system prompt.
type Agent struct {
	backend      llm.Backend
	tools        ToolExecutor
	systemPrompt string
	maxTurns     int

	logger  loggerpkg.Logger
	verbose bool
}

// Result is the outcome of one Run.
type Result struct {
	Messages []llm.Message `yaml:"messages"`
	Final    llm.Message   `yaml:"final"`
}

// Text returns the text of the final message.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	return r.Final.Content
}

// String renders the full result as YAML.
func (r *Result) String() string {
	if r == nil {
		return "<nil>"
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Sprintf("%+v", *r)
	}
	return string(data)
}

// New builds an Agent. tools may be nil for a tool-less agent.
func New(backend llm.Backend, tools ToolExecutor, systemPrompt string, opts ...Option) (*Agent, error) {
	if backend == nil {
		return nil, errors.New("backend is required")
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, errors.New("system prompt is empty")
	}
	a := &Agent{
		backend:      backend,
		tools:        tools,
		systemPrompt: systemPrompt,
		maxTurns:     DefaultMaxTurns,
		logger:       loggerpkg.NopLogger{},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.debug("agent init", loggerpkg.Fields{
		"backend":   backend.Name(),
		"max_turns": a.maxTurns,
		"prompt":    len(systemPrompt),
	})
	return a, nil
}

// Run executes the conversation until the backend produces a message without
// tool calls. The returned Result holds the full history, system prompt included.
func (a *Agent) Run(ctx context.Context, messages []llm.Message) (*Result, error) {
	if len(messages) == 0 {
		return nil, errors.New("at least one message is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	history := make([]llm.Message, 0, len(messages)+1)
	hasSystem := false
	for i, msg := range messages {
		if err := llm.ValidateRole(msg.Role); err != nil {
			return nil, fmt.Errorf("message %d: %w", i, err)
		}
		if msg.Role == llm.RoleSystem {
			hasSystem = true
		}
	}
	if !hasSystem {
		history = append(history, llm.Message{Role: llm.RoleSystem, Content: a.systemPrompt})
	}
	history = append(history, messages...)

	var specs []llm.ToolSpec
	if a.tools != nil {
		var err error
		if specs, err = a.tools.Specs(ctx); err != nil {
			return nil, err
		}
	}

	for turn := 0; turn < a.maxTurns; turn++ {
		a.debug("iteration", loggerpkg.Fields{"turn": turn + 1, "max_turns": a.maxTurns})

		system, conversation := splitSystem(history)
		message, err := a.backend.Complete(ctx, llm.Request{
			System:   system,
			Messages: conversation,
			Tools:    specs,
		})
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.backend.Name(), err)
		}
		message.Role = llm.RoleAssistant
		history = append(history, message)

		if len(message.ToolCalls) == 0 {
			return &Result{Messages: history, Final: message}, nil
		}

		a.debug("assistant requested tool calls", loggerpkg.Fields{"count": len(message.ToolCalls)})
		history, err = a.appendToolResponses(ctx, history, message.ToolCalls)
		if err != nil {
			return nil, err
		}
	}

	return nil, ErrMaxTurns
}

func (a *Agent) appendToolResponses(
	ctx context.Context,
	messages []llm.Message,
	toolCalls []llm.ToolCall,
) ([]llm.Message, error) {
	updated := messages
	for _, call := range toolCalls {
		var output string
		if a.tools == nil {
			output = fmt.Sprintf(`{"ok":false,"tool":%q,"error":"no tools configured"}`, call.Name)
		} else {
			var err error
			output, err = a.tools.Execute(ctx, call)
			if err != nil {
				return nil, fmt.Errorf("execute %s: %w", call.Name, err)
			}
		}
		a.debug("tool result", loggerpkg.Fields{"tool": call.Name, "id": call.ID, "bytes": len(output)})
		updated = append(updated, llm.ToolMessage(call, output))
	}
	return updated, nil
}

// splitSystem separates system turns, joined in order, from the rest of the conversation.
func splitSystem(history []llm.Message) (string, []llm.Message) {
	var system []string
	conversation := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		if msg.Role == llm.RoleSystem {
			system = append(system, msg.Content)
			continue
		}
		conversation = append(conversation, msg)
	}
	return strings.Join(system, "\n\n"), conversation
}

func (a *Agent) debug(msg string, obj any) {
	loggerpkg.Debug(a.verbose, a.logger, msg, obj)
}
