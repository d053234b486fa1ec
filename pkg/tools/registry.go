package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/minhyannv/github-mcp-agent/pkg/llm"
	loggerpkg "github.com/minhyannv/github-mcp-agent/pkg/logger"
	"github.com/minhyannv/github-mcp-agent/pkg/mcp"
)

// GitHub capability names exposed by the remote MCP server.
const (
	GetIssue           = "get_issue"
	CreateIssue        = "create_issue"
	SearchIssues       = "search_issues"
	UpdateIssue        = "update_issue"
	GetFileContents    = "get_file_contents"
	SearchRepositories = "search_repositories"
	ForkRepository     = "fork_repository"
)

// Names lists the GitHub capabilities in registration order.
var Names = []string{
	GetIssue,
	CreateIssue,
	SearchIssues,
	UpdateIssue,
	GetFileContents,
	SearchRepositories,
	ForkRepository,
}

// fallbackDescriptions are advertised when the server listing has no entry for a tool.
var fallbackDescriptions = map[string]string{
	GetIssue:           "Retrieve detailed information about a specific issue or pull request by number and repository.",
	CreateIssue:        "Open a new issue in a given repository with title, body, and optional labels.",
	SearchIssues:       "Search across issues and pull requests using GitHub query syntax.",
	UpdateIssue:        "Modify an existing issue's title, body, or labels.",
	GetFileContents:    "Fetch the contents of a file at a given path in a repository.",
	SearchRepositories: "Search for repositories using GitHub query syntax.",
	ForkRepository:     "Fork a repository into the authenticated user's account.",
}

// Descriptor binds a capability name to the remote endpoint.
type Descriptor struct {
	Name     string
	Endpoint mcp.Endpoint
	Timeout  time.Duration
}

// GitHubDescriptors returns the seven GitHub tool descriptors. All share
// endpoint; get_issue uses the extended timeout.
func GitHubDescriptors(endpoint mcp.Endpoint, timeout, extendedTimeout time.Duration) []Descriptor {
	out := make([]Descriptor, 0, len(Names))
	for _, name := range Names {
		d := Descriptor{Name: name, Endpoint: endpoint, Timeout: timeout}
		if name == GetIssue {
			d.Timeout = extendedTimeout
		}
		out = append(out, d)
	}
	return out
}

// Caller invokes a named remote tool.
type Caller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (string, error)
}

// Lister is implemented by callers that can list the server's tools.
type Lister interface {
	ListTools(ctx context.Context) ([]mcp.ToolInfo, error)
}

type endpointer interface {
	Endpoint() mcp.Endpoint
}

type Context struct {
	Verbose bool
	Logger  loggerpkg.Logger
}

func (c Context) debug(msg string, obj any) {
	loggerpkg.Debug(c.Verbose, c.Logger, msg, obj)
}

// Registry holds the tool descriptors and dispatches calls to the remote server.
type Registry struct {
	descriptors []Descriptor
	byName      map[string]Descriptor
	caller      Caller
	ctx         Context

	specsOnce sync.Once
	specs     []llm.ToolSpec
	specsErr  error
}

type toolResponse struct {
	OK   bool   `json:"ok"`
	Tool string `json:"tool,omitempty"`
	Data any    `json:"data,omitempty"`
	Err  string `json:"error,omitempty"`
}

// New builds a registry over descriptors, dispatching through caller. When
// caller is bound to an endpoint, every descriptor must name that endpoint.
func New(descriptors []Descriptor, caller Caller, ctx Context) (*Registry, error) {
	if ctx.Logger == nil {
		ctx.Logger = loggerpkg.NopLogger{}
	}
	r := &Registry{
		byName: make(map[string]Descriptor, len(descriptors)),
		caller: caller,
		ctx:    ctx,
	}
	for _, d := range descriptors {
		if err := r.register(d); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) register(d Descriptor) error {
	if strings.TrimSpace(d.Name) == "" {
		return errors.New("tool name is empty")
	}
	if _, exists := r.byName[d.Name]; exists {
		return fmt.Errorf("tool %s registered twice", d.Name)
	}
	if bound, ok := r.caller.(endpointer); ok && bound.Endpoint() != d.Endpoint {
		return fmt.Errorf("tool %s: endpoint %s does not match session endpoint %s", d.Name, d.Endpoint.URL, bound.Endpoint().URL)
	}
	r.descriptors = append(r.descriptors, d)
	r.byName[d.Name] = d
	r.ctx.debug("registered tool", loggerpkg.Fields{"name": d.Name, "timeout": d.Timeout.String()})
	return nil
}

// listTimeout bounds the tool listing, which opens the shared connection.
func (r *Registry) listTimeout() time.Duration {
	var longest time.Duration
	for _, d := range r.descriptors {
		if d.Timeout > longest {
			longest = d.Timeout
		}
	}
	return longest
}

// Specs returns the tool specs advertised to the model. Schemas come from the
// server listing when available; names are not checked against it. A failed
// listing is returned as an error and cached with the specs.
func (r *Registry) Specs(ctx context.Context) ([]llm.ToolSpec, error) {
	r.specsOnce.Do(func() {
		listed := map[string]mcp.ToolInfo{}
		if lister, ok := r.caller.(Lister); ok {
			listCtx := ctx
			if timeout := r.listTimeout(); timeout > 0 {
				var cancel context.CancelFunc
				listCtx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			infos, err := lister.ListTools(listCtx)
			if err != nil {
				r.specsErr = fmt.Errorf("list tools: %w", err)
				return
			}
			for _, info := range infos {
				listed[info.Name] = info
			}
		}

		specs := make([]llm.ToolSpec, 0, len(r.descriptors))
		for _, d := range r.descriptors {
			spec := llm.ToolSpec{Name: d.Name, Description: fallbackDescriptions[d.Name]}
			if info, ok := listed[d.Name]; ok {
				if info.Description != "" {
					spec.Description = info.Description
				}
				spec.Parameters = info.InputSchema
			} else if len(listed) > 0 {
				loggerpkg.Warn(r.ctx.Logger, "tool not listed by server", loggerpkg.Fields{"name": d.Name})
			}
			specs = append(specs, spec)
		}
		r.specs = specs
	})
	return r.specs, r.specsErr
}

// Execute runs one tool call under its descriptor timeout and returns the
// JSON envelope fed back to the model. Unknown names, malformed arguments and
// failures reported by the tool itself go into the envelope. Connection,
// transport and protocol errors are returned and end the run.
func (r *Registry) Execute(ctx context.Context, call llm.ToolCall) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	d, ok := r.byName[call.Name]
	if !ok {
		return marshalToolResponse(call.Name, nil, fmt.Errorf("unknown tool: %s", call.Name))
	}
	if r.caller == nil {
		return marshalToolResponse(call.Name, nil, errors.New("no tool caller configured"))
	}

	args := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			r.ctx.debug("failed to parse tool arguments", loggerpkg.Fields{"tool": call.Name, "error": err.Error()})
			return marshalToolResponse(call.Name, nil, fmt.Errorf("invalid arguments: %w", err))
		}
	}

	callCtx := ctx
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}

	started := time.Now()
	output, err := r.caller.CallTool(callCtx, d.Name, args)
	r.ctx.debug("tool call finished", loggerpkg.Fields{
		"tool":     d.Name,
		"elapsed":  time.Since(started).String(),
		"ok":       err == nil,
		"response": len(output),
	})
	var toolErr *mcp.ToolError
	switch {
	case errors.As(err, &toolErr):
		return marshalToolResponse(d.Name, nil, toolErr)
	case err != nil:
		return "", fmt.Errorf("%s: %w", d.Name, err)
	}
	return marshalToolResponse(d.Name, decodeOutput(output), nil)
}

// decodeOutput keeps JSON tool output structured inside the envelope.
func decodeOutput(output string) any {
	trimmed := strings.TrimSpace(output)
	if json.Valid([]byte(trimmed)) && trimmed != "" {
		return json.RawMessage(trimmed)
	}
	return output
}

func marshalToolResponse(toolName string, data any, err error) (string, error) {
	resp := toolResponse{
		OK:   err == nil,
		Tool: toolName,
		Data: data,
	}
	if err != nil {
		resp.Err = err.Error()
	}
	payload, marshalErr := json.Marshal(resp)
	if marshalErr != nil {
		return "", marshalErr
	}
	return string(payload), nil
}
