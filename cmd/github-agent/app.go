package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/minhyannv/github-mcp-agent/pkg/agent"
	configpkg "github.com/minhyannv/github-mcp-agent/pkg/config"
	"github.com/minhyannv/github-mcp-agent/pkg/llm"
	loggerpkg "github.com/minhyannv/github-mcp-agent/pkg/logger"
	"github.com/minhyannv/github-mcp-agent/pkg/mcp"
	"github.com/minhyannv/github-mcp-agent/pkg/prompt"
	"github.com/minhyannv/github-mcp-agent/pkg/tools"
)

// app holds the constructed agent and the resources to release on exit.
type app struct {
	agent   *agent.Agent
	session *mcp.Session
	backend llm.Backend
}

// newApp validates credentials and the backend choice, then builds session, tool registry, backend and agent.
// Nothing is constructed when validation fails.
func newApp(ctx context.Context, cfg configpkg.Config, logger loggerpkg.Logger, out io.Writer) (*app, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if _, err := cfg.SelectBackend(); err != nil {
		return nil, err
	}
	if out == nil {
		out = io.Discard
	}
	loggerpkg.Debug(cfg.Verbose, logger, "app init", loggerpkg.Fields{
		"mcp_url":      cfg.MCPURL,
		"github_token": loggerpkg.Redact(cfg.GitHubToken),
		"backend":      cfg.Backend,
		"max_turns":    cfg.MaxTurns,
	})

	endpoint := mcp.Endpoint{URL: cfg.MCPURL, Token: cfg.GitHubToken}
	session := mcp.NewSession(endpoint, mcp.WithLogger(logger), mcp.WithVerbose(cfg.Verbose))
	_, _ = fmt.Fprintln(out, "MCP server is created")
	registry, err := tools.New(
		tools.GitHubDescriptors(endpoint, cfg.ToolTimeout, cfg.ExtendedToolTimeout),
		session,
		tools.Context{Verbose: cfg.Verbose, Logger: logger},
	)
	if err != nil {
		return nil, err
	}
	_, _ = fmt.Fprintln(out, "MCP tools are created")

	backend, err := llm.New(ctx, cfg)
	if err != nil {
		return nil, err
	}

	a, err := agent.New(backend, registry, prompt.System,
		agent.WithLogger(logger),
		agent.WithVerbose(cfg.Verbose),
		agent.WithMaxTurns(cfg.MaxTurns),
	)
	if err != nil {
		_ = closeBackend(backend)
		return nil, err
	}
	_, _ = fmt.Fprintln(out, "Agent created")

	return &app{agent: a, session: session, backend: backend}, nil
}

// Close releases the MCP session and backend client.
func (a *app) Close() error {
	if a == nil {
		return nil
	}
	return errors.Join(a.session.Close(), closeBackend(a.backend))
}

func closeBackend(b llm.Backend) error {
	if c, ok := b.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
