// Package mcp holds the client side of the GitHub MCP tool server connection.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	loggerpkg "github.com/minhyannv/github-mcp-agent/pkg/logger"
)

const (
	clientName    = "github-mcp-agent"
	clientVersion = "0.1.0"
)

// Endpoint is the shared connection info for the remote tool server.
type Endpoint struct {
	URL   string
	Token string
}

// ToolInfo is a tool as listed by the server.
type ToolInfo struct {
	Name        string
	Description string
	InputSchema map[string]any
}

// ToolError is returned when the server reports a failed tool call.
type ToolError struct {
	Tool    string
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Message)
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLogger injects a logger dependency.
func WithLogger(l loggerpkg.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithVerbose enables debug logging of connection and call activity.
func WithVerbose(v bool) SessionOption {
	return func(s *Session) {
		s.verbose = v
	}
}

// Session is a lazily connected streamable-HTTP MCP client. It is safe for concurrent use.
type Session struct {
	endpoint Endpoint
	logger   loggerpkg.Logger
	verbose  bool

	mu     sync.Mutex
	client *mcpclient.Client
	server string
}

// NewSession returns a session for endpoint. No connection is made until first use.
func NewSession(endpoint Endpoint, opts ...SessionOption) *Session {
	s := &Session{endpoint: endpoint, logger: loggerpkg.NopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Endpoint returns the endpoint this session talks to.
func (s *Session) Endpoint() Endpoint {
	return s.endpoint
}

func (s *Session) connect(ctx context.Context) (*mcpclient.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	if strings.TrimSpace(s.endpoint.URL) == "" {
		return nil, errors.New("mcp endpoint URL is empty")
	}

	loggerpkg.Debug(s.verbose, s.logger, "mcp connect", loggerpkg.Fields{
		"url":   s.endpoint.URL,
		"token": loggerpkg.Redact(s.endpoint.Token),
	})

	var opts []transport.StreamableHTTPCOption
	if s.endpoint.Token != "" {
		opts = append(opts, transport.WithHTTPHeaders(map[string]string{
			"Authorization": "Bearer " + s.endpoint.Token,
		}))
	}
	c, err := mcpclient.NewStreamableHttpClient(s.endpoint.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("create mcp client: %w", err)
	}
	if err := c.Start(ctx); err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("start mcp client: %w", err)
	}

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpgo.Implementation{Name: clientName, Version: clientVersion}
	initResult, err := c.Initialize(ctx, initReq)
	if err != nil {
		_ = c.Close()
		return nil, fmt.Errorf("initialize mcp session: %w", err)
	}

	s.client = c
	s.server = initResult.ServerInfo.Name
	loggerpkg.Debug(s.verbose, s.logger, "mcp session ready", loggerpkg.Fields{
		"server":   initResult.ServerInfo.Name,
		"version":  initResult.ServerInfo.Version,
		"protocol": initResult.ProtocolVersion,
	})
	return c, nil
}

// ServerName returns the name reported by the server, or "" before connecting.
func (s *Session) ServerName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server
}

// ListTools returns the tools the server exposes.
func (s *Session) ListTools(ctx context.Context) ([]ToolInfo, error) {
	c, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}
	result, err := c.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}

	out := make([]ToolInfo, 0, len(result.Tools))
	for _, tool := range result.Tools {
		out = append(out, ToolInfo{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: inputSchemaOf(tool),
		})
	}
	return out, nil
}

// inputSchemaOf returns the tool's input schema as a generic JSON object,
// whichever of the raw or typed schema forms the server used.
func inputSchemaOf(tool mcpgo.Tool) map[string]any {
	data, err := json.Marshal(tool)
	if err != nil {
		return nil
	}
	var wire struct {
		InputSchema map[string]any `json:"inputSchema"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return nil
	}
	return wire.InputSchema
}

// CallTool invokes name with args and returns the text content of the result.
// A result flagged as an error by the server is returned as *ToolError.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	c, err := s.connect(ctx)
	if err != nil {
		return "", err
	}

	req := mcpgo.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	loggerpkg.Debug(s.verbose, s.logger, "mcp call", loggerpkg.Fields{"tool": name})

	result, err := c.CallTool(ctx, req)
	if err != nil {
		return "", fmt.Errorf("call tool %s: %w", name, err)
	}

	text := contentText(result.Content)
	if result.IsError {
		return "", &ToolError{Tool: name, Message: text}
	}
	return text, nil
}

func contentText(contents []mcpgo.Content) string {
	parts := make([]string, 0, len(contents))
	for _, content := range contents {
		switch c := content.(type) {
		case mcpgo.TextContent:
			parts = append(parts, c.Text)
		case *mcpgo.TextContent:
			parts = append(parts, c.Text)
		default:
			if data, err := json.Marshal(c); err == nil {
				parts = append(parts, string(data))
			}
		}
	}
	return strings.Join(parts, "\n")
}

// Close terminates the session if one was opened.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
