// Package mcptest provides an in-process GitHub MCP server for tests.
package mcptest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Call records one tool invocation seen by the server.
type Call struct {
	Tool      string
	Arguments map[string]any
}

// Server is a fake GitHub MCP server behind bearer-token auth.
type Server struct {
	*httptest.Server

	mu    sync.Mutex
	calls []Call
}

// EndpointURL returns the MCP endpoint URL.
func (s *Server) EndpointURL() string {
	return s.URL + "/mcp/"
}

// Calls returns a copy of the recorded tool calls.
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

func (s *Server) record(req mcp.CallToolRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Call{Tool: req.Params.Name, Arguments: req.GetArguments()})
}

// NewGitHubServer starts a server exposing a subset of the GitHub tools. Requests
// without "Authorization: Bearer <token>" are rejected with 401.
func NewGitHubServer(token string) *Server {
	s := &Server{}
	mcpServer := server.NewMCPServer("fake-github", "0.0.1", server.WithToolCapabilities(false))

	mcpServer.AddTool(mcp.NewTool("get_issue",
		mcp.WithDescription("Get details of a specific issue in a GitHub repository."),
		mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
		mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
		mcp.WithNumber("issue_number", mcp.Required(), mcp.Description("Issue number")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.record(req)
		args := req.GetArguments()
		return mcp.NewToolResultText(fmt.Sprintf(`{"number":%v,"title":"Typo in README","repository":"%v/%v"}`,
			args["issue_number"], args["owner"], args["repo"])), nil
	})

	mcpServer.AddTool(mcp.NewTool("search_issues",
		mcp.WithDescription("Search for issues in GitHub repositories."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query using GitHub issues search syntax")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.record(req)
		return mcp.NewToolResultText(fmt.Sprintf(`{"total_count":1,"query":%q}`, req.GetArguments()["query"])), nil
	})

	mcpServer.AddTool(mcp.NewTool("fork_repository",
		mcp.WithDescription("Fork a GitHub repository to your account or specified organization."),
		mcp.WithString("owner", mcp.Required(), mcp.Description("Repository owner")),
		mcp.WithString("repo", mcp.Required(), mcp.Description("Repository name")),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		s.record(req)
		args := req.GetArguments()
		if args["repo"] == "private" {
			return mcp.NewToolResultError("repository not found"), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf(`{"html_url":"https://github.com/octocat/%v"}`, args["repo"])), nil
	})

	handler := server.NewStreamableHTTPServer(mcpServer)
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+token {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	}))
	return s
}
