package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/openai/openai-go/option"
)

func TestToOpenAIMessagesAddsSystem(t *testing.T) {
	out, err := toOpenAIMessages("system prompt", []Message{
		UserMessage("Fork the deepset-ai/haystack repository into my account."),
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "call_1", Name: "fork_repository", Arguments: `{"owner":"deepset-ai","repo":"haystack"}`}}},
		ToolMessage(ToolCall{ID: "call_1", Name: "fork_repository"}, `{"ok":true}`),
	})
	if err != nil {
		t.Fatalf("toOpenAIMessages returned error: %v", err)
	}
	if len(out) != 4 {
		t.Fatalf("expected 4 messages (system + 3), got %d", len(out))
	}
	if out[0].OfSystem == nil || out[1].OfUser == nil || out[3].OfTool == nil {
		t.Fatalf("unexpected message kinds: %+v", out)
	}
	assistant := out[2].OfAssistant
	if assistant == nil || len(assistant.ToolCalls) != 1 {
		t.Fatalf("expected assistant turn with one tool call, got %+v", out[2])
	}
	if assistant.ToolCalls[0].ID != "call_1" || assistant.ToolCalls[0].Function.Name != "fork_repository" {
		t.Fatalf("unexpected tool call: %+v", assistant.ToolCalls[0])
	}
	if out[3].OfTool.ToolCallID != "call_1" {
		t.Fatalf("tool message should answer call_1, got %q", out[3].OfTool.ToolCallID)
	}
}

func TestToOpenAIMessagesRejectsInvalidRole(t *testing.T) {
	if _, err := toOpenAIMessages("", []Message{{Role: "robot", Content: "bad"}}); err == nil {
		t.Fatal("expected error for invalid role")
	}
}

func TestToOpenAIToolsDefaultsSchema(t *testing.T) {
	tools := toOpenAITools([]ToolSpec{{Name: "get_issue", Description: "Get an issue"}})
	if len(tools) != 1 {
		t.Fatalf("expected 1 tool, got %d", len(tools))
	}
	if tools[0].Function.Parameters["type"] != "object" {
		t.Fatalf("expected object schema, got %+v", tools[0].Function.Parameters)
	}
	if toOpenAITools(nil) != nil {
		t.Fatal("expected nil tools for empty specs")
	}
}

func TestOpenAICompleteParsesToolCalls(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1,
  "model": "o4-mini",
  "choices": [{
    "index": 0,
    "finish_reason": "tool_calls",
    "message": {
      "role": "assistant",
      "content": null,
      "tool_calls": [{
        "id": "call_1",
        "type": "function",
        "function": {"name": "fork_repository", "arguments": "{\"owner\":\"deepset-ai\",\"repo\":\"haystack\"}"}
      }]
    }
  }]
}`)
	}))
	defer srv.Close()

	backend, err := NewOpenAI(OpenAIConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/",
		Model:   "o4-mini",
		Options: []option.RequestOption{option.WithMaxRetries(0)},
	})
	if err != nil {
		t.Fatalf("NewOpenAI: %v", err)
	}

	msg, err := backend.Complete(context.Background(), Request{
		System:   "You are GitHub-AI",
		Messages: []Message{UserMessage("Fork the deepset-ai/haystack repository into my account.")},
		Tools:    []ToolSpec{{Name: "fork_repository", Description: "Fork a repository"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if msg.Role != RoleAssistant || len(msg.ToolCalls) != 1 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if msg.ToolCalls[0].Name != "fork_repository" || msg.ToolCalls[0].ID != "call_1" {
		t.Fatalf("unexpected tool call: %+v", msg.ToolCalls[0])
	}
	if gotBody["model"] != "o4-mini" {
		t.Fatalf("expected model in request body, got %v", gotBody["model"])
	}
	if tools, _ := gotBody["tools"].([]any); len(tools) != 1 {
		t.Fatalf("expected one tool in request body, got %v", gotBody["tools"])
	}
}

func TestNewOpenAIRequiresKey(t *testing.T) {
	if _, err := NewOpenAI(OpenAIConfig{Model: "o4-mini"}); err == nil {
		t.Fatal("expected error without API key")
	}
}

func TestToGeminiSchema(t *testing.T) {
	schema := toGeminiSchema(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"owner":  map[string]any{"type": "string", "description": "Repository owner"},
			"number": map[string]any{"type": "number"},
			"labels": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"state":  map[string]any{"type": []any{"string", "null"}, "enum": []any{"open", "closed"}},
		},
		"required": []any{"owner", "number"},
	})

	if schema.Type != genai.TypeObject {
		t.Fatalf("expected object, got %v", schema.Type)
	}
	if len(schema.Required) != 2 || schema.Required[0] != "owner" {
		t.Fatalf("unexpected required: %v", schema.Required)
	}
	if schema.Properties["owner"].Description != "Repository owner" {
		t.Fatalf("unexpected owner schema: %+v", schema.Properties["owner"])
	}
	if schema.Properties["labels"].Items == nil || schema.Properties["labels"].Items.Type != genai.TypeString {
		t.Fatalf("unexpected labels schema: %+v", schema.Properties["labels"])
	}
	state := schema.Properties["state"]
	if !state.Nullable || state.Type != genai.TypeString || len(state.Enum) != 2 {
		t.Fatalf("unexpected state schema: %+v", state)
	}
}

func TestToGeminiFunctionsSkipsEmptyParameters(t *testing.T) {
	decls := toGeminiFunctions([]ToolSpec{{Name: "get_me", Parameters: emptyObjectSchema()}})
	if len(decls) != 1 || decls[0].Parameters != nil {
		t.Fatalf("expected declaration without parameters, got %+v", decls)
	}
}

func TestToGeminiContentsMergesToolResults(t *testing.T) {
	contents, err := toGeminiContents([]Message{
		{Role: RoleSystem, Content: "ignored"},
		UserMessage("List open issues"),
		{Role: RoleAssistant, ToolCalls: []ToolCall{
			{ID: "a", Name: "search_issues", Arguments: `{"query":"repo:deepset-ai/haystack is:open"}`},
			{ID: "b", Name: "search_issues", Arguments: `{"query":"repo:deepset-ai/haystack-core-integrations is:open"}`},
		}},
		ToolMessage(ToolCall{ID: "a", Name: "search_issues"}, "first"),
		ToolMessage(ToolCall{ID: "b", Name: "search_issues"}, "second"),
	})
	if err != nil {
		t.Fatalf("toGeminiContents: %v", err)
	}
	if len(contents) != 3 {
		t.Fatalf("expected user/model/user contents, got %d", len(contents))
	}
	if contents[1].Role != "model" || len(contents[1].Parts) != 2 {
		t.Fatalf("unexpected model content: %+v", contents[1])
	}
	last := contents[2]
	if last.Role != "user" || len(last.Parts) != 2 {
		t.Fatalf("expected merged function responses, got %+v", last)
	}
	resp, ok := last.Parts[0].(genai.FunctionResponse)
	if !ok || resp.Name != "search_issues" || resp.Response["content"] != "first" {
		t.Fatalf("unexpected function response: %#v", last.Parts[0])
	}
}

func TestToGeminiContentsRejectsBadArguments(t *testing.T) {
	_, err := toGeminiContents([]Message{
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "a", Name: "get_issue", Arguments: "{not json"}}},
	})
	if err == nil {
		t.Fatal("expected error for malformed arguments")
	}
}

func TestFromGeminiResponse(t *testing.T) {
	msg, err := fromGeminiResponse(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []genai.Part{
				genai.Text("Forking now."),
				genai.FunctionCall{Name: "fork_repository", Args: map[string]any{"owner": "deepset-ai", "repo": "haystack"}},
			}},
		}},
	})
	if err != nil {
		t.Fatalf("fromGeminiResponse: %v", err)
	}
	if msg.Content != "Forking now." || len(msg.ToolCalls) != 1 {
		t.Fatalf("unexpected message: %+v", msg)
	}
	call := msg.ToolCalls[0]
	if !strings.HasPrefix(call.ID, "call_") || call.Name != "fork_repository" {
		t.Fatalf("unexpected call: %+v", call)
	}
	var args map[string]any
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || args["repo"] != "haystack" {
		t.Fatalf("unexpected arguments %q: %v", call.Arguments, err)
	}

	if _, err := fromGeminiResponse(&genai.GenerateContentResponse{}); err == nil {
		t.Fatal("expected error for empty response")
	}
}

func TestValidateRole(t *testing.T) {
	if err := ValidateRole(RoleTool); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateRole("robot"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
