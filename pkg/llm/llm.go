// Package llm defines the provider-agnostic chat types and the backends
// that turn a conversation into either a final answer or tool calls.
package llm

import (
	"context"
	"fmt"
)

// Role is the role for a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one conversation turn.
type Message struct {
	Role       Role       `yaml:"role"`
	Content    string     `yaml:"content,omitempty"`
	ToolCalls  []ToolCall `yaml:"tool_calls,omitempty"`
	ToolCallID string     `yaml:"tool_call_id,omitempty"`
	ToolName   string     `yaml:"tool_name,omitempty"`
}

// ToolCall is a tool invocation requested by the model. Arguments is JSON object text.
type ToolCall struct {
	ID        string `yaml:"id"`
	Name      string `yaml:"name"`
	Arguments string `yaml:"arguments"`
}

// ToolSpec describes a tool advertised to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// Request is one completion request.
type Request struct {
	System   string
	Messages []Message
	Tools    []ToolSpec
}

// Backend produces the next assistant message for a conversation.
type Backend interface {
	Name() string
	Complete(ctx context.Context, req Request) (Message, error)
}

// UserMessage builds a user turn.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// ToolMessage builds a tool result turn answering call.
func ToolMessage(call ToolCall, output string) Message {
	return Message{Role: RoleTool, Content: output, ToolCallID: call.ID, ToolName: call.Name}
}

// ValidateRole reports an error for roles outside the known set.
func ValidateRole(r Role) error {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		return nil
	default:
		return fmt.Errorf("invalid message role: %q", r)
	}
}

// emptyObjectSchema is advertised for tools without a known input schema.
func emptyObjectSchema() map[string]any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}

func parametersOrEmpty(p map[string]any) map[string]any {
	if len(p) == 0 {
		return emptyObjectSchema()
	}
	return p
}
