package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	genai "github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// GeminiConfig configures the Google Gemini backend.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Options []option.ClientOption
}

// Gemini is a Backend backed by the Google Gemini API.
type Gemini struct {
	client *genai.Client
	model  string
}

// NewGemini builds a Gemini backend. Close releases the underlying client.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("gemini: API key is not set")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("gemini: model is not set")
	}

	opts := append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, cfg.Options...)
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gemini init: %w", err)
	}
	return &Gemini{client: client, model: cfg.Model}, nil
}

func (g *Gemini) Name() string { return "gemini/" + g.model }

// Close releases the Gemini client.
func (g *Gemini) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// Complete sends the conversation as a chat session and returns the model turn.
func (g *Gemini) Complete(ctx context.Context, req Request) (Message, error) {
	model := g.client.GenerativeModel(g.model)
	if strings.TrimSpace(req.System) != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.System))
	}
	if len(req.Tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: toGeminiFunctions(req.Tools)}}
	}

	contents, err := toGeminiContents(req.Messages)
	if err != nil {
		return Message{}, err
	}
	if len(contents) == 0 {
		return Message{}, errors.New("gemini: conversation is empty")
	}
	last := contents[len(contents)-1]
	if last.Role != "user" {
		return Message{}, fmt.Errorf("gemini: conversation must end with a user or tool turn, got %q", last.Role)
	}

	session := model.StartChat()
	session.History = contents[:len(contents)-1]
	resp, err := session.SendMessage(ctx, last.Parts...)
	if err != nil {
		return Message{}, fmt.Errorf("gemini generate: %w", err)
	}
	return fromGeminiResponse(resp)
}

func toGeminiFunctions(specs []ToolSpec) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(specs))
	for _, spec := range specs {
		decl := &genai.FunctionDeclaration{
			Name:        spec.Name,
			Description: spec.Description,
		}
		if props, _ := spec.Parameters["properties"].(map[string]any); len(props) > 0 {
			decl.Parameters = toGeminiSchema(spec.Parameters)
		}
		out = append(out, decl)
	}
	return out
}

// toGeminiSchema converts a JSON schema object into the Gemini schema subset.
func toGeminiSchema(s map[string]any) *genai.Schema {
	out := &genai.Schema{}

	switch typ := s["type"].(type) {
	case string:
		out.Type = geminiType(typ)
	case []any:
		for _, t := range typ {
			name, _ := t.(string)
			if name == "null" {
				out.Nullable = true
				continue
			}
			if out.Type == genai.TypeUnspecified {
				out.Type = geminiType(name)
			}
		}
	}
	if out.Type == genai.TypeUnspecified {
		if _, ok := s["properties"]; ok {
			out.Type = genai.TypeObject
		} else {
			out.Type = genai.TypeString
		}
	}

	out.Description, _ = s["description"].(string)
	if out.Type == genai.TypeString {
		out.Format, _ = s["format"].(string)
		if out.Format != "enum" && out.Format != "date-time" {
			out.Format = ""
		}
	}
	out.Enum = toStrings(s["enum"])
	if len(out.Enum) > 0 {
		out.Format = "enum"
	}

	if props, ok := s["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			child, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			out.Properties[name] = toGeminiSchema(child)
		}
	}
	out.Required = toStrings(s["required"])

	if items, ok := s["items"].(map[string]any); ok {
		out.Items = toGeminiSchema(items)
	} else if out.Type == genai.TypeArray {
		out.Items = &genai.Schema{Type: genai.TypeString}
	}
	return out
}

func geminiType(name string) genai.Type {
	switch name {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}

func toStrings(v any) []string {
	switch vals := v.(type) {
	case []string:
		return append([]string(nil), vals...)
	case []any:
		out := make([]string, 0, len(vals))
		for _, item := range vals {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// toGeminiContents maps the conversation onto Gemini roles. Tool results are
// sent as function responses on the user side; consecutive turns of the same
// role are merged into one content.
func toGeminiContents(messages []Message) ([]*genai.Content, error) {
	var out []*genai.Content
	appendParts := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}

	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			// System text travels as the model's system instruction.
			continue
		case RoleUser:
			appendParts("user", genai.Text(msg.Content))
		case RoleAssistant:
			var parts []genai.Part
			if msg.Content != "" {
				parts = append(parts, genai.Text(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				args := map[string]any{}
				if strings.TrimSpace(call.Arguments) != "" {
					if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
						return nil, fmt.Errorf("message %d: decode arguments for %s: %w", i, call.Name, err)
					}
				}
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: args})
			}
			appendParts("model", parts...)
		case RoleTool:
			appendParts("user", genai.FunctionResponse{
				Name:     msg.ToolName,
				Response: map[string]any{"content": msg.Content},
			})
		default:
			return nil, fmt.Errorf("invalid message role at index %d: %q", i, msg.Role)
		}
	}
	return out, nil
}

func fromGeminiResponse(resp *genai.GenerateContentResponse) (Message, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return Message{}, errors.New("gemini: empty response")
	}

	out := Message{Role: RoleAssistant}
	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text.WriteString(string(p))
		case genai.FunctionCall:
			callArgs := p.Args
			if callArgs == nil {
				callArgs = map[string]any{}
			}
			args, err := json.Marshal(callArgs)
			if err != nil {
				return Message{}, fmt.Errorf("gemini: encode arguments for %s: %w", p.Name, err)
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        "call_" + uuid.NewString(),
				Name:      p.Name,
				Arguments: string(args),
			})
		}
	}
	out.Content = text.String()
	return out, nil
}
