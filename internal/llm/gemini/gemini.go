// Package gemini implements the llm.Client contract over the Gemini API.
// Unlike the OpenAI-style wire format, this vendor uses typed function-call
// parts with native argument maps and does not issue call ids.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/pavelanni/proctor/internal/llm"
)

// Client wraps the Gemini SDK client.
type Client struct {
	client *genai.Client
	opts   llm.Options
	system string
	tools  []*genai.Tool
}

// New creates a Gemini client using an API key.
func New(ctx context.Context, apiKey, system string, tools []llm.ToolDef, opts llm.Options) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &Client{
		client: client,
		opts:   opts,
		system: system,
		tools:  convertTools(tools),
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "gemini"
}

// Chat restates the canonical history in Gemini content shape, issues one
// generation request and normalizes the reply.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, useTools bool) (llm.Completion, error) {
	contents := convertMessages(messages)
	if len(contents) == 0 {
		// The greeting turn starts from an empty log; the API requires at
		// least one content entry.
		contents = []*genai.Content{genai.NewContentFromText("Hello", genai.RoleUser)}
	}

	temp := float32(c.opts.Temperature)
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(c.system, genai.RoleUser),
		Temperature:       &temp,
		MaxOutputTokens:   int32(c.opts.MaxTokens),
	}
	if useTools {
		cfg.Tools = c.tools
	}

	slog.Debug("sending request to gemini", "messages", len(messages), "model", c.opts.Model)
	res, err := c.client.Models.GenerateContent(ctx, c.opts.Model, contents, cfg)
	if err != nil {
		return llm.Completion{}, llm.ConnectionErr(c.Name(), err)
	}
	if len(res.Candidates) == 0 {
		return llm.Completion{}, llm.ResponseErr(c.Name(), "no candidates")
	}

	out := llm.Completion{FinishReason: "stop"}
	cand := res.Candidates[0]
	if cand.Content != nil {
		for _, part := range cand.Content.Parts {
			switch {
			case part.Text != "":
				out.Content = part.Text
			case part.FunctionCall != nil:
				fc := part.FunctionCall
				args := fc.Args
				if args == nil {
					args = map[string]any{}
				}
				out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
					// This vendor issues no call ids; synthesize one.
					ID:        "call_" + fc.Name,
					Name:      fc.Name,
					Arguments: args,
				})
				out.FinishReason = llm.FinishToolCalls
			}
		}
	}

	slog.Debug("gemini response", "content", out.Content != "", "tool_calls", len(out.ToolCalls))
	return out, nil
}

// convertMessages maps canonical turns onto Gemini contents: user stays
// user, assistant becomes model (with typed function-call parts), and tool
// results become a synthetic user turn carrying a function response.
func convertMessages(messages []llm.Message) []*genai.Content {
	var contents []*genai.Content
	for _, m := range messages {
		switch m.Role {
		case llm.RoleUser:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		case llm.RoleAssistant:
			var parts []*genai.Part
			if m.Content != "" {
				parts = append(parts, genai.NewPartFromText(m.Content))
			}
			for _, tc := range m.ToolCalls {
				args := tc.Arguments
				if args == nil {
					args = map[string]any{}
				}
				parts = append(parts, genai.NewPartFromFunctionCall(tc.Name, args))
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		case llm.RoleTool:
			name := m.Name
			if name == "" {
				name = "unknown"
			}
			part := genai.NewPartFromFunctionResponse(name, map[string]any{"result": m.Content})
			contents = append(contents, genai.NewContentFromParts([]*genai.Part{part}, genai.RoleUser))
		}
	}
	return contents
}

// convertTools maps the vendor-neutral schemas onto Gemini function
// declarations with typed parameter schemas.
func convertTools(defs []llm.ToolDef) []*genai.Tool {
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, d := range defs {
		props := map[string]*genai.Schema{}
		for name, p := range d.Parameters {
			props[name] = &genai.Schema{
				Type:        schemaType(p.Type),
				Description: p.Description,
			}
		}
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters: &genai.Schema{
				Type:       genai.TypeObject,
				Properties: props,
				Required:   d.Required,
			},
		})
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

func schemaType(t string) genai.Type {
	switch t {
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeString
	}
}
