// Package groq implements the llm.Client contract over Groq's
// OpenAI-compatible chat completion API. Tool-call arguments travel as JSON
// strings on this wire format.
package groq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/proctor/internal/llm"
)

const defaultBaseURL = "https://api.groq.com/openai/v1"

// Client wraps an OpenAI-compatible API client pointed at Groq.
type Client struct {
	api    *openai.Client
	opts   llm.Options
	system string
	tools  []openai.Tool
}

// New creates a Groq client. baseURL is overridable for tests and for any
// other OpenAI-compatible endpoint.
func New(apiKey, baseURL, system string, tools []llm.ToolDef, opts llm.Options) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	config := openai.DefaultConfig(apiKey)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	config.BaseURL = baseURL

	return &Client{
		api:    openai.NewClientWithConfig(config),
		opts:   opts,
		system: system,
		tools:  convertTools(tools),
	}, nil
}

// Name returns the provider identifier.
func (c *Client) Name() string {
	return "groq"
}

// Chat restates the canonical history in OpenAI wire shape, issues one
// completion request and normalizes the reply.
func (c *Client) Chat(ctx context.Context, messages []llm.Message, useTools bool) (llm.Completion, error) {
	req := openai.ChatCompletionRequest{
		Model:       c.opts.Model,
		Messages:    c.convertMessages(messages),
		MaxTokens:   c.opts.MaxTokens,
		Temperature: float32(c.opts.Temperature),
	}
	if useTools {
		req.Tools = c.tools
		req.ToolChoice = "auto"
	}

	slog.Debug("sending request to groq", "messages", len(messages), "model", c.opts.Model)
	resp, err := c.api.CreateChatCompletion(ctx, req)
	if err != nil {
		return llm.Completion{}, llm.ConnectionErr(c.Name(), err)
	}
	if len(resp.Choices) == 0 {
		return llm.Completion{}, llm.ResponseErr(c.Name(), "empty choices")
	}

	choice := resp.Choices[0]
	out := llm.Completion{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
	}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, llm.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: parseArguments(tc.Function.Name, tc.Function.Arguments),
		})
	}

	slog.Debug("groq response", "content", out.Content != "", "tool_calls", len(out.ToolCalls))
	return out, nil
}

// convertMessages prepends the system instruction and maps canonical turns
// onto the OpenAI message shape.
func (c *Client) convertMessages(messages []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	out = append(out, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleSystem,
		Content: c.system,
	})

	for _, m := range messages {
		cm := openai.ChatCompletionMessage{
			Role:       string(m.Role),
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: marshalArguments(tc.Arguments),
				},
			})
		}
		out = append(out, cm)
	}
	return out
}

// parseArguments decodes a JSON-string argument payload. Invalid JSON
// degrades to an empty map so one garbled call does not abort the turn.
func parseArguments(name, raw string) map[string]any {
	args := map[string]any{}
	if raw == "" {
		return args
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		slog.Warn("invalid JSON in tool arguments", "tool", name, "raw", raw)
		return map[string]any{}
	}
	return args
}

func marshalArguments(args map[string]any) string {
	if args == nil {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// convertTools maps the vendor-neutral schemas onto OpenAI function
// definitions with a JSON-schema parameter object.
func convertTools(defs []llm.ToolDef) []openai.Tool {
	out := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		props := map[string]any{}
		for name, p := range d.Parameters {
			props[name] = map[string]any{
				"type":        p.Type,
				"description": p.Description,
			}
		}
		required := d.Required
		if required == nil {
			required = []string{}
		}
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": props,
					"required":   required,
				},
			},
		})
	}
	return out
}
