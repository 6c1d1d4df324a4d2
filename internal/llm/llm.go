// Package llm defines the provider-agnostic chat contract: canonical
// message and tool-call shapes, the unified provider error category, and
// vendor-neutral tool schemas. Vendor wire formats live in subpackages.
package llm

import (
	"context"
	"fmt"
)

// Role is the canonical message role.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall describes a model-initiated invocation of a named tool.
// Arguments are always a decoded map regardless of how the vendor
// transported them.
type ToolCall struct {
	ID        string
	Name      string
	Arguments map[string]any
}

// Message is one canonical conversation turn. Assistant turns that invoke
// tools carry ToolCalls; tool turns carry the tool name, the matching call
// id and the serialized result payload in Content.
type Message struct {
	Role       Role
	Content    string
	Name       string
	ToolCallID string
	ToolCalls  []ToolCall
}

// Completion is the canonical response shape every provider must produce.
type Completion struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// FinishToolCalls is the finish-reason sentinel set whenever a completion
// carries tool calls.
const FinishToolCalls = "tool_calls"

// Client is the provider contract. Implementations restate the canonical
// message list in their vendor's wire shape immediately before each request
// and normalize the reply back into a Completion.
type Client interface {
	Name() string
	Chat(ctx context.Context, messages []Message, useTools bool) (Completion, error)
}

// ErrorKind separates "could not reach the provider" from "reached the
// provider but got an unusable payload".
type ErrorKind string

const (
	KindConnection ErrorKind = "connection"
	KindResponse   ErrorKind = "response"
)

// Error is the unified failure category raised by provider adapters. It is
// the only error the orchestration loop expects from a Client; the loop
// converts it into a user-visible message and never lets it escape.
type Error struct {
	Provider string
	Kind     ErrorKind
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s %s error: %v", e.Provider, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConnectionErr wraps a transport failure into the unified category.
func ConnectionErr(provider string, err error) *Error {
	return &Error{Provider: provider, Kind: KindConnection, Err: err}
}

// ResponseErr wraps an unusable provider payload into the unified category.
func ResponseErr(provider string, format string, args ...any) *Error {
	return &Error{Provider: provider, Kind: KindResponse, Err: fmt.Errorf(format, args...)}
}

// Options carries the request knobs shared by every provider.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}
