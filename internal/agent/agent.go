// Package agent drives the multi-turn exam dialogue: it owns the
// provider-shaped message log, executes tool calls against the exam
// registry and bounds the request/tool cycle so a turn always converges on
// a user-visible answer.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/pavelanni/proctor/internal/exam"
	"github.com/pavelanni/proctor/internal/i18n"
	"github.com/pavelanni/proctor/internal/llm"
	"github.com/pavelanni/proctor/internal/observability"
)

// DefaultMaxIterations bounds the tool-calling cycle within one chat turn.
// The ceiling is a safety property: a model that keeps requesting tools
// must not spin forever.
const DefaultMaxIterations = 5

// Agent coordinates one conversation with the LLM. The message log grows
// monotonically for the lifetime of the Agent and is restated in the
// vendor's wire shape on every request. Turns are serialized: the front
// end must not interleave calls to Chat.
type Agent struct {
	client        llm.Client
	registry      *exam.Registry
	metrics       *observability.Metrics
	maxIterations int

	mu       sync.Mutex
	messages []llm.Message
}

// New creates an agent for one conversation.
func New(client llm.Client, registry *exam.Registry, metrics *observability.Metrics, maxIterations int) *Agent {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &Agent{
		client:        client,
		registry:      registry,
		metrics:       metrics,
		maxIterations: maxIterations,
	}
}

// Reset clears the message log and the exam session for a new exam.
func (a *Agent) Reset() {
	a.mu.Lock()
	a.messages = nil
	a.mu.Unlock()
	a.registry.Session().Reset()
	slog.Info("agent state reset")
}

// Chat processes one user turn and always returns a user-visible reply.
// Provider failures and iteration exhaustion become messages, never errors.
func (a *Agent) Chat(ctx context.Context, userMessage string) string {
	userMessage = strings.TrimSpace(userMessage)
	if userMessage == "" {
		return i18n.T(ctx, "EmptyMessagePrompt")
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.messages = append(a.messages, llm.Message{Role: llm.RoleUser, Content: userMessage})
	a.registry.AddToHistory("user", userMessage)

	start := time.Now()
	for iteration := 1; iteration <= a.maxIterations; iteration++ {
		completion, err := a.client.Chat(ctx, a.messages, true)
		if err != nil {
			reply := a.failTurn(ctx, err)
			a.metrics.RecordChatTurn("provider_error", time.Since(start))
			return reply
		}

		if len(completion.ToolCalls) > 0 {
			slog.Debug("processing tool calls", "count", len(completion.ToolCalls), "iteration", iteration)
			a.processToolCalls(completion)
			continue
		}

		if completion.Content != "" {
			a.messages = append(a.messages, llm.Message{Role: llm.RoleAssistant, Content: completion.Content})
			a.registry.AddToHistory("assistant", completion.Content)
			a.metrics.RecordChatTurn("ok", time.Since(start))
			return completion.Content
		}

		// Neither tool calls nor text: a dead end, not worth retrying.
		slog.Warn("empty completion from provider")
		break
	}

	slog.Warn("chat turn gave up", "max_iterations", a.maxIterations)
	fallback := i18n.T(ctx, "FallbackResponse")
	a.messages = append(a.messages, llm.Message{Role: llm.RoleAssistant, Content: fallback})
	a.metrics.RecordChatTurn("fallback", time.Since(start))
	return fallback
}

// Greeting requests the opening turn from the provider. Any failure falls
// back to the scripted greeting; in both cases the result is appended to
// the message log and the audit transcript.
func (a *Agent) Greeting(ctx context.Context) string {
	a.mu.Lock()
	defer a.mu.Unlock()

	completion, err := a.client.Chat(ctx, a.messages, true)
	if err == nil && completion.Content != "" {
		a.messages = append(a.messages, llm.Message{Role: llm.RoleAssistant, Content: completion.Content})
		a.registry.AddToHistory("assistant", completion.Content)
		return completion.Content
	}
	if err != nil {
		slog.Error("greeting request failed", "error", err)
		a.recordProviderError(err)
	}

	greeting := i18n.T(ctx, "FallbackGreeting")
	a.messages = append(a.messages, llm.Message{Role: llm.RoleAssistant, Content: greeting})
	a.registry.AddToHistory("assistant", greeting)
	return greeting
}

// Messages returns a copy of the canonical message log.
func (a *Agent) Messages() []llm.Message {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]llm.Message(nil), a.messages...)
}

// processToolCalls executes each requested tool sequentially (later calls
// may depend on session state written by earlier ones) and appends the
// matching call/result message pair for every call.
func (a *Agent) processToolCalls(completion llm.Completion) {
	for _, tc := range completion.ToolCalls {
		result := a.registry.Execute(tc.Name, tc.Arguments)
		payload := result.Payload()

		status := "ok"
		if _, isErr := result.(exam.ErrorResult); isErr {
			status = "error"
		}
		a.metrics.RecordToolCall(tc.Name, status)

		data, err := json.Marshal(payload)
		if err != nil {
			// Payloads are maps of plain values; this should not happen.
			data = []byte(`{"error":"internal serialization failure"}`)
		}

		a.messages = append(a.messages,
			llm.Message{
				Role:      llm.RoleAssistant,
				ToolCalls: []llm.ToolCall{tc},
			},
			llm.Message{
				Role:       llm.RoleTool,
				Name:       tc.Name,
				ToolCallID: tc.ID,
				Content:    string(data),
			},
		)
	}
}

// failTurn converts a provider failure into the terminal reply for this
// turn. The conversation itself stays usable.
func (a *Agent) failTurn(ctx context.Context, err error) string {
	slog.Error("provider error during chat", "error", err)
	a.recordProviderError(err)
	reply := i18n.Td(ctx, "CommunicationError", map[string]any{"Error": err.Error()})
	a.messages = append(a.messages, llm.Message{Role: llm.RoleAssistant, Content: reply})
	return reply
}

func (a *Agent) recordProviderError(err error) {
	var provErr *llm.Error
	if errors.As(err, &provErr) {
		a.metrics.RecordProviderError(provErr.Provider, string(provErr.Kind))
		return
	}
	a.metrics.RecordProviderError(a.client.Name(), "unknown")
}
