package agent

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pavelanni/proctor/internal/exam"
	"github.com/pavelanni/proctor/internal/i18n"
	"github.com/pavelanni/proctor/internal/llm"
	"github.com/pavelanni/proctor/internal/session"
	"github.com/pavelanni/proctor/internal/store"
)

func TestMain(m *testing.M) {
	if err := i18n.Init("en"); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// scriptedClient replays a fixed sequence of completions. Once the script
// runs out it repeats the last step, which lets tests model a provider that
// keeps requesting tools forever.
type scriptedClient struct {
	steps []scriptStep
	calls int
}

type scriptStep struct {
	completion llm.Completion
	err        error
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) Chat(_ context.Context, _ []llm.Message, _ bool) (llm.Completion, error) {
	i := c.calls
	if i >= len(c.steps) {
		i = len(c.steps) - 1
	}
	c.calls++
	step := c.steps[i]
	return step.completion, step.err
}

func newTestAgent(t *testing.T, client llm.Client) *Agent {
	t.Helper()
	dir := t.TempDir()
	topics := `{"topics":[{"name":"Tokenization"},{"name":"Embeddings"},{"name":"Attention"}]}`
	if err := os.WriteFile(filepath.Join(dir, "topics.json"), []byte(topics), 0o644); err != nil {
		t.Fatalf("write topics: %v", err)
	}
	st, err := store.New(dir)
	if err != nil {
		t.Fatalf("store.New: %v", err)
	}
	registry := exam.NewRegistry(st, session.New(), 2, 3)
	return New(client, registry, nil, DefaultMaxIterations)
}

func TestChatToolCallThenText(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{completion: llm.Completion{
			FinishReason: llm.FinishToolCalls,
			ToolCalls: []llm.ToolCall{{
				ID:   "call_1",
				Name: exam.ToolStartExam,
				Arguments: map[string]any{
					"email": "kate@example.com",
					"name":  "Kate Bishop",
				},
			}},
		}},
		{completion: llm.Completion{Content: "Great, let's begin with the first topic."}},
	}}
	a := newTestAgent(t, client)

	reply := a.Chat(context.Background(), "I'm Kate Bishop, kate@example.com")
	if reply != "Great, let's begin with the first topic." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if client.calls != 2 {
		t.Errorf("provider called %d times, want 2", client.calls)
	}

	messages := a.Messages()
	// user, assistant tool call, tool result, assistant text
	if len(messages) != 4 {
		t.Fatalf("got %d messages, want 4: %+v", len(messages), messages)
	}
	if messages[1].Role != llm.RoleAssistant || len(messages[1].ToolCalls) != 1 {
		t.Errorf("message 1 should be the assistant tool call, got %+v", messages[1])
	}
	toolMsg := messages[2]
	if toolMsg.Role != llm.RoleTool || toolMsg.ToolCallID != "call_1" || toolMsg.Name != exam.ToolStartExam {
		t.Errorf("message 2 should be the matching tool result, got %+v", toolMsg)
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(toolMsg.Content), &payload); err != nil {
		t.Fatalf("tool result is not JSON: %v", err)
	}
	if payload["success"] != true {
		t.Errorf("tool result payload missing success: %v", payload)
	}
}

func TestChatProviderErrorBecomesReply(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{err: llm.ConnectionErr("scripted", errors.New("dial tcp: refused"))},
	}}
	a := newTestAgent(t, client)

	reply := a.Chat(context.Background(), "hello")
	if !strings.Contains(reply, "Communication error") {
		t.Errorf("reply %q should surface the communication error", reply)
	}
	if client.calls != 1 {
		t.Errorf("provider called %d times, want no retry", client.calls)
	}

	// The failed turn stays in the log so the conversation remains usable.
	messages := a.Messages()
	if len(messages) != 2 || messages[1].Content != reply {
		t.Errorf("error reply not appended to the log: %+v", messages)
	}
}

func TestChatIterationCeilingFallsBack(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{completion: llm.Completion{
			FinishReason: llm.FinishToolCalls,
			ToolCalls:    []llm.ToolCall{{ID: "call_loop", Name: exam.ToolGetNextTopic}},
		}},
	}}
	a := newTestAgent(t, client)

	reply := a.Chat(context.Background(), "keep going")
	if !strings.Contains(reply, "encountered an issue") {
		t.Errorf("expected the fallback apology, got %q", reply)
	}
	if client.calls != DefaultMaxIterations {
		t.Errorf("provider called %d times, want exactly %d", client.calls, DefaultMaxIterations)
	}
}

func TestChatBlankInput(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{{completion: llm.Completion{Content: "unused"}}}}
	a := newTestAgent(t, client)

	reply := a.Chat(context.Background(), "   ")
	if reply != "Please provide a message." {
		t.Errorf("unexpected reply: %q", reply)
	}
	if client.calls != 0 {
		t.Error("blank input must not reach the provider")
	}
	if len(a.Messages()) != 0 {
		t.Error("blank input must not be appended to the log")
	}
}

func TestChatEmptyCompletionFallsBack(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{{completion: llm.Completion{}}}}
	a := newTestAgent(t, client)

	reply := a.Chat(context.Background(), "hello")
	if !strings.Contains(reply, "encountered an issue") {
		t.Errorf("expected the fallback apology, got %q", reply)
	}
	if client.calls != 1 {
		t.Errorf("empty completion should not be retried, got %d calls", client.calls)
	}
}

func TestGreeting(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{completion: llm.Completion{Content: "Welcome! Please tell me your name and email."}},
	}}
	a := newTestAgent(t, client)

	greeting := a.Greeting(context.Background())
	if greeting != "Welcome! Please tell me your name and email." {
		t.Errorf("unexpected greeting: %q", greeting)
	}
	messages := a.Messages()
	if len(messages) != 1 || messages[0].Role != llm.RoleAssistant {
		t.Errorf("greeting not appended as assistant turn: %+v", messages)
	}
}

func TestGreetingFallsBackOnError(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{err: llm.ResponseErr("scripted", "no choices")},
	}}
	a := newTestAgent(t, client)

	greeting := a.Greeting(context.Background())
	if !strings.Contains(greeting, "AI Examiner") {
		t.Errorf("expected the scripted greeting, got %q", greeting)
	}
	if len(a.Messages()) != 1 {
		t.Error("fallback greeting must still be appended to the log")
	}
}

func TestResetClearsLogAndSession(t *testing.T) {
	client := &scriptedClient{steps: []scriptStep{
		{completion: llm.Completion{
			FinishReason: llm.FinishToolCalls,
			ToolCalls: []llm.ToolCall{{
				ID:   "call_1",
				Name: exam.ToolStartExam,
				Arguments: map[string]any{
					"email": "liam@example.com",
					"name":  "Liam Neeson",
				},
			}},
		}},
		{completion: llm.Completion{Content: "Let's begin."}},
	}}
	a := newTestAgent(t, client)

	a.Chat(context.Background(), "I'm Liam, liam@example.com")
	if len(a.Messages()) == 0 {
		t.Fatal("expected a populated message log")
	}

	a.Reset()
	if len(a.Messages()) != 0 {
		t.Error("reset must clear the message log")
	}
}
