package gemini

import (
	"testing"

	"google.golang.org/genai"

	"github.com/pavelanni/proctor/internal/llm"
)

func TestConvertMessagesRoleMapping(t *testing.T) {
	in := []llm.Message{
		{Role: llm.RoleUser, Content: "hi"},
		{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{{
			ID:        "call_start_exam",
			Name:      "start_exam",
			Arguments: map[string]any{"email": "a@b.co"},
		}}},
		{Role: llm.RoleTool, Name: "start_exam", ToolCallID: "call_start_exam", Content: `{"success":true}`},
		{Role: llm.RoleAssistant, Content: "Let's begin."},
	}

	out := convertMessages(in)
	if len(out) != 4 {
		t.Fatalf("got %d contents, want 4", len(out))
	}

	if out[0].Role != genai.RoleUser {
		t.Errorf("user turn mapped to role %q", out[0].Role)
	}

	// Assistant turns become model turns with typed function-call parts.
	if out[1].Role != genai.RoleModel {
		t.Errorf("assistant turn mapped to role %q", out[1].Role)
	}
	if len(out[1].Parts) != 1 || out[1].Parts[0].FunctionCall == nil {
		t.Fatalf("tool call lost in conversion: %+v", out[1].Parts)
	}
	fc := out[1].Parts[0].FunctionCall
	if fc.Name != "start_exam" || fc.Args["email"] != "a@b.co" {
		t.Errorf("unexpected function call: %+v", fc)
	}

	// Tool results travel back as a synthetic user turn.
	if out[2].Role != genai.RoleUser {
		t.Errorf("tool result mapped to role %q", out[2].Role)
	}
	if len(out[2].Parts) != 1 || out[2].Parts[0].FunctionResponse == nil {
		t.Fatalf("function response lost in conversion: %+v", out[2].Parts)
	}
	fr := out[2].Parts[0].FunctionResponse
	if fr.Name != "start_exam" || fr.Response["result"] != `{"success":true}` {
		t.Errorf("unexpected function response: %+v", fr)
	}

	if out[3].Role != genai.RoleModel || out[3].Parts[0].Text != "Let's begin." {
		t.Errorf("unexpected final turn: %+v", out[3])
	}
}

func TestConvertMessagesSkipsEmptyAssistantTurn(t *testing.T) {
	out := convertMessages([]llm.Message{{Role: llm.RoleAssistant}})
	if len(out) != 0 {
		t.Fatalf("empty assistant turn should be dropped, got %+v", out)
	}
}

func TestConvertTools(t *testing.T) {
	defs := []llm.ToolDef{{
		Name:        "end_exam",
		Description: "End the exam.",
		Parameters: map[string]llm.ToolParam{
			"email": {Type: "string", Description: "Student email"},
			"score": {Type: "number", Description: "Final score"},
		},
		Required: []string{"email", "score"},
	}}

	out := convertTools(defs)
	if len(out) != 1 || len(out[0].FunctionDeclarations) != 1 {
		t.Fatalf("unexpected tool layout: %+v", out)
	}
	decl := out[0].FunctionDeclarations[0]
	if decl.Name != "end_exam" {
		t.Errorf("name = %q", decl.Name)
	}
	if decl.Parameters.Type != genai.TypeObject {
		t.Errorf("parameters type = %v, want object", decl.Parameters.Type)
	}
	if decl.Parameters.Properties["score"].Type != genai.TypeNumber {
		t.Errorf("score type = %v, want number", decl.Parameters.Properties["score"].Type)
	}
	if decl.Parameters.Properties["email"].Type != genai.TypeString {
		t.Errorf("email type = %v, want string", decl.Parameters.Properties["email"].Type)
	}
}

func TestSchemaType(t *testing.T) {
	tests := []struct {
		in   string
		want genai.Type
	}{
		{"string", genai.TypeString},
		{"number", genai.TypeNumber},
		{"integer", genai.TypeInteger},
		{"boolean", genai.TypeBoolean},
		{"array", genai.TypeArray},
		{"object", genai.TypeObject},
		{"anything else", genai.TypeString},
	}
	for _, tt := range tests {
		if got := schemaType(tt.in); got != tt.want {
			t.Errorf("schemaType(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
