package exam

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/pavelanni/proctor/internal/llm"
)

// Tool names exposed to the LLM.
const (
	ToolStartExam    = "start_exam"
	ToolGetNextTopic = "get_next_topic"
	ToolEndExam      = "end_exam"
)

// Execute runs a tool by name with the given arguments. Unknown names,
// argument-shape mismatches and panics inside an action all come back as
// ErrorResult values; nothing escapes to the orchestration loop.
func (r *Registry) Execute(name string, args map[string]any) (res Result) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("tool execution panicked", "tool", name, "panic", p)
			res = ErrorResult{fmt.Sprintf("Error executing %s.", name)}
		}
	}()

	slog.Debug("executing tool", "tool", name, "args", args)

	switch name {
	case ToolStartExam:
		email, emailOK := stringArg(args, "email")
		studentName, nameOK := stringArg(args, "name")
		if !emailOK || !nameOK {
			return badArguments(name)
		}
		return r.StartExam(email, studentName)

	case ToolGetNextTopic:
		return r.GetNextTopic()

	case ToolEndExam:
		email, emailOK := stringArg(args, "email")
		feedback, feedbackOK := stringArg(args, "feedback")
		if !emailOK || !feedbackOK {
			return badArguments(name)
		}
		score, ok := numberArg(args, "score")
		if !ok {
			return ErrorResult{"Score must be a number."}
		}
		return r.EndExam(email, score, feedback)

	default:
		slog.Warn("unknown tool called", "tool", name)
		return ErrorResult{fmt.Sprintf("Unknown tool: %s", name)}
	}
}

func badArguments(tool string) ErrorResult {
	slog.Error("invalid arguments", "tool", tool)
	return ErrorResult{fmt.Sprintf("Invalid arguments for %s.", tool)}
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// numberArg coerces a score-style argument. Providers deliver numbers as
// float64, json.Number or, occasionally, numeric strings.
func numberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// Definitions returns the vendor-neutral schemas for the three exam tools.
// Provider adapters convert them into each function-calling layer's shape.
func Definitions() []llm.ToolDef {
	return []llm.ToolDef{
		{
			Name:        ToolStartExam,
			Description: "Start the exam for a student. Call this after collecting the student's name and email. Returns a list of topics to examine or an error if the student is not registered.",
			Parameters: map[string]llm.ToolParam{
				"email": {Type: "string", Description: "The student's email address"},
				"name":  {Type: "string", Description: "The student's full name"},
			},
			Required: []string{"email", "name"},
		},
		{
			Name:        ToolGetNextTopic,
			Description: "Get the next topic to examine. Call this when you're ready to move to the next topic.",
			Parameters:  map[string]llm.ToolParam{},
			Required:    []string{},
		},
		{
			Name:        ToolEndExam,
			Description: "End the exam and record the results. Call this after all topics have been covered and you've provided feedback to the student.",
			Parameters: map[string]llm.ToolParam{
				"email":    {Type: "string", Description: "The student's email address"},
				"score":    {Type: "number", Description: "The final score on a scale of 0-10"},
				"feedback": {Type: "string", Description: "Summary feedback for the student"},
			},
			Required: []string{"email", "score", "feedback"},
		},
	}
}
