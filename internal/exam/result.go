package exam

import (
	"fmt"
	"strings"
)

// Result is the outcome of one exam action. Every condition inside the
// registry, including validation and persistence failures, becomes a
// Result value: nothing raises past the dispatch boundary, so the LLM can
// read the outcome and react in natural language.
type Result interface {
	// Payload renders the JSON object returned to the LLM as the tool
	// result.
	Payload() map[string]any
}

// ErrorResult reports a validation, persistence or dispatch failure.
type ErrorResult struct {
	Message string
}

func (r ErrorResult) Payload() map[string]any {
	return map[string]any{"error": r.Message}
}

// TopicsStarted reports a successfully activated exam.
type TopicsStarted struct {
	Name       string
	Topics     []string
	NewStudent bool
}

func (r TopicsStarted) Payload() map[string]any {
	note := ""
	if r.NewStudent {
		note = " (newly registered)"
	}
	return map[string]any{
		"success": true,
		"topics":  r.Topics,
		"message": fmt.Sprintf("Exam started for %s%s. Topics to cover: %s",
			r.Name, note, strings.Join(r.Topics, ", ")),
	}
}

// NextTopic reports the topic the cursor advanced to.
type NextTopic struct {
	Topic  string
	Number int // 1-based position
	Total  int
}

func (r NextTopic) Payload() map[string]any {
	return map[string]any{
		"topic":        r.Topic,
		"topic_number": r.Number,
		"total_topics": r.Total,
		"message":      fmt.Sprintf("Moving to topic %d of %d: %s", r.Number, r.Total, r.Topic),
	}
}

// Finished signals that every topic has been covered. The session stays
// active until end_exam or an explicit reset.
type Finished struct{}

func (Finished) Payload() map[string]any {
	return map[string]any{
		"finished": true,
		"message":  "All topics have been covered. Please provide the final evaluation and end the exam.",
	}
}

// ExamEnded confirms that the result record was persisted and the session
// reset.
type ExamEnded struct {
	Score float64
}

func (r ExamEnded) Payload() map[string]any {
	return map[string]any{
		"success": true,
		"message": fmt.Sprintf("Exam results recorded successfully. Score: %g/10", r.Score),
	}
}
