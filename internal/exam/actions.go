// Package exam implements the three state-mutating exam actions and the
// dispatch boundary that exposes them to the LLM as tools.
package exam

import (
	"log/slog"
	"math"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"github.com/pavelanni/proctor/internal/model"
	"github.com/pavelanni/proctor/internal/session"
	"github.com/pavelanni/proctor/internal/store"
)

const (
	maxEmailLen    = 254 // RFC upper bound
	maxNameLen     = 200
	maxFeedbackLen = 5000
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// Registry binds the exam actions to their session and file store.
type Registry struct {
	store   *store.Store
	session *session.Session
	min     int // minimum topics per exam
	max     int // maximum topics per exam
}

// NewRegistry creates a tool registry operating on the given session and
// store. minTopics/maxTopics bound the random topic selection; an inverted
// range is clamped so sampling always has a valid interval.
func NewRegistry(st *store.Store, sess *session.Session, minTopics, maxTopics int) *Registry {
	if maxTopics < minTopics {
		slog.Warn("max topics below min topics, clamping", "min", minTopics, "max", maxTopics)
		maxTopics = minTopics
	}
	return &Registry{store: st, session: sess, min: minTopics, max: maxTopics}
}

// Session returns the session the registry operates on.
func (r *Registry) Session() *session.Session {
	return r.session
}

// StartExam validates and registers the student, selects random topics and
// activates the session. Persistence failure never activates a session.
func (r *Registry) StartExam(email, name string) Result {
	email = sanitize(strings.ToLower(email), maxEmailLen)
	name = sanitize(name, maxNameLen)

	if email == "" || name == "" {
		slog.Warn("start_exam called with empty email or name")
		return ErrorResult{"Email and name are required."}
	}
	if !emailRegex.MatchString(email) {
		slog.Warn("invalid email format", "email", email)
		return ErrorResult{"Please provide a valid email address."}
	}
	if len(name) < 2 {
		return ErrorResult{"Please provide your full name."}
	}

	created, err := r.store.UpsertStudent(email, name)
	if err != nil {
		slog.Error("failed to persist student", "email", email, "error", err)
		return ErrorResult{"Failed to register student. Please try again."}
	}

	catalog, err := r.store.TopicNames()
	if err != nil {
		slog.Error("failed to load topics", "error", err)
		return ErrorResult{"Not enough topics available for the exam."}
	}
	if len(catalog) < r.min {
		slog.Error("not enough topics in catalog", "have", len(catalog), "min", r.min)
		return ErrorResult{"Not enough topics available for the exam."}
	}

	topics := sampleTopics(catalog, r.min, r.max)
	r.session.Activate(email, name, topics)
	slog.Info("exam started", "email", email, "topics", topics)

	return TopicsStarted{Name: name, Topics: topics, NewStudent: created}
}

// GetNextTopic advances the topic cursor. The cursor starts at 0 meaning
// topic 1 is current, so the very first call moves to topic 2. Callers
// get topic 1 from the start_exam result, never from this action.
func (r *Registry) GetNextTopic() Result {
	if !r.session.IsActive() {
		slog.Warn("get_next_topic called without active session")
		return ErrorResult{"No exam in progress. Please start an exam first."}
	}

	idx := r.session.Advance()
	topics := r.session.Topics()
	if idx >= len(topics) {
		slog.Info("all topics covered", "email", r.session.Email())
		return Finished{}
	}

	slog.Debug("moving to next topic", "number", idx+1, "topic", topics[idx])
	return NextTopic{Topic: topics[idx], Number: idx + 1, Total: len(topics)}
}

// EndExam validates the score and feedback, appends an immutable result
// record and resets the session. A persistence failure leaves the session
// untouched so the call can be retried.
func (r *Registry) EndExam(email string, score float64, feedback string) Result {
	email = sanitize(strings.ToLower(email), maxEmailLen)
	feedback = sanitize(feedback, maxFeedbackLen)

	if score < 0 || score > 10 {
		slog.Warn("score out of range", "score", score)
		return ErrorResult{"Score must be between 0 and 10."}
	}
	if feedback == "" {
		return ErrorResult{"Feedback is required."}
	}

	name := r.session.Name()
	if name == "" {
		name = "Unknown"
	}
	var startTime *time.Time
	if st := r.session.StartTime(); !st.IsZero() {
		startTime = &st
	}

	record := model.ExamResult{
		Email:     email,
		Name:      name,
		Score:     math.Round(score*10) / 10,
		Feedback:  feedback,
		Topics:    r.session.Topics(),
		StartTime: startTime,
		EndTime:   time.Now(),
		History:   r.session.Transcript(),
	}

	if err := r.store.AppendResult(record); err != nil {
		slog.Error("failed to save exam results", "email", email, "error", err)
		return ErrorResult{"Failed to save exam results. Please try again."}
	}

	slog.Info("exam completed", "email", email, "score", record.Score)
	r.session.Reset()
	return ExamEnded{Score: record.Score}
}

// AddToHistory appends a timestamped entry to the audit transcript. It
// never fails.
func (r *Registry) AddToHistory(role, content string) {
	r.session.AppendTranscript(role, content)
}

// sampleTopics picks a uniform count in [min, clamp(max)] and that many
// distinct topics uniformly at random without replacement.
func sampleTopics(catalog []string, minTopics, maxTopics int) []string {
	upper := maxTopics
	if upper > len(catalog) {
		upper = len(catalog)
	}
	n := minTopics + rand.IntN(upper-minTopics+1)

	idx := rand.Perm(len(catalog))
	topics := make([]string, 0, n)
	for _, i := range idx[:n] {
		topics = append(topics, catalog[i])
	}
	return topics
}

func sanitize(s string, maxLen int) string {
	s = strings.TrimSpace(s)
	if len(s) > maxLen {
		s = s[:maxLen]
	}
	return s
}
