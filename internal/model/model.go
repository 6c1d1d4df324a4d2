package model

import (
	"context"
	"time"
)

// UserRole represents an admin-area access level.
type UserRole string

const (
	// UserRoleAdmin is the only role with access to the review endpoints.
	UserRoleAdmin UserRole = "admin"
)

// User represents an admin-area user.
type User struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	Role         UserRole
	Active       bool
	CreatedAt    time.Time
}

// AuthSession represents an authentication session for the admin area.
type AuthSession struct {
	ID        string
	UserID    int64
	CreatedAt time.Time
	ExpiresAt time.Time
}

type userCtxKey struct{}

// ContextWithUser stores a user in the request context.
func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userCtxKey{}, u)
}

// UserFromContext retrieves the authenticated user from context, or nil.
func UserFromContext(ctx context.Context) *User {
	u, _ := ctx.Value(userCtxKey{}).(*User)
	return u
}

// Student is one registered examinee, keyed by lowercased email.
type Student struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

// Topic is one entry of the externally seeded topic catalog.
type Topic struct {
	Name string `json:"name"`
}

// TranscriptEntry is a single turn of the audit transcript. The transcript
// is distinct from the message list fed back to the LLM on every request.
type TranscriptEntry struct {
	Role    string    `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"datetime"`
}

// ExamResult records one completed exam. The collection is append-only and
// records are never mutated after creation.
type ExamResult struct {
	Email     string            `json:"email"`
	Name      string            `json:"name"`
	Score     float64           `json:"score"`
	Feedback  string            `json:"feedback"`
	Topics    []string          `json:"topics"`
	StartTime *time.Time        `json:"start_time"`
	EndTime   time.Time         `json:"end_time"`
	History   []TranscriptEntry `json:"history"`
}

// ExamConfig holds runtime exam parameters set via CLI flags.
type ExamConfig struct {
	MaxIterations int     // chat loop iteration ceiling
	MaxTokens     int     // response token ceiling per completion
	Temperature   float64 // sampling temperature
	MinTopics     int     // minimum topics per exam
	MaxTopics     int     // maximum topics per exam
	SecureCookies bool    // Secure flag on admin cookies (disable for local dev)
}

// ExamExport is the top-level JSON structure for exam result export.
type ExamExport struct {
	ExamID   string       `json:"exam_id"`
	Subject  string       `json:"subject"`
	Date     string       `json:"date"`
	NumExams int          `json:"num_exams"`
	Results  []ExamResult `json:"results"`
}
