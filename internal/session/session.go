// Package session holds the mutable state of the single active exam.
package session

import (
	"sync"
	"time"

	"github.com/pavelanni/proctor/internal/model"
)

// Session tracks the currently active exam. Exactly one exam is in flight
// per Session instance; concurrent exams need one Session per examinee.
// All mutations happen under a single mutex so overlapping chat requests
// never observe a half-applied update.
type Session struct {
	mu sync.Mutex

	email      string
	name       string
	topics     []string
	topicIndex int
	startTime  time.Time
	transcript []model.TranscriptEntry

	now func() time.Time
}

// New creates an inactive session.
func New() *Session {
	return &Session{now: time.Now}
}

// Reset clears the session back to the inactive state atomically.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = ""
	s.name = ""
	s.topics = nil
	s.topicIndex = 0
	s.startTime = time.Time{}
	s.transcript = nil
}

// IsActive reports whether an exam is in progress. A session is active iff
// it has a non-empty topic list.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.topics) > 0
}

// Activate installs the examinee identity and topic selection, resets the
// topic cursor and transcript, and stamps the start time.
func (s *Session) Activate(email, name string, topics []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.email = email
	s.name = name
	s.topics = append([]string(nil), topics...)
	s.topicIndex = 0
	s.startTime = s.now()
	s.transcript = nil
}

// Advance moves the topic cursor forward by one and returns the new index.
// The cursor starts at 0 meaning "topic 1 is current": the first call moves
// to topic 2, because topic 1 was already issued with the start result.
func (s *Session) Advance() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topicIndex++
	return s.topicIndex
}

// Email returns the examinee email, or empty if inactive.
func (s *Session) Email() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.email
}

// Name returns the examinee name, or empty if inactive.
func (s *Session) Name() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.name
}

// Topics returns a copy of the selected topic list.
func (s *Session) Topics() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.topics...)
}

// TopicIndex returns the current topic cursor.
func (s *Session) TopicIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.topicIndex
}

// StartTime returns the exam start time, zero if inactive.
func (s *Session) StartTime() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startTime
}

// AppendTranscript adds a timestamped entry to the audit transcript.
func (s *Session) AppendTranscript(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcript = append(s.transcript, model.TranscriptEntry{
		Role:    role,
		Content: content,
		At:      s.now(),
	})
}

// Transcript returns a copy of the audit transcript.
func (s *Session) Transcript() []model.TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.TranscriptEntry(nil), s.transcript...)
}
