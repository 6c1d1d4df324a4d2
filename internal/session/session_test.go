package session

import (
	"testing"
)

func TestInactiveByDefault(t *testing.T) {
	s := New()
	if s.IsActive() {
		t.Error("new session should be inactive")
	}
	if got := s.TopicIndex(); got != 0 {
		t.Errorf("expected topic index 0, got %d", got)
	}
}

func TestActivateAndReset(t *testing.T) {
	s := New()
	s.Activate("alice@example.com", "Alice", []string{"tokenization", "embeddings"})

	if !s.IsActive() {
		t.Fatal("session should be active after Activate")
	}
	if got := s.Email(); got != "alice@example.com" {
		t.Errorf("expected email alice@example.com, got %q", got)
	}
	if got := len(s.Topics()); got != 2 {
		t.Errorf("expected 2 topics, got %d", got)
	}
	if s.StartTime().IsZero() {
		t.Error("start time should be stamped")
	}

	s.AppendTranscript("user", "hello")
	if got := len(s.Transcript()); got != 1 {
		t.Fatalf("expected 1 transcript entry, got %d", got)
	}

	s.Reset()
	if s.IsActive() {
		t.Error("session should be inactive after Reset")
	}
	if got := s.Email(); got != "" {
		t.Errorf("expected empty email after Reset, got %q", got)
	}
	if got := len(s.Transcript()); got != 0 {
		t.Errorf("expected empty transcript after Reset, got %d entries", got)
	}
	if !s.StartTime().IsZero() {
		t.Error("start time should be cleared after Reset")
	}
}

func TestAdvance(t *testing.T) {
	s := New()
	s.Activate("bob@example.com", "Bob", []string{"a", "b", "c"})

	// Cursor starts at 0 = topic 1 current; first Advance lands on topic 2.
	if got := s.Advance(); got != 1 {
		t.Errorf("first Advance: expected index 1, got %d", got)
	}
	if got := s.Advance(); got != 2 {
		t.Errorf("second Advance: expected index 2, got %d", got)
	}
	if got := s.Advance(); got != 3 {
		t.Errorf("third Advance: expected index 3, got %d", got)
	}
}

func TestActivateClearsTranscript(t *testing.T) {
	s := New()
	s.Activate("a@b.co", "A", []string{"x"})
	s.AppendTranscript("user", "first exam")

	s.Activate("c@d.co", "C", []string{"y"})
	if got := len(s.Transcript()); got != 0 {
		t.Errorf("Activate should clear transcript, got %d entries", got)
	}
	if got := s.TopicIndex(); got != 0 {
		t.Errorf("Activate should reset cursor, got %d", got)
	}
}

func TestTopicsCopy(t *testing.T) {
	s := New()
	orig := []string{"a", "b"}
	s.Activate("a@b.co", "A", orig)

	got := s.Topics()
	got[0] = "mutated"
	if s.Topics()[0] != "a" {
		t.Error("Topics should return a copy, not the backing slice")
	}

	orig[1] = "mutated"
	if s.Topics()[1] != "b" {
		t.Error("Activate should copy the topic slice")
	}
}
