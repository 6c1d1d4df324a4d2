// Package store persists students, exam results and the topic catalog as
// JSON flat files, and keeps admin auth state in a small SQLite database.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/pavelanni/proctor/internal/model"
)

const (
	studentsFile = "students.json"
	resultsFile  = "exam_results.json"
	topicsFile   = "topics.json"
)

// Store owns the JSON files under a data directory. A single mutex guards
// every load/modify/replace sequence so concurrent requests never interleave
// partial updates. Single process, single writer.
type Store struct {
	mu  sync.Mutex
	dir string
}

// New creates a file store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

type studentsDoc struct {
	Students []model.Student `json:"students"`
}

type resultsDoc struct {
	Exams []model.ExamResult `json:"exams"`
}

type topicsDoc struct {
	Topics []model.Topic `json:"topics"`
}

// UpsertStudent registers a student or updates the stored name, matching by
// lowercased email. It reports whether a new record was created. The caller
// is expected to pass an already normalized email.
func (s *Store) UpsertStudent(email, name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc studentsDoc
	s.loadJSON(studentsFile, &doc)

	for i, st := range doc.Students {
		if st.Email == email {
			if st.Name == name {
				return false, nil
			}
			doc.Students[i].Name = name
			if err := s.saveJSON(studentsFile, doc); err != nil {
				return false, err
			}
			slog.Info("updated student name", "email", email)
			return false, nil
		}
	}

	doc.Students = append(doc.Students, model.Student{Email: email, Name: name})
	if err := s.saveJSON(studentsFile, doc); err != nil {
		return false, err
	}
	slog.Info("registered new student", "email", email)
	return true, nil
}

// Students returns all registered students.
func (s *Store) Students() ([]model.Student, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc studentsDoc
	s.loadJSON(studentsFile, &doc)
	return doc.Students, nil
}

// TopicNames returns the names from the topic catalog in file order.
func (s *Store) TopicNames() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc topicsDoc
	s.loadJSON(topicsFile, &doc)
	names := make([]string, 0, len(doc.Topics))
	for _, t := range doc.Topics {
		names = append(names, t.Name)
	}
	return names, nil
}

// AppendResult appends a completed exam record to the results collection.
func (s *Store) AppendResult(r model.ExamResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc resultsDoc
	s.loadJSON(resultsFile, &doc)
	doc.Exams = append(doc.Exams, r)
	return s.saveJSON(resultsFile, doc)
}

// Results returns all recorded exam results in append order.
func (s *Store) Results() ([]model.ExamResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var doc resultsDoc
	s.loadJSON(resultsFile, &doc)
	return doc.Exams, nil
}

// loadJSON reads a JSON file into v. A missing or corrupt file is treated
// as an empty collection: the store must stay usable after a bad write or
// a fresh deployment. Callers hold s.mu.
func (s *Store) loadJSON(name string, v any) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			slog.Error("read file", "path", path, "error", err)
		}
		return
	}
	if err := json.Unmarshal(data, v); err != nil {
		slog.Error("invalid JSON, treating as empty", "path", path, "error", err)
	}
}

// saveJSON writes v to a temp file and renames it into place so a crash
// mid-write never leaves a truncated file behind. Callers hold s.mu.
func (s *Store) saveJSON(name string, v any) error {
	path := filepath.Join(s.dir, name)
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", name, err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s: %w", name, err)
	}
	slog.Debug("saved data file", "path", path)
	return nil
}
