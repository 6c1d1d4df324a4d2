// Package handler exposes the browser chat UI and the admin review
// endpoints. It is a thin adapter over the Agent; all exam semantics live
// below it.
package handler

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pavelanni/proctor/internal/agent"
	"github.com/pavelanni/proctor/internal/exam"
	"github.com/pavelanni/proctor/internal/i18n"
	"github.com/pavelanni/proctor/internal/llm"
	"github.com/pavelanni/proctor/internal/llm/gemini"
	"github.com/pavelanni/proctor/internal/llm/groq"
	"github.com/pavelanni/proctor/internal/llm/prompts"
	"github.com/pavelanni/proctor/internal/model"
	"github.com/pavelanni/proctor/internal/observability"
	"github.com/pavelanni/proctor/internal/session"
	"github.com/pavelanni/proctor/internal/store"
)

//go:embed static/*.html
var staticFS embed.FS

// Config holds the handler's provider and exam settings.
type Config struct {
	Exam        model.ExamConfig
	GroqModel   string
	GeminiModel string
	GroqBaseURL string // overridable for OpenAI-compatible endpoints
	APIKey      string // server-side default; the UI may supply its own
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	store   *store.Store
	auth    *store.AuthDB
	metrics *observability.Metrics
	config  Config

	mu    sync.Mutex
	agent *agent.Agent
}

// New creates a new Handler.
func New(s *store.Store, auth *store.AuthDB, metrics *observability.Metrics, cfg Config) *Handler {
	return &Handler{store: s, auth: auth, metrics: metrics, config: cfg}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/login", h.handleLoginPage)
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)

	r.Post("/api/initialize", h.handleInitialize)
	r.Post("/api/message", h.handleMessage)
	r.Post("/api/reset", h.handleReset)

	r.Route("/admin", func(admin chi.Router) {
		admin.Use(h.requireAuth)
		admin.Get("/students", h.handleStudents)
		admin.Get("/results", h.handleResults)
	})

	r.Method("GET", "/metrics", promhttp.HandlerFor(h.metrics.Registry(), promhttp.HandlerOpts{}))
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	h.serveStatic(w, "static/index.html")
}

type initializeRequest struct {
	Provider string `json:"provider"`
	APIKey   string `json:"api_key"`
}

type initializeResponse struct {
	Greeting string `json:"greeting"`
	Status   string `json:"status"`
}

// handleInitialize creates a fresh Agent for the requested provider and
// returns the opening greeting.
func (h *Handler) handleInitialize(w http.ResponseWriter, r *http.Request) {
	var req initializeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	apiKey := strings.TrimSpace(req.APIKey)
	if apiKey == "" {
		apiKey = h.config.APIKey
	}

	client, err := h.newClient(r.Context(), req.Provider, apiKey)
	if err != nil {
		slog.Error("failed to create provider client", "provider", req.Provider, "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	registry := exam.NewRegistry(h.store, session.New(),
		h.config.Exam.MinTopics, h.config.Exam.MaxTopics)
	ag := agent.New(client, registry, h.metrics, h.config.Exam.MaxIterations)

	h.mu.Lock()
	h.agent = ag
	h.mu.Unlock()
	slog.Info("agent initialized", "provider", client.Name())

	writeJSON(w, initializeResponse{
		Greeting: ag.Greeting(r.Context()),
		Status:   i18n.T(r.Context(), "StatusReady"),
	})
}

type messageRequest struct {
	Message string `json:"message"`
}

type messageResponse struct {
	Reply string `json:"reply"`
}

func (h *Handler) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ag := h.currentAgent()
	if ag == nil {
		writeJSON(w, messageResponse{Reply: i18n.T(r.Context(), "NotInitialized")})
		return
	}

	writeJSON(w, messageResponse{Reply: ag.Chat(r.Context(), req.Message)})
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	if ag := h.currentAgent(); ag != nil {
		ag.Reset()
	}
	writeJSON(w, map[string]string{"status": i18n.T(r.Context(), "StatusCleared")})
}

func (h *Handler) handleStudents(w http.ResponseWriter, r *http.Request) {
	students, err := h.store.Students()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"students": students})
}

func (h *Handler) handleResults(w http.ResponseWriter, r *http.Request) {
	results, err := h.store.Results()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"exams": results})
}

func (h *Handler) currentAgent() *agent.Agent {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.agent
}

// newClient builds the provider adapter for the requested vendor. The rest
// of the system only ever sees the llm.Client contract.
func (h *Handler) newClient(ctx context.Context, provider, apiKey string) (llm.Client, error) {
	opts := llm.Options{
		MaxTokens:   h.config.Exam.MaxTokens,
		Temperature: h.config.Exam.Temperature,
	}

	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "groq":
		opts.Model = h.config.GroqModel
		return groq.New(apiKey, h.config.GroqBaseURL, prompts.System, exam.Definitions(), opts)
	case "gemini":
		opts.Model = h.config.GeminiModel
		return gemini.New(ctx, apiKey, prompts.System, exam.Definitions(), opts)
	default:
		return nil, fmt.Errorf("unknown provider: %q (supported: groq, gemini)", provider)
	}
}

func (h *Handler) serveStatic(w http.ResponseWriter, name string) {
	data, err := staticFS.ReadFile(name)
	if err != nil {
		http.Error(w, "page not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
