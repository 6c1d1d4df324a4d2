package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"

	"github.com/pavelanni/proctor/internal/handler"
	appI18n "github.com/pavelanni/proctor/internal/i18n"
	"github.com/pavelanni/proctor/internal/model"
	"github.com/pavelanni/proctor/internal/observability"
	"github.com/pavelanni/proctor/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "proctor",
		Short: "Conversational exam proctor powered by LLMs",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `proctor --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP exam server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("data-dir", "data", "Directory for student, topic and result JSON files")
	f.String("auth-db", "proctor.db", "SQLite database path for admin authentication")
	f.String("api-key", "", "Default provider API key (or set PROCTOR_API_KEY)")
	f.String("groq-model", "llama-3.3-70b-versatile", "Model name for the Groq provider")
	f.String("groq-url", "", "Override for the Groq API base URL")
	f.String("gemini-model", "gemini-2.0-flash-exp", "Model name for the Gemini provider")
	f.Int("max-iterations", 5, "Tool-calling iteration ceiling per chat turn")
	f.Int("max-tokens", 2048, "Response token ceiling per completion")
	f.Float64("temperature", 0.7, "Sampling temperature")
	f.Int("min-topics", 2, "Minimum topics per exam")
	f.Int("max-topics", 3, "Maximum topics per exam")
	f.StringP("lang", "l", "en", "UI language (en, uk)")
	f.Bool("secure-cookies", true, "Set Secure flag on admin session cookies")
	f.String("admin-password", "", "Initial admin password (or set PROCTOR_ADMIN_PASSWORD)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export exam results as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("data-dir", "data", "Directory for student, topic and result JSON files")
	f.String("exam-id", "", "Exam identifier for output (required)")
	f.String("subject", "", "Subject name for output (required)")
	f.String("date", "", "Exam date in YYYY-MM-DD format (defaults to today)")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")

	_ = cmd.MarkFlagRequired("exam-id")
	_ = cmd.MarkFlagRequired("subject")

	return cmd
}

func setupLogging(cmd *cobra.Command) {
	v := viperForCmd(cmd)

	var logLevel slog.Level
	switch strings.ToLower(v.GetString("log-level")) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	handlerOpts := &slog.HandlerOptions{Level: logLevel}
	var logHandler slog.Handler
	switch strings.ToLower(v.GetString("log-format")) {
	case "json":
		logHandler = slog.NewJSONHandler(os.Stderr, handlerOpts)
	default:
		logHandler = slog.NewTextHandler(os.Stderr, handlerOpts)
	}
	slog.SetDefault(slog.New(logHandler))
}

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("PROCTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("proctor")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/proctor")
	v.AddConfigPath("/etc/proctor")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("error reading config file", "error", err)
		}
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	return v
}

func runServe(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("data-dir"))
	if err != nil {
		return fmt.Errorf("open data directory: %w", err)
	}

	// The exam can only start if topics were seeded externally.
	topics, err := db.TopicNames()
	if err != nil {
		return fmt.Errorf("read topic catalog: %w", err)
	}
	if len(topics) < v.GetInt("min-topics") {
		slog.Warn("topic catalog smaller than min-topics, exams cannot start",
			"topics", len(topics), "min_topics", v.GetInt("min-topics"))
	}

	authDB, err := store.OpenAuthDB(v.GetString("auth-db"))
	if err != nil {
		return fmt.Errorf("open auth database: %w", err)
	}
	defer authDB.Close()

	if err := seedAdmin(authDB, v.GetString("admin-password")); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := authDB.CleanupExpiredSessions(); err != nil {
		slog.Warn("cleanup expired sessions", "error", err)
	}

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	metrics := observability.NewMetrics()

	cfg := handler.Config{
		Exam: model.ExamConfig{
			MaxIterations: v.GetInt("max-iterations"),
			MaxTokens:     v.GetInt("max-tokens"),
			Temperature:   v.GetFloat64("temperature"),
			MinTopics:     v.GetInt("min-topics"),
			MaxTopics:     v.GetInt("max-topics"),
			SecureCookies: v.GetBool("secure-cookies"),
		},
		GroqModel:   v.GetString("groq-model"),
		GeminiModel: v.GetString("gemini-model"),
		GroqBaseURL: v.GetString("groq-url"),
		APIKey:      v.GetString("api-key"),
	}

	h := handler.New(db, authDB, metrics, cfg)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"data_dir", v.GetString("data-dir"),
		"groq_model", cfg.GroqModel,
		"gemini_model", cfg.GeminiModel,
		"lang", lang,
		"topics", len(topics),
		"min_topics", cfg.Exam.MinTopics,
		"max_topics", cfg.Exam.MaxTopics,
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("data-dir"))
	if err != nil {
		return fmt.Errorf("open data directory: %w", err)
	}

	results, err := db.Results()
	if err != nil {
		return fmt.Errorf("read exam results: %w", err)
	}

	date := v.GetString("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	export := model.ExamExport{
		ExamID:   v.GetString("exam-id"),
		Subject:  v.GetString("subject"),
		Date:     date,
		NumExams: len(results),
		Results:  results,
	}

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON: %w", err)
	}

	outPath := v.GetString("output")
	var w io.Writer
	if outPath == "" || outPath == "-" {
		w = os.Stdout
	} else {
		f, err := os.Create(outPath)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	_, err = w.Write(data)
	if err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	// Ensure trailing newline.
	_, _ = fmt.Fprintln(w)

	return nil
}

func seedAdmin(db *store.AuthDB, password string) error {
	count, err := db.UserCount()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if password == "" {
		return fmt.Errorf("admin password is required: set --admin-password flag or PROCTOR_ADMIN_PASSWORD env var")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}

	_, err = db.CreateUser(model.User{
		Username:     "admin",
		DisplayName:  "Administrator",
		PasswordHash: string(hash),
		Role:         model.UserRoleAdmin,
		Active:       true,
	})
	if err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	slog.Info("seeded default admin user", "username", "admin")
	return nil
}
