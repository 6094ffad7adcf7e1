package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/S0tham/Sofida/internal/handler"
	appI18n "github.com/S0tham/Sofida/internal/i18n"
	"github.com/S0tham/Sofida/internal/llm"
	"github.com/S0tham/Sofida/internal/progress"
	"github.com/S0tham/Sofida/internal/session"
	"github.com/S0tham/Sofida/internal/speech"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "sofida",
		Short: "Conversational English tutor for Dutch learners",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `sofida --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the tutoring HTTP server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("llm-url", "http://localhost:11434/v1", "OpenAI-compatible API base URL")
	f.String("llm-key", "ollama", "API key for LLM")
	f.String("llm-model", "mistral:7b", "LLM model name")
	f.StringP("lang", "l", "nl", "Service language for learner-visible strings (nl, en)")
	f.Int("history-window", 6, "Chat turns fed into each tutor prompt")
	f.String("progress-db", "sofida.db", "SQLite attempt-log path (empty disables progress tracking)")
	f.Bool("speech", false, "Enable voice endpoints (Google Cloud Speech and Text-to-Speech)")
	f.String("speech-voice", "nl-NL-Wavenet-B", "Text-to-Speech voice name")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the attempt log as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("progress-db", "sofida.db", "SQLite attempt-log path")
	f.StringP("output", "o", "-", "Output file path (- for stdout)")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
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

// viperForCmd binds a command's flags and environment to a fresh viper
// instance. A .env file in the working directory feeds the environment
// before viper reads it.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("error loading .env file", "error", err)
	}

	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("SOFIDA")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("sofida")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/sofida")
	v.AddConfigPath("/etc/sofida")
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

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	llmClient := llm.New(
		v.GetString("llm-url"),
		v.GetString("llm-key"),
		v.GetString("llm-model"),
	)
	if err := llmClient.Ping(context.Background()); err != nil {
		return fmt.Errorf("LLM health check: %w", err)
	}
	slog.Info("LLM endpoint OK", "url", v.GetString("llm-url"), "model", v.GetString("llm-model"))

	managerOpts := []session.Option{
		session.WithHistoryWindow(v.GetInt("history-window")),
	}
	var handlerOpts []handler.Option

	if dbPath := v.GetString("progress-db"); dbPath != "" {
		tracker, err := progress.New(dbPath)
		if err != nil {
			return fmt.Errorf("open progress database: %w", err)
		}
		defer tracker.Close()
		managerOpts = append(managerOpts, session.WithRecorder(tracker))
		handlerOpts = append(handlerOpts, handler.WithProgress(tracker))
	}

	if v.GetBool("speech") {
		ctx := context.Background()
		stt, err := speech.NewGoogleTranscriber(ctx, "")
		if err != nil {
			return fmt.Errorf("create transcriber: %w", err)
		}
		defer stt.Close()
		tts, err := speech.NewGoogleSynthesizer(ctx, "", v.GetString("speech-voice"))
		if err != nil {
			return fmt.Errorf("create synthesizer: %w", err)
		}
		defer tts.Close()
		handlerOpts = append(handlerOpts, handler.WithSpeech(stt, tts))
		slog.Info("voice endpoints enabled", "voice", v.GetString("speech-voice"))
	}

	manager := session.NewManager(session.NewMemoryStore(), llmClient, managerOpts...)
	h := handler.New(manager, handlerOpts...)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(handler.CORS)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"model", v.GetString("llm-model"),
		"llm_url", v.GetString("llm-url"),
		"lang", lang,
		"history_window", v.GetInt("history-window"),
		"progress_db", v.GetString("progress-db"),
		"speech", v.GetBool("speech"),
	)
	return http.ListenAndServe(addr, r)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	tracker, err := progress.New(v.GetString("progress-db"))
	if err != nil {
		return fmt.Errorf("open progress database: %w", err)
	}
	defer tracker.Close()

	attempts, err := tracker.ExportAll()
	if err != nil {
		return fmt.Errorf("export attempts: %w", err)
	}

	out := os.Stdout
	if path := v.GetString("output"); path != "" && path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(attempts); err != nil {
		return fmt.Errorf("encode attempts: %w", err)
	}
	slog.Info("attempt log exported", "count", len(attempts))
	return nil
}
