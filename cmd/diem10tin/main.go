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

	"github.com/minhph/diem10tin/internal/advisory"
	"github.com/minhph/diem10tin/internal/bank"
	"github.com/minhph/diem10tin/internal/exam"
	"github.com/minhph/diem10tin/internal/handler"
	appI18n "github.com/minhph/diem10tin/internal/i18n"
	"github.com/minhph/diem10tin/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "diem10tin",
		Short: "Exam practice server for the informatics graduation exam",
	}

	serve := serveCmd()
	root.AddCommand(serve, exportCmd())

	// Make "serve" the default when no subcommand is given.
	root.RunE = serve.RunE

	// Register serve flags on root so bare `diem10tin --addr ...` still works.
	root.Flags().AddFlagSet(serve.Flags())

	return root
}

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP practice server",
		RunE:  runServe,
	}
	f := cmd.Flags()
	f.StringP("addr", "a", ":8080", "HTTP listen address")
	f.String("db", "diem10tin.db", "SQLite database path")
	f.StringSliceP("questions", "q", []string{"questions/sample_vi.json"}, "Paths to question bank JSON files (repeatable)")
	f.StringSlice("exams", []string{"exams/de01_vi.json"}, "Paths to structured exam JSON files (repeatable)")
	f.StringP("lang", "l", "vi", "UI language (en, vi)")
	f.IntP("quiz-questions", "n", 20, "Questions per practice quiz")
	f.String("advisory-provider", "gemini", "Advisory backend (gemini, openai)")
	f.String("gemini-key", "", "Gemini API key to seed settings (or set DIEM10TIN_GEMINI_KEY)")
	f.String("llm-url", "", "Base URL for an OpenAI-compatible backend")
	f.String("model", advisory.DefaultModel, "Preferred advisory model")
	f.StringSlice("fallback", advisory.DefaultFallback, "Advisory model fallback order")
	f.Duration("advisory-timeout", 60*time.Second, "Timeout per advisory model attempt")
	f.String("log-level", "info", "Log level (debug, info, warn, error)")
	f.String("log-format", "text", "Log format (text, json)")
	return cmd
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export practice history as JSON",
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("db", "diem10tin.db", "SQLite database path")
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

// viperForCmd binds a command's flags and environment to a fresh viper instance.
func viperForCmd(cmd *cobra.Command) *viper.Viper {
	v := viper.New()
	_ = v.BindPFlags(cmd.Flags())

	v.SetEnvPrefix("DIEM10TIN")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("diem10tin")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.config/diem10tin")
	v.AddConfigPath("/etc/diem10tin")
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

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	// A key given on the command line seeds the settings table; a key saved
	// through the settings API wins afterwards.
	if key := v.GetString("gemini-key"); key != "" {
		if err := seedSetting(db, store.SettingAPIKey, key); err != nil {
			return fmt.Errorf("seed api key: %w", err)
		}
	}
	if err := seedSetting(db, store.SettingModel, v.GetString("model")); err != nil {
		return fmt.Errorf("seed model: %w", err)
	}

	b, err := bank.Load(v.GetStringSlice("questions"), v.GetStringSlice("exams"))
	if err != nil {
		return fmt.Errorf("load question bank: %w", err)
	}
	slog.Info("question bank loaded",
		"questions", len(b.Questions()),
		"topics", len(b.Topics()),
		"exams", len(b.Exams()),
	)

	lang := v.GetString("lang")
	if err := appI18n.Init(lang); err != nil {
		return fmt.Errorf("init i18n: %w", err)
	}

	providerKind := handler.ProviderKind(strings.ToLower(v.GetString("advisory-provider")))
	if providerKind != handler.ProviderGemini && providerKind != handler.ProviderOpenAI {
		slog.Warn("unknown advisory provider, using gemini", "provider", providerKind)
		providerKind = handler.ProviderGemini
	}
	gateway := handler.NewAdvisoryGateway(
		db,
		providerKind,
		v.GetString("llm-url"),
		v.GetStringSlice("fallback"),
		v.GetDuration("advisory-timeout"),
	)

	sessions := exam.NewManager(db)
	h := handler.New(db, b, sessions, gateway, handler.Config{
		QuizQuestions: v.GetInt("quiz-questions"),
	})

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(appI18n.Middleware(lang))
	h.Routes(r)

	addr := v.GetString("addr")
	slog.Info("starting server",
		"addr", addr,
		"lang", lang,
		"quiz_questions", v.GetInt("quiz-questions"),
		"advisory_provider", providerKind,
		"model", v.GetString("model"),
	)
	return http.ListenAndServe(addr, r)
}

// seedSetting writes a value only when the key has no stored value yet.
func seedSetting(db *store.Store, key, value string) error {
	if value == "" {
		return nil
	}
	current, err := db.Setting(key)
	if err != nil {
		return err
	}
	if current != "" {
		return nil
	}
	return db.SetSetting(key, value)
}

func runExport(cmd *cobra.Command, _ []string) error {
	setupLogging(cmd)
	v := viperForCmd(cmd)

	db, err := store.New(v.GetString("db"))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	export, err := db.ExportHistory()
	if err != nil {
		return fmt.Errorf("export history: %w", err)
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

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	_, _ = fmt.Fprintln(w)

	return nil
}
