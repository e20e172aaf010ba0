package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
	"google.golang.org/api/option"

	"github.com/amishk599/jobdigest/internal/adapter"
	"github.com/amishk599/jobdigest/internal/aggregator"
	"github.com/amishk599/jobdigest/internal/config"
	"github.com/amishk599/jobdigest/internal/digest"
	"github.com/amishk599/jobdigest/internal/history"
	"github.com/amishk599/jobdigest/internal/model"
	"github.com/amishk599/jobdigest/internal/notifier"
	"github.com/amishk599/jobdigest/internal/output"
	"github.com/amishk599/jobdigest/internal/pipeline"
	"github.com/amishk599/jobdigest/internal/ratelimit"
	"github.com/amishk599/jobdigest/internal/region"
)

var (
	cfgPath string
	debug   bool
)

var rootCmd = &cobra.Command{
	Use:   "jobdigest",
	Short: "Daily job digest across search and listing sources",
	Long: "jobdigest queries job sources for every keyword, removes duplicates, flags postings " +
		"not seen in earlier runs, writes a CSV snapshot and sends a digest of what is new.",
	// Default to `run` so a cron entry can invoke the binary directly.
	RunE:          runRun,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "path to config file (default: JOBDIGEST_CONFIG env var or ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

// loadConfig resolves the config path and parses it.
// Priority: explicit path arg > JOBDIGEST_CONFIG env var > "./config.yaml".
// Only the default path may be absent; an explicit path must exist.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("JOBDIGEST_CONFIG")
	}
	if path == "" {
		return config.LoadOrDefault(config.DefaultPath)
	}
	return config.Load(path)
}

func setupLogger(dbg bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if dbg {
		logLevel = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
}

// mustLoad loads .env, the config and the credentials it needs, exiting on
// any failure.
func mustLoad(logger *slog.Logger, withNotifier bool) (*config.Config, config.Credentials) {
	if err := config.LoadDotEnv(".env"); err != nil {
		logger.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	creds, err := config.LoadCredentials(cfg, withNotifier)
	if err != nil {
		logger.Error("failed to load credentials", "error", err)
		os.Exit(1)
	}
	return cfg, creds
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func setupNotifier(cfg *config.Config, creds config.Credentials, httpClient *http.Client, logger *slog.Logger) model.Notifier {
	switch cfg.Notification.Type {
	case "slack":
		logger.Info("using slack notifier")
		return notifier.NewSlackNotifier(creds.SlackWebhookURL, httpClient, logger)
	case "email":
		logger.Info("using email notifier", "smtp_host", cfg.Notification.SMTPHost)
		return notifier.NewEmailNotifier(
			cfg.Notification.SMTPHost,
			cfg.Notification.SMTPPort,
			creds.EmailAddress,
			creds.EmailPassword,
			cfg.Notification.To,
			logger,
		)
	default:
		return notifier.NewLogNotifier(logger)
	}
}

func createFeed(board config.BoardConfig, httpClient *http.Client, logger *slog.Logger) (adapter.FeedFetcher, bool) {
	switch board.ATS {
	case "greenhouse":
		return adapter.NewGreenhouseAdapter(board.BoardToken, board.Name, httpClient), true
	case "lever":
		return adapter.NewLeverAdapter(board.BoardToken, board.Name, httpClient), true
	case "ashby":
		return adapter.NewAshbyAdapter(board.BoardToken, board.Name, httpClient), true
	default:
		logger.Warn("unsupported ATS, skipping", "board", board.Name, "ats", board.ATS)
		return nil, false
	}
}

// buildSources creates every enabled source, each wrapped with per-source
// pacing.
func buildSources(ctx context.Context, cfg *config.Config, creds config.Credentials, httpClient *http.Client, logger *slog.Logger) ([]model.Source, error) {
	var sources []model.Source

	if cfg.Sources.Google.Enabled {
		// The Custom Search client authenticates through its own transport;
		// without a key (listing only) it must not look for default credentials.
		var opts []option.ClientOption
		if creds.GoogleAPIKey == "" {
			opts = append(opts, option.WithoutAuthentication())
		}
		g, err := adapter.NewGoogleSearchAdapter(ctx, creds.GoogleAPIKey, creds.GoogleCSEID,
			cfg.Sources.Google.Suffixes, cfg.Sources.Google.Results, opts...)
		if err != nil {
			return nil, err
		}
		sources = append(sources, g)
	}
	if cfg.Sources.Adzuna.Enabled {
		sources = append(sources, adapter.NewAdzunaAdapter(creds.AdzunaAppID, creds.AdzunaAppKey,
			cfg.Sources.Adzuna.Countries, cfg.Sources.Adzuna.ResultsPerPage, httpClient))
	}
	if cfg.Sources.Remotive.Enabled {
		sources = append(sources, adapter.NewKeywordFeed(adapter.NewRemotiveAdapter(httpClient)))
	}
	for _, board := range cfg.Sources.Boards {
		if !board.Enabled {
			continue
		}
		feed, ok := createFeed(board, httpClient, logger)
		if !ok {
			continue
		}
		sources = append(sources, adapter.NewKeywordFeed(feed))
		logger.Debug("registered board", "name", board.Name, "ats", board.ATS)
	}

	limiter := ratelimit.NewSourceLimiter(cfg.RateLimit.MinDelay, cfg.RateLimit.SourceOverrides)
	for i, s := range sources {
		sources[i] = ratelimit.NewRateLimitedSource(s, limiter)
	}
	return sources, nil
}

// openHistory opens the configured history backend. The returned close
// function is never nil.
func openHistory(cfg *config.Config) (model.HistoryStore, func() error, error) {
	switch cfg.History.Backend {
	case "sqlite":
		s, err := history.NewSQLiteStore(cfg.History.Path)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	default:
		return history.NewFileStore(cfg.History.Path), func() error { return nil }, nil
	}
}

// historyLock adapts the flock-based history lock to the pipeline.
func historyLock(path string) pipeline.LockFunc {
	return func() (func() error, error) {
		l, err := history.AcquireLock(path)
		if err != nil {
			return nil, err
		}
		return l.Release, nil
	}
}

// buildMirrors returns the best-effort copies of the CSV snapshot.
func buildMirrors(ctx context.Context, cfg *config.Config, logger *slog.Logger) []model.TableWriter {
	sc := cfg.Output.Sheets
	if !sc.Enabled {
		return nil
	}
	var opts []option.ClientOption
	if sc.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(sc.CredentialsFile))
	}
	w, err := output.NewSheetsWriter(ctx, sc.SpreadsheetID, sc.Tab, opts...)
	if err != nil {
		logger.Warn("sheets mirror disabled", "error", err)
		return nil
	}
	logger.Info("mirroring snapshot to sheets", "tab", sc.Tab)
	return []model.TableWriter{w}
}

func newAggregator(cfg *config.Config, sources []model.Source, logger *slog.Logger) *aggregator.Aggregator {
	return aggregator.New(sources, cfg.Fanout.Workers, cfg.Fanout.CallTimeout, logger)
}

func newEmitter(cfg *config.Config) *digest.Emitter {
	return digest.NewEmitter(cfg.Digest.PreviewLimit)
}

func newClassifier(cfg *config.Config) *region.Classifier {
	return region.NewClassifier(cfg.Regions.Preferred)
}

// buildRunner wires the full pipeline used by `run` and `start`. The
// returned close function releases the history backend.
func buildRunner(ctx context.Context, cfg *config.Config, creds config.Credentials, logger *slog.Logger) (*pipeline.Runner, func() error, error) {
	httpClient := newHTTPClient()

	sources, err := buildSources(ctx, cfg, creds, httpClient, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("building sources: %w", err)
	}

	store, closeStore, err := openHistory(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening history: %w", err)
	}

	runner := pipeline.NewRunner(pipeline.Deps{
		Aggregator: newAggregator(cfg, sources, logger),
		Classifier: newClassifier(cfg),
		History:    store,
		Table:      output.NewCSVWriter(cfg.Output.CSVPath),
		Mirrors:    buildMirrors(ctx, cfg, logger),
		Emitter:    newEmitter(cfg),
		Notifier:   setupNotifier(cfg, creds, httpClient, logger),
		Lock:       historyLock(cfg.History.Path),
		Logger:     logger,
	})
	return runner, closeStore, nil
}
