package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobdigest/internal/region"
)

// Default file locations, relative to the working directory.
const (
	DefaultPath         = "config.yaml"
	DefaultKeywordsFile = "keywords.txt"
	DefaultCSVPath      = "jobs_today.csv"
	DefaultHistoryPath  = "jobs_history.json"
)

// Config is the root configuration for a digest run.
type Config struct {
	KeywordsFile string
	Output       OutputConfig
	History      HistoryConfig
	Regions      RegionsConfig
	Fanout       FanoutConfig
	RateLimit    RateLimitConfig
	Schedule     ScheduleConfig
	Digest       DigestConfig
	Sources      SourcesConfig
	Notification NotificationConfig
}

// OutputConfig controls the tabular sinks.
type OutputConfig struct {
	CSVPath string
	Sheets  SheetsConfig
}

// SheetsConfig controls the optional Google Sheets mirror.
type SheetsConfig struct {
	Enabled         bool   `yaml:"enabled"`
	SpreadsheetID   string `yaml:"spreadsheet_id"`
	Tab             string `yaml:"tab"`
	CredentialsFile string `yaml:"credentials_file"`
}

// HistoryConfig selects the history backend.
type HistoryConfig struct {
	Backend string // "json" or "sqlite"
	Path    string
}

// RegionsConfig holds the ordered preferred-region list.
type RegionsConfig struct {
	Preferred []string
}

// FanoutConfig bounds concurrent source calls.
type FanoutConfig struct {
	Workers     int
	CallTimeout time.Duration
}

// RateLimitConfig controls optional per-source pacing. Zero disables it.
type RateLimitConfig struct {
	MinDelay        time.Duration            // minimum gap between calls to the same source
	SourceOverrides map[string]time.Duration // per-source overrides, keyed by source name
}

// MinDelayFor returns the configured delay for the given source, falling back to MinDelay.
func (r RateLimitConfig) MinDelayFor(source string) time.Duration {
	if d, ok := r.SourceOverrides[source]; ok {
		return d
	}
	return r.MinDelay
}

// ScheduleConfig controls the daemon interval used by `start`.
type ScheduleConfig struct {
	Interval time.Duration
}

// DigestConfig controls the notification body.
type DigestConfig struct {
	PreviewLimit int
}

// SourcesConfig enables and parameterizes each source.
type SourcesConfig struct {
	Google   GoogleConfig
	Adzuna   AdzunaConfig
	Remotive RemotiveConfig
	Boards   []BoardConfig
}

// GoogleConfig configures the Custom Search source.
type GoogleConfig struct {
	Enabled  bool
	Suffixes []string
	Results  int
}

// AdzunaConfig configures the geo-partitioned listing source.
type AdzunaConfig struct {
	Enabled        bool
	Countries      []string
	ResultsPerPage int
}

// RemotiveConfig configures the Remotive feed.
type RemotiveConfig struct {
	Enabled bool
}

// BoardConfig describes a single company board used as a keyword feed.
type BoardConfig struct {
	Name       string `yaml:"name"`
	ATS        string `yaml:"ats"`
	BoardToken string `yaml:"board_token"`
	Enabled    bool   `yaml:"enabled"`
}

// NotificationConfig controls which notifier is used and its settings.
type NotificationConfig struct {
	Type       string   `yaml:"type"` // "email", "slack" or "log"
	SMTPHost   string   `yaml:"smtp_host"`
	SMTPPort   int      `yaml:"smtp_port"`
	To         []string `yaml:"to"`
	WebhookURL string   `yaml:"webhook_url"` // falls back to SLACK_WEBHOOK_URL
}

// rawConfig is used for YAML unmarshaling (snake_case fields and duration as string).
type rawConfig struct {
	KeywordsFile string             `yaml:"keywords_file"`
	Output       rawOutputConfig    `yaml:"output"`
	History      rawHistoryConfig   `yaml:"history"`
	Regions      rawRegionsConfig   `yaml:"regions"`
	Fanout       rawFanoutConfig    `yaml:"fanout"`
	RateLimit    rawRateLimitConfig `yaml:"rate_limit"`
	Schedule     rawScheduleConfig  `yaml:"schedule"`
	Digest       rawDigestConfig    `yaml:"digest"`
	Sources      rawSourcesConfig   `yaml:"sources"`
	Notification NotificationConfig `yaml:"notification"`
}

type rawOutputConfig struct {
	CSVPath string       `yaml:"csv_path"`
	Sheets  SheetsConfig `yaml:"sheets"`
}

type rawHistoryConfig struct {
	Backend string `yaml:"backend"`
	Path    string `yaml:"path"`
}

type rawRegionsConfig struct {
	Preferred []string `yaml:"preferred"`
}

type rawFanoutConfig struct {
	Workers     int    `yaml:"workers"`
	CallTimeout string `yaml:"call_timeout"`
}

type rawRateLimitConfig struct {
	MinDelay        string            `yaml:"min_delay"`
	SourceOverrides map[string]string `yaml:"source_overrides"`
}

type rawScheduleConfig struct {
	Interval string `yaml:"interval"`
}

type rawDigestConfig struct {
	PreviewLimit int `yaml:"preview_limit"`
}

type rawSourcesConfig struct {
	Google struct {
		Enabled  *bool    `yaml:"enabled"`
		Suffixes []string `yaml:"suffixes"`
		Results  int      `yaml:"results"`
	} `yaml:"google"`
	Adzuna struct {
		Enabled        *bool    `yaml:"enabled"`
		Countries      []string `yaml:"countries"`
		ResultsPerPage int      `yaml:"results_per_page"`
	} `yaml:"adzuna"`
	Remotive struct {
		Enabled *bool `yaml:"enabled"`
	} `yaml:"remotive"`
	Boards []BoardConfig `yaml:"boards"`
}

// Default returns the configuration used when no config file exists: the
// three built-in sources, a JSON history and an email digest.
func Default() *Config {
	return &Config{
		KeywordsFile: DefaultKeywordsFile,
		Output:       OutputConfig{CSVPath: DefaultCSVPath},
		History:      HistoryConfig{Backend: "json", Path: DefaultHistoryPath},
		Regions:      RegionsConfig{Preferred: region.DefaultPreferred},
		Fanout:       FanoutConfig{Workers: 8, CallTimeout: 20 * time.Second},
		RateLimit:    RateLimitConfig{SourceOverrides: map[string]time.Duration{}},
		Schedule:     ScheduleConfig{Interval: 24 * time.Hour},
		Digest:       DigestConfig{PreviewLimit: 20},
		Sources: SourcesConfig{
			Google:   GoogleConfig{Enabled: true, Results: 10},
			Adzuna:   AdzunaConfig{Enabled: true, ResultsPerPage: 20},
			Remotive: RemotiveConfig{Enabled: true},
		},
		Notification: NotificationConfig{Type: "email", SMTPHost: "smtp.gmail.com", SMTPPort: 465},
	}
}

// Load reads and parses the YAML config file at path, validates it, and returns Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// LoadOrDefault behaves like Load but returns Default() when path does not exist.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// Parse expands environment variables in data, applies defaults for
// anything unset and validates the result.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	var raw rawConfig
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg := Default()

	if raw.KeywordsFile != "" {
		cfg.KeywordsFile = raw.KeywordsFile
	}
	if raw.Output.CSVPath != "" {
		cfg.Output.CSVPath = raw.Output.CSVPath
	}
	cfg.Output.Sheets = raw.Output.Sheets
	if cfg.Output.Sheets.Tab == "" {
		cfg.Output.Sheets.Tab = "Jobs"
	}

	if raw.History.Backend != "" {
		cfg.History.Backend = strings.ToLower(raw.History.Backend)
	}
	if raw.History.Path != "" {
		cfg.History.Path = raw.History.Path
	} else if cfg.History.Backend == "sqlite" {
		cfg.History.Path = "jobs_history.db"
	}

	if len(raw.Regions.Preferred) > 0 {
		cfg.Regions.Preferred = raw.Regions.Preferred
	}

	if raw.Fanout.Workers != 0 {
		cfg.Fanout.Workers = raw.Fanout.Workers
	}
	var err error
	if raw.Fanout.CallTimeout != "" {
		cfg.Fanout.CallTimeout, err = time.ParseDuration(raw.Fanout.CallTimeout)
		if err != nil {
			return nil, fmt.Errorf("parse fanout.call_timeout %q: %w", raw.Fanout.CallTimeout, err)
		}
	}

	if raw.RateLimit.MinDelay != "" {
		cfg.RateLimit.MinDelay, err = time.ParseDuration(raw.RateLimit.MinDelay)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.min_delay %q: %w", raw.RateLimit.MinDelay, err)
		}
	}
	for source, raw := range raw.RateLimit.SourceOverrides {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("parse rate_limit.source_overrides[%q]: %w", source, err)
		}
		cfg.RateLimit.SourceOverrides[source] = d
	}

	if raw.Schedule.Interval != "" {
		cfg.Schedule.Interval, err = time.ParseDuration(raw.Schedule.Interval)
		if err != nil {
			return nil, fmt.Errorf("parse schedule.interval %q: %w", raw.Schedule.Interval, err)
		}
	}

	if raw.Digest.PreviewLimit != 0 {
		cfg.Digest.PreviewLimit = raw.Digest.PreviewLimit
	}

	src := raw.Sources
	if src.Google.Enabled != nil {
		cfg.Sources.Google.Enabled = *src.Google.Enabled
	}
	cfg.Sources.Google.Suffixes = src.Google.Suffixes
	if src.Google.Results != 0 {
		cfg.Sources.Google.Results = src.Google.Results
	}
	if src.Adzuna.Enabled != nil {
		cfg.Sources.Adzuna.Enabled = *src.Adzuna.Enabled
	}
	cfg.Sources.Adzuna.Countries = src.Adzuna.Countries
	if src.Adzuna.ResultsPerPage != 0 {
		cfg.Sources.Adzuna.ResultsPerPage = src.Adzuna.ResultsPerPage
	}
	if src.Remotive.Enabled != nil {
		cfg.Sources.Remotive.Enabled = *src.Remotive.Enabled
	}
	cfg.Sources.Boards = src.Boards

	n := raw.Notification
	if n.Type != "" {
		cfg.Notification.Type = strings.ToLower(n.Type)
	}
	if n.SMTPHost != "" {
		cfg.Notification.SMTPHost = n.SMTPHost
	}
	if n.SMTPPort != 0 {
		cfg.Notification.SMTPPort = n.SMTPPort
	}
	cfg.Notification.To = n.To
	cfg.Notification.WebhookURL = n.WebhookURL

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.Fanout.Workers <= 0 {
		return fmt.Errorf("fanout.workers must be positive, got %d", cfg.Fanout.Workers)
	}
	if cfg.Fanout.CallTimeout <= 0 {
		return fmt.Errorf("fanout.call_timeout must be positive, got %v", cfg.Fanout.CallTimeout)
	}
	if cfg.RateLimit.MinDelay < 0 {
		return fmt.Errorf("rate_limit.min_delay must not be negative, got %v", cfg.RateLimit.MinDelay)
	}
	// With pacing on, up to Workers calls can queue on one source's limiter
	// inside their own call timeout; the last must still get to run.
	if d := maxPacing(cfg.RateLimit); d > 0 && d*time.Duration(cfg.Fanout.Workers-1) >= cfg.Fanout.CallTimeout {
		return fmt.Errorf("rate_limit delay %v with %d workers exceeds fanout.call_timeout %v; lower the delay or workers, or raise the timeout",
			d, cfg.Fanout.Workers, cfg.Fanout.CallTimeout)
	}
	if cfg.Schedule.Interval <= 0 {
		return fmt.Errorf("schedule.interval must be positive, got %v", cfg.Schedule.Interval)
	}
	if cfg.Digest.PreviewLimit <= 0 {
		return fmt.Errorf("digest.preview_limit must be positive, got %d", cfg.Digest.PreviewLimit)
	}

	switch cfg.History.Backend {
	case "json", "sqlite":
	default:
		return fmt.Errorf("history.backend must be \"json\" or \"sqlite\", got %q", cfg.History.Backend)
	}

	if cfg.Sources.Google.Results < 1 || cfg.Sources.Google.Results > 10 {
		return fmt.Errorf("sources.google.results must be between 1 and 10, got %d", cfg.Sources.Google.Results)
	}

	enabled := 0
	if cfg.Sources.Google.Enabled {
		enabled++
	}
	if cfg.Sources.Adzuna.Enabled {
		enabled++
	}
	if cfg.Sources.Remotive.Enabled {
		enabled++
	}
	for i, b := range cfg.Sources.Boards {
		if !b.Enabled {
			continue
		}
		enabled++
		switch b.ATS {
		case "greenhouse", "lever", "ashby":
		default:
			return fmt.Errorf("sources.boards[%d] (%s): unsupported ats %q", i, b.Name, b.ATS)
		}
		if b.BoardToken == "" {
			return fmt.Errorf("sources.boards[%d] (%s): board_token is required", i, b.Name)
		}
	}
	if enabled == 0 {
		return fmt.Errorf("at least one source must be enabled")
	}

	if cfg.Output.Sheets.Enabled && cfg.Output.Sheets.SpreadsheetID == "" {
		return fmt.Errorf("output.sheets.spreadsheet_id is required when sheets is enabled")
	}

	switch cfg.Notification.Type {
	case "email", "log":
	case "slack":
		if cfg.Notification.WebhookURL != "" &&
			!strings.HasPrefix(cfg.Notification.WebhookURL, "https://hooks.slack.com/") {
			return fmt.Errorf("notification.webhook_url must start with https://hooks.slack.com/")
		}
	default:
		return fmt.Errorf("notification.type must be \"email\", \"slack\" or \"log\", got %q", cfg.Notification.Type)
	}

	return nil
}

func maxPacing(r RateLimitConfig) time.Duration {
	d := r.MinDelay
	for _, o := range r.SourceOverrides {
		if o > d {
			d = o
		}
	}
	return d
}
