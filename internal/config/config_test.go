package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_ValidConfig(t *testing.T) {
	path := writeConfig(t, `
keywords_file: terms.txt
output:
  csv_path: out/today.csv
history:
  backend: sqlite
regions:
  preferred: [Singapore, India]
fanout:
  workers: 4
  call_timeout: 15s
rate_limit:
  min_delay: 1s
  source_overrides:
    Adzuna: 3s
sources:
  google:
    enabled: false
  adzuna:
    countries: [in, sg]
  boards:
    - name: Acme
      ats: greenhouse
      board_token: acme
      enabled: true
notification:
  type: log
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KeywordsFile != "terms.txt" {
		t.Errorf("KeywordsFile = %q", cfg.KeywordsFile)
	}
	if cfg.Output.CSVPath != "out/today.csv" {
		t.Errorf("CSVPath = %q", cfg.Output.CSVPath)
	}
	if cfg.History.Backend != "sqlite" || cfg.History.Path != "jobs_history.db" {
		t.Errorf("History = %+v", cfg.History)
	}
	if len(cfg.Regions.Preferred) != 2 || cfg.Regions.Preferred[0] != "Singapore" {
		t.Errorf("Preferred = %v", cfg.Regions.Preferred)
	}
	if cfg.Fanout.Workers != 4 || cfg.Fanout.CallTimeout != 15*time.Second {
		t.Errorf("Fanout = %+v", cfg.Fanout)
	}
	if cfg.RateLimit.MinDelayFor("Adzuna") != 3*time.Second || cfg.RateLimit.MinDelayFor("Remotive") != time.Second {
		t.Errorf("RateLimit = %+v", cfg.RateLimit)
	}
	if cfg.Sources.Google.Enabled {
		t.Error("google should be disabled")
	}
	if !cfg.Sources.Adzuna.Enabled || !cfg.Sources.Remotive.Enabled {
		t.Error("adzuna and remotive should default to enabled")
	}
	if len(cfg.Sources.Adzuna.Countries) != 2 {
		t.Errorf("Countries = %v", cfg.Sources.Adzuna.Countries)
	}
	if len(cfg.Sources.Boards) != 1 || cfg.Sources.Boards[0].BoardToken != "acme" {
		t.Errorf("Boards = %+v", cfg.Sources.Boards)
	}
	if cfg.Notification.Type != "log" {
		t.Errorf("Notification.Type = %q", cfg.Notification.Type)
	}
}

func TestLoad_EmptyFileUsesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.KeywordsFile != DefaultKeywordsFile || cfg.Output.CSVPath != DefaultCSVPath {
		t.Errorf("unexpected file defaults: %+v", cfg)
	}
	if cfg.History.Backend != "json" || cfg.History.Path != DefaultHistoryPath {
		t.Errorf("History = %+v", cfg.History)
	}
	if cfg.Fanout.Workers != 8 || cfg.Fanout.CallTimeout != 20*time.Second {
		t.Errorf("Fanout = %+v", cfg.Fanout)
	}
	if cfg.RateLimit.MinDelay != 0 {
		t.Errorf("pacing should be off by default, got %v", cfg.RateLimit.MinDelay)
	}
	if cfg.Digest.PreviewLimit != 20 {
		t.Errorf("PreviewLimit = %d", cfg.Digest.PreviewLimit)
	}
	if got := strings.Join(cfg.Regions.Preferred, ","); got != "India,Dubai,UAE,Qatar,Singapore" {
		t.Errorf("Preferred = %s", got)
	}
	if cfg.Notification.Type != "email" || cfg.Notification.SMTPPort != 465 {
		t.Errorf("Notification = %+v", cfg.Notification)
	}
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("JOBDIGEST_TEST_CSV", "/tmp/x.csv")
	cfg, err := Load(writeConfig(t, "output:\n  csv_path: ${JOBDIGEST_TEST_CSV}\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.CSVPath != "/tmp/x.csv" {
		t.Errorf("CSVPath = %q", cfg.Output.CSVPath)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err == nil {
		t.Fatal("Load: expected error for missing file")
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault: %v", err)
	}
	if !cfg.Sources.Google.Enabled || !cfg.Sources.Adzuna.Enabled || !cfg.Sources.Remotive.Enabled {
		t.Errorf("expected built-in sources enabled: %+v", cfg.Sources)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "fanout: [broken")); err == nil {
		t.Fatal("Load: expected error for invalid YAML")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "bad duration",
			content: "fanout:\n  call_timeout: soon\n",
			wantErr: "fanout.call_timeout",
		},
		{
			name:    "negative workers",
			content: "fanout:\n  workers: -1\n",
			wantErr: "fanout.workers",
		},
		{
			name:    "unknown history backend",
			content: "history:\n  backend: redis\n",
			wantErr: "history.backend",
		},
		{
			name:    "no sources enabled",
			content: "sources:\n  google: {enabled: false}\n  adzuna: {enabled: false}\n  remotive: {enabled: false}\n",
			wantErr: "at least one source",
		},
		{
			name:    "unsupported ats",
			content: "sources:\n  boards:\n    - {name: X, ats: workday, board_token: x, enabled: true}\n",
			wantErr: "unsupported ats",
		},
		{
			name:    "board without token",
			content: "sources:\n  boards:\n    - {name: X, ats: lever, enabled: true}\n",
			wantErr: "board_token",
		},
		{
			name:    "sheets without id",
			content: "output:\n  sheets:\n    enabled: true\n",
			wantErr: "spreadsheet_id",
		},
		{
			name:    "unknown notifier",
			content: "notification:\n  type: pager\n",
			wantErr: "notification.type",
		},
		{
			name:    "bad slack webhook",
			content: "notification:\n  type: slack\n  webhook_url: https://example.com/hook\n",
			wantErr: "hooks.slack.com",
		},
		{
			name:    "pacing longer than call timeout allows",
			content: "fanout:\n  workers: 8\n  call_timeout: 10s\nrate_limit:\n  source_overrides:\n    Adzuna: 2s\n",
			wantErr: "fanout.call_timeout",
		},
		{
			name:    "google results out of range",
			content: "sources:\n  google:\n    results: 50\n",
			wantErr: "sources.google.results",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want substring %q", err, tt.wantErr)
			}
		})
	}
}

func TestLoad_ExampleConfig(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config.yaml"))
	if err != nil {
		t.Fatalf("example config.yaml does not load: %v", err)
	}
	if cfg.RateLimit.MinDelayFor("Google Hidden Jobs") != time.Second {
		t.Errorf("Google override = %v, want 1s", cfg.RateLimit.MinDelayFor("Google Hidden Jobs"))
	}
	if cfg.RateLimit.MinDelayFor("Adzuna") != 0 {
		t.Errorf("Adzuna delay = %v, want 0", cfg.RateLimit.MinDelayFor("Adzuna"))
	}
	if len(cfg.Sources.Boards) != 2 {
		t.Errorf("expected 2 boards, got %d", len(cfg.Sources.Boards))
	}
}
