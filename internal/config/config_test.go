package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != DefaultHTTPAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultHTTPAddr)
	}
	if cfg.Anthropic.ParserModel != DefaultParserModel {
		t.Errorf("Anthropic.ParserModel = %q, want %q", cfg.Anthropic.ParserModel, DefaultParserModel)
	}
	if cfg.Anthropic.TimeoutSeconds != DefaultLLMTimeoutSeconds {
		t.Errorf("Anthropic.TimeoutSeconds = %d, want %d", cfg.Anthropic.TimeoutSeconds, DefaultLLMTimeoutSeconds)
	}
	if cfg.Postgres.Database != DefaultPGDatabase {
		t.Errorf("Postgres.Database = %q, want %q", cfg.Postgres.Database, DefaultPGDatabase)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[server]
addr = ":9090"

[anthropic]
api_key = "sk-test"
timeout_seconds = 10

[outbox]
stale_after = "10m"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("Server.Addr = %q, want :9090", cfg.Server.Addr)
	}
	if cfg.Anthropic.APIKey != "sk-test" {
		t.Errorf("Anthropic.APIKey = %q, want sk-test", cfg.Anthropic.APIKey)
	}
	if cfg.Anthropic.TimeoutSeconds != 10 {
		t.Errorf("Anthropic.TimeoutSeconds = %d, want 10", cfg.Anthropic.TimeoutSeconds)
	}
	// Untouched sections keep defaults.
	if cfg.Anthropic.ReplyModel != DefaultReplyModel {
		t.Errorf("Anthropic.ReplyModel = %q, want %q", cfg.Anthropic.ReplyModel, DefaultReplyModel)
	}
	if cfg.Outbox.StaleAfter != "10m" {
		t.Errorf("Outbox.StaleAfter = %q, want 10m", cfg.Outbox.StaleAfter)
	}
}
