package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Database.Schema != "public" || cfg.Database.Table != "news_articles" {
		t.Fatalf("unexpected database defaults: %+v", cfg.Database)
	}
	if cfg.Agent.ProcessLimit != 5 || cfg.Agent.PublishLimit != 3 {
		t.Fatalf("unexpected agent defaults: %+v", cfg.Agent)
	}
	if cfg.Rewriter.Model == "" || cfg.Rewriter.SystemPrompt == "" {
		t.Fatalf("rewriter defaults must be set: %+v", cfg.Rewriter)
	}
}

func TestLoadAppliesEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://env:env@db:5432/news")
	t.Setenv("MAIN_DB_SCHEMA", "t_env")
	t.Setenv("TELEGRAM_BOT_TOKEN", "tg-token")
	t.Setenv("TELEGRAM_CHANNEL_ID", "-100999")
	t.Setenv("VK_ACCESS_TOKEN", "vk-token")
	t.Setenv("VK_GROUP_ID", "314")
	t.Setenv("REWRITER_API_KEY", "sk-env")

	cfg := Load()

	if cfg.Database.DSN != "postgres://env:env@db:5432/news" {
		t.Fatalf("unexpected dsn: %s", cfg.Database.DSN)
	}
	if cfg.Database.Schema != "t_env" {
		t.Fatalf("unexpected schema: %s", cfg.Database.Schema)
	}
	if cfg.Telegram.BotToken != "tg-token" || cfg.Telegram.ChannelID != "-100999" {
		t.Fatalf("unexpected telegram config: %+v", cfg.Telegram)
	}
	if cfg.VK.AccessToken != "vk-token" || cfg.VK.GroupID != 314 {
		t.Fatalf("unexpected vk config: %+v", cfg.VK)
	}
	if cfg.Rewriter.APIKey != "sk-env" {
		t.Fatalf("unexpected rewriter key: %s", cfg.Rewriter.APIKey)
	}
}

func TestLoadMergesYAMLFile(t *testing.T) {
	raw := `
database:
  schema: t_file
agent:
  processLimit: 10
scheduler:
  interval: 2h
vk:
  groupId: 222
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(raw), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("NEWS_AGENT_CONFIG", path)

	cfg := Load()

	if cfg.Database.Schema != "t_file" {
		t.Fatalf("unexpected schema: %s", cfg.Database.Schema)
	}
	if cfg.Database.Table != "news_articles" {
		t.Fatalf("defaults must survive partial file: %s", cfg.Database.Table)
	}
	if cfg.Agent.ProcessLimit != 10 {
		t.Fatalf("unexpected process limit: %d", cfg.Agent.ProcessLimit)
	}
	if cfg.Scheduler.IntervalDuration() != 2*time.Hour {
		t.Fatalf("unexpected interval: %s", cfg.Scheduler.Interval)
	}
	if cfg.VK.GroupID != 222 {
		t.Fatalf("unexpected vk group: %d", cfg.VK.GroupID)
	}
}
