package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"StockPilot/internal/calculator"
	"StockPilot/internal/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
	if cfg.Briefing.Cron != "0 30 8,15 * * 1-5" || cfg.Briefing.TopN != 3 {
		t.Errorf("unexpected briefing defaults %+v", cfg.Briefing)
	}
	if len(cfg.Briefing.Universe) == 0 || len(cfg.Briefing.Indicators) != 4 {
		t.Error("universe and macro indicators should default")
	}
	if cfg.Store.Backend != "file" || cfg.Store.Path != "" {
		t.Errorf("store path should be left to the backend default, got %+v", cfg.Store)
	}
	if cfg.Strategy.RSIWeight != 10 || cfg.Indicators.RSIPeriod != 14 {
		t.Error("strategy and indicator defaults missing")
	}
}

func TestLoad_YAMLOverlaysDefaults(t *testing.T) {
	path := writeConfig(t, `
telegram:
  chat_id: "123"
briefing:
  top_n: 5
  universe:
    - name: Samsung
      ticker: "5930"
strategy:
  buy_score: 65
backtest:
  win_rates:
    "5930": 58.5
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.ChatID != "123" || cfg.Briefing.TopN != 5 {
		t.Errorf("yaml values not applied: %+v", cfg.Telegram)
	}
	if cfg.Strategy.BuyScore != 65 || cfg.Strategy.HoldScore != 40 {
		t.Errorf("partial policy should keep other defaults: %+v", cfg.Strategy)
	}
	if len(cfg.Briefing.Universe) != 1 || cfg.Briefing.Universe[0].Ticker != "005930" {
		t.Errorf("universe = %+v", cfg.Briefing.Universe)
	}
	if cfg.Backtest.WinRates["005930"] != 58.5 {
		t.Errorf("win rates should be keyed by normalized ticker: %v", cfg.Backtest.WinRates)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("STORE_BACKEND", "sqlite")
	t.Setenv("BRIEFING_CRON", "0 0 9 * * 1-5")
	t.Setenv("TELEGRAM_POLL_COMMANDS", "true")

	cfg, err := Load(writeConfig(t, "telegram:\n  bot_token: yaml-token\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Telegram.BotToken != "env-token" || cfg.Store.Backend != "sqlite" || !cfg.Telegram.PollCommands {
		t.Errorf("env overrides not applied: %+v %+v", cfg.Telegram, cfg.Store)
	}
	if cfg.Briefing.Cron != "0 0 9 * * 1-5" {
		t.Errorf("cron = %q", cfg.Briefing.Cron)
	}
}

func TestLoad_AllowedChatIDs(t *testing.T) {
	cfg, err := Load(writeConfig(t, "telegram:\n  allowed_chat_ids: [42, -1001]\n"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Telegram.AllowedChatIDs) != 2 || cfg.Telegram.AllowedChatIDs[1] != -1001 {
		t.Errorf("yaml allowed chats = %v", cfg.Telegram.AllowedChatIDs)
	}

	t.Setenv("TELEGRAM_ALLOWED_CHAT_IDS", "7, 8")
	cfg, err = Load(writeConfig(t, ""))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Telegram.AllowedChatIDs) != 2 || cfg.Telegram.AllowedChatIDs[0] != 7 {
		t.Errorf("env allowed chats = %v", cfg.Telegram.AllowedChatIDs)
	}

	t.Setenv("TELEGRAM_ALLOWED_CHAT_IDS", "7,me")
	if _, err := Load(writeConfig(t, "")); err == nil {
		t.Error("expected a non-numeric chat id to fail")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "telegram: [")); err == nil {
		t.Error("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"bad cron", func(c *Config) { c.Briefing.Cron = "every morning" }},
		{"zero top n", func(c *Config) { c.Briefing.TopN = 0 }},
		{"rsi ceiling out of range", func(c *Config) { c.Briefing.RSICeiling = 120 }},
		{"unknown store", func(c *Config) { c.Store.Backend = "sheets" }},
		{"inverted policy", func(c *Config) { c.Strategy.RSIOversold = 80 }},
		{"inverted macd", func(c *Config) { c.Indicators.MACDFast = 30 }},
		{"zero rsi period", func(c *Config) { c.Indicators.RSIPeriod = 0 }},
		{"zero macd fast", func(c *Config) { c.Indicators.MACDFast = 0 }},
		{"one-bar bollinger", func(c *Config) { c.Indicators.BBPeriod = 1 }},
		{"zero stochastic k", func(c *Config) { c.Indicators.StochK = 0 }},
		{"zero volume period", func(c *Config) { c.Indicators.VolumePeriod = 0 }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			tt.mutate(c)
			if err := c.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	c := Default()
	c.Store.Backend = "sheets"
	if err := c.Validate(); !errors.Is(err, store.ErrUnknownBackend) {
		t.Errorf("expected ErrUnknownBackend, got %v", err)
	}
}

func TestValidate_IndicatorWindowsFromYAML(t *testing.T) {
	cfg, err := Load(writeConfig(t, "indicators:\n  rsi_period: 0\n"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Indicators.MACDSlow != 26 {
		t.Errorf("unset windows should keep defaults, macd_slow = %d", cfg.Indicators.MACDSlow)
	}
	if err := cfg.Validate(); !errors.Is(err, calculator.ErrInvalidPeriod) {
		t.Errorf("expected ErrInvalidPeriod, got %v", err)
	}
}
