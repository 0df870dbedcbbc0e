package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"StockPilot/internal/briefing"
	"StockPilot/internal/calculator"
	"StockPilot/internal/model"
	"StockPilot/internal/store"
	"StockPilot/internal/strategy"
)

// CronParser accepts six-field expressions with a leading seconds field.
var CronParser = cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Config holds all application configuration.
type Config struct {
	Telegram struct {
		BotToken     string `yaml:"bot_token"`
		ChatID       string `yaml:"chat_id"`
		PollCommands bool   `yaml:"poll_commands"`
		MaxRetries   int    `yaml:"max_retries"`
		// AllowedChatIDs may change the book from chat, besides a numeric chat_id.
		AllowedChatIDs []int64 `yaml:"allowed_chat_ids"`
	} `yaml:"telegram"`
	DataSource struct {
		YahooURL       string  `yaml:"yahoo_url"`
		NaverURL       string  `yaml:"naver_url"`
		RequestsPerSec float64 `yaml:"requests_per_sec"`
		TimeoutSec     int     `yaml:"timeout_sec"`
		LookbackDays   int     `yaml:"lookback_days"`
	} `yaml:"data_source"`
	Briefing struct {
		Cron       string                 `yaml:"cron"`
		Universe   []model.WatchlistEntry `yaml:"universe"`
		TopN       int                    `yaml:"top_n"`
		RSICeiling float64                `yaml:"rsi_ceiling"`
		Indicators []briefing.Indicator   `yaml:"indicators"`
	} `yaml:"briefing"`
	Store    store.Config `yaml:"store"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Dashboard struct {
		Addr string `yaml:"addr"`
	} `yaml:"dashboard"`
	Strategy   strategy.Policy   `yaml:"strategy"`
	Indicators calculator.Params `yaml:"indicators"`
	Backtest   struct {
		WinRates map[string]float64 `yaml:"win_rates"`
	} `yaml:"backtest"`
	LogLevel string `yaml:"log_level"`
	Proxy    string `yaml:"proxy"`
}

// DefaultUniverse is the scan and top-picks candidate list.
func DefaultUniverse() []model.WatchlistEntry {
	return []model.WatchlistEntry{
		{Name: "Samsung Electronics", Ticker: "005930"},
		{Name: "SK hynix", Ticker: "000660"},
		{Name: "LG Energy Solution", Ticker: "373220"},
		{Name: "Samsung Biologics", Ticker: "207940"},
		{Name: "Hyundai Motor", Ticker: "005380"},
		{Name: "NAVER", Ticker: "035420"},
		{Name: "Kakao", Ticker: "035720"},
		{Name: "Celltrion", Ticker: "068270"},
		{Name: "KB Financial", Ticker: "105560"},
		{Name: "POSCO Holdings", Ticker: "005490"},
	}
}

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	cfg := &Config{
		Strategy:   strategy.DefaultPolicy(),
		Indicators: calculator.DefaultParams(),
		LogLevel:   "info",
	}
	cfg.Telegram.PollCommands = true
	cfg.Telegram.MaxRetries = 3
	cfg.DataSource.RequestsPerSec = 2
	cfg.DataSource.TimeoutSec = 15
	cfg.DataSource.LookbackDays = 400
	cfg.Briefing.Cron = "0 30 8,15 * * 1-5"
	cfg.Briefing.TopN = briefing.DefaultTopN
	cfg.Briefing.RSICeiling = briefing.DefaultRSICeiling
	cfg.Store.Backend = "file"
	cfg.Dashboard.Addr = ":8080"
	return cfg
}

// Load reads config from a YAML file over the defaults, then applies
// environment variable overrides. A .env file in the working directory is
// loaded first when present.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	overrides := map[string]*string{
		"TELEGRAM_BOT_TOKEN": &cfg.Telegram.BotToken,
		"TELEGRAM_CHAT_ID":   &cfg.Telegram.ChatID,
		"STORE_BACKEND":      &cfg.Store.Backend,
		"STORE_PATH":         &cfg.Store.Path,
		"REDIS_ADDR":         &cfg.Store.RedisAddr,
		"REDIS_PASSWORD":     &cfg.Store.RedisPassword,
		"SQLITE_PATH":        &cfg.Database.SQLitePath,
		"DASHBOARD_ADDR":     &cfg.Dashboard.Addr,
		"LOG_LEVEL":          &cfg.LogLevel,
		"HTTPS_PROXY":        &cfg.Proxy,
		"BRIEFING_CRON":      &cfg.Briefing.Cron,
	}
	for env, dst := range overrides {
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("TELEGRAM_POLL_COMMANDS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Telegram.PollCommands = b
		}
	}
	if v := os.Getenv("TELEGRAM_ALLOWED_CHAT_IDS"); v != "" {
		ids, err := parseChatIDs(v)
		if err != nil {
			return nil, fmt.Errorf("TELEGRAM_ALLOWED_CHAT_IDS: %w", err)
		}
		cfg.Telegram.AllowedChatIDs = ids
	}

	if len(cfg.Briefing.Universe) == 0 {
		cfg.Briefing.Universe = DefaultUniverse()
	}
	for i, e := range cfg.Briefing.Universe {
		cfg.Briefing.Universe[i].Ticker = model.NormalizeTicker(e.Ticker)
	}
	if len(cfg.Briefing.Indicators) == 0 {
		cfg.Briefing.Indicators = briefing.DefaultIndicators()
	}
	if len(cfg.Backtest.WinRates) > 0 {
		rates := make(map[string]float64, len(cfg.Backtest.WinRates))
		for k, v := range cfg.Backtest.WinRates {
			rates[model.NormalizeTicker(k)] = v
		}
		cfg.Backtest.WinRates = rates
	}

	return cfg, nil
}

// parseChatIDs parses a comma-separated list of numeric chat ids.
func parseChatIDs(list string) ([]int64, error) {
	var ids []int64
	for _, f := range strings.Split(list, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		id, err := strconv.ParseInt(f, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("chat id %q: %w", f, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if _, err := CronParser.Parse(c.Briefing.Cron); err != nil {
		return fmt.Errorf("briefing.cron %q: %w", c.Briefing.Cron, err)
	}
	if c.Briefing.TopN <= 0 {
		return fmt.Errorf("briefing.top_n must be positive")
	}
	if c.Briefing.RSICeiling <= 0 || c.Briefing.RSICeiling > 100 {
		return fmt.Errorf("briefing.rsi_ceiling must be in (0, 100]")
	}
	switch c.Store.Backend {
	case "", "none", "file", "sqlite", "redis":
	default:
		return fmt.Errorf("%w: %q", store.ErrUnknownBackend, c.Store.Backend)
	}
	if err := c.Strategy.Validate(); err != nil {
		return fmt.Errorf("strategy: %w", err)
	}
	if err := c.Indicators.Validate(); err != nil {
		return fmt.Errorf("indicators: %w", err)
	}
	if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("log_level: %w", err)
	}
	return nil
}
