package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"

	"sentinel_bot/internal/filters"
	"sentinel_bot/internal/models"
	"sentinel_bot/internal/risk"
	"sentinel_bot/pkg/logger"
	"sentinel_bot/pkg/tracing"
)

const (
	configFilePathENV = "CONFIG_FILE"
	configDir         = "configs"
	defaultConfigFile = "values_local.yaml"
)

// env overrides: config key -> variable
var envBindings = map[string]string{
	"telegram.token":     "TELEGRAM_TOKEN",
	"telegram.chat_id":   "TELEGRAM_CHAT_ID",
	"db_dsn":             "DATABASE_DSN",
	"sentiment.api_key":  "FINNHUB_API_KEY",
	"sentiment.redis":    "REDIS_ADDR",
	"log.level":          "LOG_LEVEL",
	"memory.backend":     "MEMORY_BACKEND",
	"memory.path":        "BOT_STORE_PATH",
	"service.health":     "HEALTH_ADDR",
	"trading.ignore_spr": "IGNORE_SPREAD_CHECK",
}

type Config struct {
	Telegram struct {
		Token  string `yaml:"token"`
		ChatID int64  `yaml:"chat_id"`
	} `yaml:"telegram"`
	DB      string `yaml:"db_dsn"`
	Service struct {
		Name       string `yaml:"name"`
		HealthAddr string `yaml:"health_addr"`
	} `yaml:"service"`

	Log     logger.Config  `yaml:"log"`
	Tracing tracing.Config `yaml:"tracing"`

	Trading   Trading          `yaml:"trading"`
	Sentiment Sentiment        `yaml:"sentiment"`
	Memory    Memory           `yaml:"memory"`
	Accounts  []models.Account `yaml:"accounts"`
}

type Trading struct {
	MaxTradesAtOnce   int     `yaml:"max_trades_at_once"`
	MaxStopLossPips   float64 `yaml:"max_stoploss_pips"`
	MaxSpreadPips     float64 `yaml:"max_spread_pips"`
	MaxLotSize        float64 `yaml:"max_lot_size"`
	DefaultLot        float64 `yaml:"default_lot"`
	IgnoreSpreadCheck bool    `yaml:"ignore_spread_check"`
	MagicNumber       int64   `yaml:"magic_number"`
	VolatilityPeriod  int     `yaml:"volatility_period"`

	ScanInterval time.Duration `yaml:"scan_interval"`
	SymbolPause  time.Duration `yaml:"symbol_pause"`
	HealthRetry  time.Duration `yaml:"health_retry"`
	BusyWait     time.Duration `yaml:"busy_wait"`
	CallTimeout  time.Duration `yaml:"call_timeout"`

	BaseSymbols        []string          `yaml:"base_symbols"`
	CryptoSymbols      []string          `yaml:"crypto_symbols"`
	AllowWeekendCrypto bool              `yaml:"allow_weekend_crypto"`
	Sessions           []filters.Session `yaml:"sessions"`
	RiskTiers          []models.RiskTier `yaml:"risk_tiers"`
}

type Sentiment struct {
	Enabled         bool          `yaml:"enabled"`
	BaseURL         string        `yaml:"base_url"`
	APIKey          string        `yaml:"api_key"`
	StrongThreshold float64       `yaml:"strong_threshold"`
	Timeout         time.Duration `yaml:"timeout"`
	CacheTTL        time.Duration `yaml:"cache_ttl"`
	Redis           Redis         `yaml:"redis"`
}

type Redis struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type Memory struct {
	Backend string `yaml:"backend"` // file | postgres
	Path    string `yaml:"path"`
}

func Default() Config {
	cfg := Config{
		Log:     logger.Config{Level: "info", Service: "sentinel_bot"},
		Tracing: tracing.Config{Host: "localhost", Port: 6831},
		Trading: Trading{
			MaxTradesAtOnce:    1,
			MaxStopLossPips:    30,
			MaxSpreadPips:      3,
			MaxLotSize:         risk.DefaultMaxLot,
			DefaultLot:         risk.MinLot,
			MagicNumber:        123456,
			VolatilityPeriod:   14,
			ScanInterval:       60 * time.Second,
			SymbolPause:        time.Second,
			HealthRetry:        5 * time.Second,
			BusyWait:           3 * time.Second,
			CallTimeout:        10 * time.Second,
			BaseSymbols:        DefaultBaseSymbols(),
			CryptoSymbols:      []string{"BTCUSD", "ETHUSD", "LTCUSD", "XRPUSD"},
			AllowWeekendCrypto: true,
			Sessions:           filters.DefaultSessions(),
			RiskTiers:          risk.DefaultTiers(),
		},
		Sentiment: Sentiment{
			BaseURL:         "https://finnhub.io/api/v1",
			StrongThreshold: 0.6,
			Timeout:         10 * time.Second,
			CacheTTL:        15 * time.Minute,
		},
		Memory: Memory{Backend: "file", Path: "data/trade_memory.json"},
	}
	cfg.Service.Name = "sentinel_bot"
	cfg.Service.HealthAddr = ":8080"
	return cfg
}

func DefaultBaseSymbols() []string {
	return []string{
		"EURUSD", "GBPUSD", "USDJPY", "USDCHF", "USDCAD", "AUDUSD", "NZDUSD",
		"XAUUSD", "USOIL", "US30", "NAS100", "BTCUSD", "GBPJPY", "EURJPY", "AUDJPY",
	}
}

// NewConfig reads configs/$CONFIG_FILE (values_local.yaml by default),
// then applies .env and environment overrides.
func NewConfig() (*Config, error) {
	_ = godotenv.Load()

	name := os.Getenv(configFilePathENV)
	if name == "" {
		name = defaultConfigFile
	}
	return Load(filepath.Join(configDir, name))
}

// Load decodes path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	file, err := os.Open(path)
	switch {
	case err == nil:
		defer func() {
			_ = file.Close()
		}()
		if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
			return nil, fmt.Errorf("decode config %s: %w", path, err)
		}
	case !os.IsNotExist(err):
		return nil, fmt.Errorf("open config %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) {
	v := viper.New()
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	if s := v.GetString("telegram.token"); s != "" {
		cfg.Telegram.Token = s
	}
	if v.IsSet("telegram.chat_id") {
		if id := v.GetInt64("telegram.chat_id"); id != 0 {
			cfg.Telegram.ChatID = id
		}
	}
	if s := v.GetString("db_dsn"); s != "" {
		cfg.DB = s
	}
	if s := v.GetString("sentiment.api_key"); s != "" {
		cfg.Sentiment.APIKey = s
		cfg.Sentiment.Enabled = true
	}
	if s := v.GetString("sentiment.redis"); s != "" {
		cfg.Sentiment.Redis.Addr = s
	}
	if s := v.GetString("log.level"); s != "" {
		cfg.Log.Level = s
	}
	if s := v.GetString("memory.backend"); s != "" {
		cfg.Memory.Backend = s
	}
	if s := v.GetString("memory.path"); s != "" {
		cfg.Memory.Path = s
	}
	if s := v.GetString("service.health"); s != "" {
		cfg.Service.HealthAddr = s
	}
	if v.IsSet("trading.ignore_spr") {
		cfg.Trading.IgnoreSpreadCheck = v.GetBool("trading.ignore_spr")
	}
}

func (c *Config) Validate() error {
	t := c.Trading
	if err := risk.Tiers(t.RiskTiers).Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if t.MaxTradesAtOnce < 1 {
		return fmt.Errorf("config: max_trades_at_once must be >= 1")
	}
	if t.MaxStopLossPips <= 0 || math.IsInf(t.MaxStopLossPips, 0) {
		return fmt.Errorf("config: max_stoploss_pips must be positive")
	}
	if t.MaxLotSize < risk.MinLot {
		return fmt.Errorf("config: max_lot_size must be >= %v", risk.MinLot)
	}
	if t.MaxSpreadPips <= 0 {
		return fmt.Errorf("config: max_spread_pips must be positive")
	}
	if t.ScanInterval <= 0 || t.CallTimeout <= 0 {
		return fmt.Errorf("config: scan_interval and call_timeout must be positive")
	}
	switch c.Memory.Backend {
	case "file":
	case "postgres":
		if c.DB == "" {
			return fmt.Errorf("config: memory backend postgres needs db_dsn")
		}
	default:
		return fmt.Errorf("config: unknown memory backend %q", c.Memory.Backend)
	}

	seen := make(map[int64]struct{}, len(c.Accounts))
	for _, acc := range c.Accounts {
		if _, dup := seen[acc.ID]; dup {
			return fmt.Errorf("config: duplicate account id %d", acc.ID)
		}
		seen[acc.ID] = struct{}{}
		if !acc.Paper && acc.BridgeURL == "" {
			return fmt.Errorf("config: account %d needs bridge_url or paper: true", acc.ID)
		}
	}
	return nil
}

// Account finds a configured account by id.
func (c *Config) Account(id int64) (models.Account, bool) {
	for _, acc := range c.Accounts {
		if acc.ID == id {
			return acc, true
		}
	}
	return models.Account{}, false
}

// AccountByChat finds the account bound to a Telegram chat.
func (c *Config) AccountByChat(chatID int64) (models.Account, bool) {
	for _, acc := range c.Accounts {
		if acc.ChatID == chatID {
			return acc, true
		}
	}
	return models.Account{}, false
}
