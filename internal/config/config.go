package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"StockPulse/internal/collector"
	"StockPulse/internal/model"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid config")

// Config holds all application configuration.
type Config struct {
	Dashboard struct {
		Tickers     []string `yaml:"tickers"`
		Interval    string   `yaml:"interval"`
		Period      string   `yaml:"period"`
		ShowCandles *bool    `yaml:"show_candles"`
		ShowRSI     *bool    `yaml:"show_rsi"`
		ShowMACD    *bool    `yaml:"show_macd"`
		Columns     int      `yaml:"columns"`
	} `yaml:"dashboard"`
	Indicators model.Params `yaml:"indicators"`
	DataSource struct {
		Provider string        `yaml:"provider"` // yahoo, rest or mock
		BaseURL  string        `yaml:"base_url"`
		APIKey   string        `yaml:"api_key"`
		Timeout  time.Duration `yaml:"timeout"`
		Retries  int           `yaml:"retries"` // negative disables retries
	} `yaml:"data_source"`
	Server struct {
		Host string `yaml:"host"`
		Port int    `yaml:"port"`
	} `yaml:"server"`
	Schedule struct {
		RefreshCron string `yaml:"refresh_cron"`
	} `yaml:"schedule"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// Load reads config from a YAML file, then applies environment variable overrides.
// A missing file is not an error; defaults fill the gaps.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	return cfg, nil
}

// LoadFile is Load for a file that must exist.
func LoadFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Load(path)
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv() {
	if v := os.Getenv("STOCKPULSE_TICKERS"); v != "" {
		c.Dashboard.Tickers = ParseTickers(v)
	}
	if v := os.Getenv("STOCKPULSE_INTERVAL"); v != "" {
		c.Dashboard.Interval = v
	}
	if v := os.Getenv("STOCKPULSE_PERIOD"); v != "" {
		c.Dashboard.Period = v
	}
	if v := os.Getenv("STOCKPULSE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("REST_BASE_URL"); v != "" {
		c.DataSource.BaseURL = v
		if c.DataSource.Provider == "" {
			c.DataSource.Provider = "rest"
		}
	}
	if v := os.Getenv("REST_API_KEY"); v != "" {
		c.DataSource.APIKey = v
	}
	if v := os.Getenv("HTTPS_PROXY"); v != "" {
		c.Proxy = v
	}
	if v, ok := os.LookupEnv("SQLITE_PATH"); ok {
		c.Database.SQLitePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CRON_REFRESH"); v != "" {
		c.Schedule.RefreshCron = v
	}
}

func (c *Config) applyDefaults() {
	def := model.DefaultParams()
	if len(c.Dashboard.Tickers) == 0 {
		c.Dashboard.Tickers = []string{"AAPL", "MSFT", "GOOGL"}
	}
	if c.Dashboard.Interval == "" {
		c.Dashboard.Interval = "1d"
	}
	if c.Dashboard.Period == "" {
		c.Dashboard.Period = "7d"
	}
	c.Dashboard.ShowCandles = orTrue(c.Dashboard.ShowCandles)
	c.Dashboard.ShowRSI = orTrue(c.Dashboard.ShowRSI)
	c.Dashboard.ShowMACD = orTrue(c.Dashboard.ShowMACD)
	if c.Dashboard.Columns == 0 {
		c.Dashboard.Columns = 3
	}
	if c.Indicators.SMAWindows == nil {
		c.Indicators.SMAWindows = def.SMAWindows
	}
	if c.Indicators.EMAWindows == nil {
		c.Indicators.EMAWindows = def.EMAWindows
	}
	if c.Indicators.RSIWindow == 0 {
		c.Indicators.RSIWindow = def.RSIWindow
	}
	if c.Indicators.MACD == (model.MACDParams{}) {
		c.Indicators.MACD = def.MACD
	}
	if c.DataSource.Provider == "" {
		c.DataSource.Provider = "yahoo"
	}
	if c.DataSource.Timeout == 0 {
		c.DataSource.Timeout = 30 * time.Second
	}
	if c.DataSource.Retries == 0 {
		c.DataSource.Retries = 2
	}
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8501
	}
	if c.Schedule.RefreshCron == "" {
		c.Schedule.RefreshCron = "0 */5 * * * *"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

func orTrue(b *bool) *bool {
	if b != nil {
		return b
	}
	t := true
	return &t
}

// Validate checks that all fields hold usable values.
func (c *Config) Validate() error {
	if len(c.Dashboard.Tickers) == 0 {
		return fmt.Errorf("%w: dashboard.tickers is empty", ErrInvalid)
	}
	if !collector.ValidInterval(c.Dashboard.Interval) {
		return fmt.Errorf("%w: dashboard.interval %q not in %v", ErrInvalid, c.Dashboard.Interval, collector.Intervals)
	}
	if !collector.ValidPeriod(c.Dashboard.Period) {
		return fmt.Errorf("%w: dashboard.period %q not in %v", ErrInvalid, c.Dashboard.Period, collector.Periods)
	}
	if c.Dashboard.Columns < 1 {
		return fmt.Errorf("%w: dashboard.columns must be positive", ErrInvalid)
	}
	if err := c.Indicators.Validate(); err != nil {
		return fmt.Errorf("%w: indicators: %v", ErrInvalid, err)
	}
	switch c.DataSource.Provider {
	case "yahoo", "mock":
	case "rest":
		if c.DataSource.BaseURL == "" {
			return fmt.Errorf("%w: data_source.base_url is required for the rest provider", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown data_source.provider %q", ErrInvalid, c.DataSource.Provider)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalid, c.Server.Port)
	}
	return nil
}

// Save writes the config as YAML.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

// Addr returns host:port for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// ParseTickers splits a comma separated list, trimming and upper-casing each
// entry and dropping empty ones.
func ParseTickers(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.ToUpper(strings.TrimSpace(part)); t != "" {
			out = append(out, t)
		}
	}
	return out
}
