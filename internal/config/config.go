package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/netip"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
	SessionStoreSQLite = "sqlite"
)

type Config struct {
	App        AppConfig        `yaml:"app"`
	HTTP       HTTPConfig       `yaml:"http"`
	Backend    BackendConfig    `yaml:"backend"`
	Session    SessionConfig    `yaml:"session"`
	Redis      RedisConfig      `yaml:"redis"`
	Filters    FiltersConfig    `yaml:"filters"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	Telegram   TelegramConfig   `yaml:"telegram"`
	Exports    ExportConfig     `yaml:"exports"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
	Logging    LoggingConfig    `yaml:"logging"`
}

type AppConfig struct {
	Name        string `yaml:"name"`
	Environment string `yaml:"environment"`
	Version     string `yaml:"version"`
}

type HTTPConfig struct {
	Port          int    `yaml:"port"`
	CookieName    string `yaml:"cookie_name"`
	SecureCookies bool   `yaml:"secure_cookies"`
	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For is believed.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

// TrustedProxyPrefixes parses TrustedProxies; a bare IP is a single-host prefix.
func (c HTTPConfig) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.TrustedProxies))
	for _, raw := range c.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			out = append(out, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		out = append(out, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return out, nil
}

// BackendConfig points at the REST service that owns all reservation data.
type BackendConfig struct {
	BaseURL  string        `yaml:"base_url"`
	Timeout  time.Duration `yaml:"timeout"`
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

type SessionConfig struct {
	Store      string        `yaml:"store"`
	TTL        time.Duration `yaml:"ttl"`
	SQLitePath string        `yaml:"sqlite_path"`
}

type RedisConfig struct {
	Address  string `yaml:"address"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	PoolSize int    `yaml:"pool_size"`
}

type FiltersConfig struct {
	ReservationDebounce time.Duration `yaml:"reservation_debounce"`
}

type RateLimitConfig struct {
	CheckOrderRPS   float64 `yaml:"check_order_rps"`
	CheckOrderBurst int     `yaml:"check_order_burst"`
}

type TelegramConfig struct {
	BotToken   string  `yaml:"bot_token"`
	NotifyChat []int64 `yaml:"notify_chats"`
	Debug      bool    `yaml:"debug"`
	MaxRetries int     `yaml:"max_retries"`
}

type ExportConfig struct {
	SheetName string `yaml:"sheet_name"`
}

type MonitoringConfig struct {
	PrometheusEnabled bool `yaml:"prometheus_enabled"`
	PrometheusPort    int  `yaml:"prometheus_port"`
}

type LoggingConfig struct {
	Level    string `yaml:"level"`
	Format   string `yaml:"format"`
	Output   string `yaml:"output"`
	FilePath string `yaml:"file_path"`
}

func Load(configPath string) (*Config, error) {
	// .env is optional; values from it only feed ${VAR} expansion below.
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, err
	}

	expandedData := []byte(os.ExpandEnv(string(data)))

	var config Config
	if err := yaml.Unmarshal(expandedData, &config); err != nil {
		return nil, err
	}

	config.applyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func (c *Config) Validate() error {
	if c.Backend.BaseURL == "" {
		return errors.New("backend base_url is required")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend base_url must be an absolute URL: %q", c.Backend.BaseURL)
	}

	if _, err := c.HTTP.TrustedProxyPrefixes(); err != nil {
		return err
	}

	switch c.Session.Store {
	case SessionStoreMemory:
	case SessionStoreRedis:
		if c.Redis.Address == "" {
			return errors.New("session store redis requires redis.address")
		}
	case SessionStoreSQLite:
		if c.Session.SQLitePath == "" {
			return errors.New("session store sqlite requires session.sqlite_path")
		}
	default:
		return fmt.Errorf("unknown session store %q", c.Session.Store)
	}

	if c.Telegram.BotToken != "" && len(c.Telegram.NotifyChat) == 0 {
		return errors.New("telegram.notify_chats is required when telegram.bot_token is set")
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.App.Name == "" {
		c.App.Name = "reservation-web"
	}
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.CookieName == "" {
		c.HTTP.CookieName = "reservation_sid"
	}
	c.Backend.BaseURL = strings.TrimRight(strings.TrimSpace(c.Backend.BaseURL), "/")
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = 10 * time.Second
	}
	if c.Session.Store == "" {
		c.Session.Store = SessionStoreMemory
	}
	c.Session.Store = strings.ToLower(strings.TrimSpace(c.Session.Store))
	if c.Session.TTL == 0 {
		c.Session.TTL = 24 * time.Hour
	}
	if c.Filters.ReservationDebounce == 0 {
		c.Filters.ReservationDebounce = 500 * time.Millisecond
	}
	if c.RateLimit.CheckOrderRPS == 0 {
		c.RateLimit.CheckOrderRPS = 1
	}
	if c.RateLimit.CheckOrderBurst == 0 {
		c.RateLimit.CheckOrderBurst = 5
	}
	if c.Telegram.MaxRetries == 0 {
		c.Telegram.MaxRetries = 5
	}
	if c.Exports.SheetName == "" {
		c.Exports.SheetName = "Reservations"
	}
	if c.Monitoring.PrometheusEnabled && c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
}
