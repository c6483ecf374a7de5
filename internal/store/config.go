package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

const (
	DefaultAppID          = "1089"
	DefaultEndpoint       = "wss://ws.derivws.com/websockets/v3"
	DefaultSymbol         = "R_100"
	DefaultTimeframe      = 300
	DefaultDuration       = 5
	DefaultCurrency       = "USD"
	DefaultStrategy       = "follow"
	DefaultRequestTimeout = 30
	DefaultPort           = "3000"
)

// ErrMissingToken is returned when no API token is configured.
var ErrMissingToken = errors.New("DERIV_API_TOKEN is not set")

type Config struct {
	Deriv struct {
		AppID                 string `yaml:"app_id"`
		APIToken              string `yaml:"-"`
		Endpoint              string `yaml:"endpoint"`
		RequestTimeoutSeconds int    `yaml:"request_timeout_seconds"`
	} `yaml:"deriv"`
	Trading struct {
		Symbol      string          `yaml:"symbol"`
		Timeframe   int             `yaml:"timeframe"`
		Stake       decimal.Decimal `yaml:"-"`
		StakeRaw    string          `yaml:"stake"`
		DurationMin int             `yaml:"duration"`
		Currency    string          `yaml:"currency"`
		Strategy    string          `yaml:"strategy"`
	} `yaml:"trading"`
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
}

// Period is the candle granularity as a duration.
func (c *Config) Period() time.Duration {
	return time.Duration(c.Trading.Timeframe) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Deriv.RequestTimeoutSeconds) * time.Second
}

func (c *Config) Validate() error {
	if c.Deriv.APIToken == "" {
		return ErrMissingToken
	}
	if c.Trading.Symbol == "" {
		return errors.New("trading.symbol cannot be empty")
	}
	if c.Trading.Timeframe <= 0 {
		return fmt.Errorf("trading.timeframe must be positive, got %d", c.Trading.Timeframe)
	}
	if !c.Trading.Stake.IsPositive() {
		return fmt.Errorf("trading.stake must be positive, got %s", c.Trading.Stake)
	}
	if c.Trading.DurationMin <= 0 {
		return fmt.Errorf("trading.duration must be positive, got %d", c.Trading.DurationMin)
	}
	if c.Trading.Strategy != "follow" && c.Trading.Strategy != "reverse" {
		return fmt.Errorf("trading.strategy must be 'follow' or 'reverse', got '%s'", c.Trading.Strategy)
	}
	if c.Deriv.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("deriv.request_timeout_seconds must be positive, got %d", c.Deriv.RequestTimeoutSeconds)
	}
	return nil
}

// LoadConfig reads the optional YAML file at path, applies environment
// overrides and defaults, then validates. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	var c Config

	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, &c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist):
	default:
		return nil, err
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.applyDefaults(); err != nil {
		return nil, err
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func (c *Config) applyEnv() error {
	setString(&c.Deriv.AppID, "DERIV_APP_ID")
	setString(&c.Deriv.APIToken, "DERIV_API_TOKEN")
	setString(&c.Deriv.Endpoint, "DERIV_WS_URL")
	setString(&c.Trading.Symbol, "SYMBOL")
	setString(&c.Trading.StakeRaw, "STAKE")
	setString(&c.Trading.Currency, "CURRENCY")
	setString(&c.Trading.Strategy, "STRATEGY")
	setString(&c.Server.Port, "PORT")

	if err := setInt(&c.Trading.Timeframe, "TIMEFRAME"); err != nil {
		return err
	}
	if err := setInt(&c.Trading.DurationMin, "DURATION"); err != nil {
		return err
	}
	return setInt(&c.Deriv.RequestTimeoutSeconds, "REQUEST_TIMEOUT_SECONDS")
}

func (c *Config) applyDefaults() error {
	if c.Deriv.AppID == "" {
		c.Deriv.AppID = DefaultAppID
	}
	if c.Deriv.Endpoint == "" {
		c.Deriv.Endpoint = DefaultEndpoint
	}
	if c.Deriv.RequestTimeoutSeconds == 0 {
		c.Deriv.RequestTimeoutSeconds = DefaultRequestTimeout
	}
	if c.Trading.Symbol == "" {
		c.Trading.Symbol = DefaultSymbol
	}
	if c.Trading.Timeframe == 0 {
		c.Trading.Timeframe = DefaultTimeframe
	}
	if c.Trading.DurationMin == 0 {
		c.Trading.DurationMin = DefaultDuration
	}
	if c.Trading.Currency == "" {
		c.Trading.Currency = DefaultCurrency
	}
	c.Trading.Strategy = strings.ToLower(c.Trading.Strategy)
	if c.Trading.Strategy == "" {
		c.Trading.Strategy = DefaultStrategy
	}
	if c.Server.Port == "" {
		c.Server.Port = DefaultPort
	}

	if c.Trading.StakeRaw == "" {
		c.Trading.Stake = decimal.NewFromInt(1)
		return nil
	}
	stake, err := decimal.NewFromString(c.Trading.StakeRaw)
	if err != nil {
		return fmt.Errorf("invalid stake %q: %w", c.Trading.StakeRaw, err)
	}
	c.Trading.Stake = stake
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, v, err)
	}
	*dst = n
	return nil
}
