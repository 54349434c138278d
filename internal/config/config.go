package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Supported OneBot platform bindings
const (
	PlatformAiocqhttp = "aiocqhttp"
	PlatformGRPC      = "grpc"
	PlatformNone      = "none"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	OneBot    OneBotConfig    `yaml:"onebot"`
	Review    ReviewConfig    `yaml:"review"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig contains the reverse-HTTP event listener settings
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	EventPath string `yaml:"event_path"`
}

// OneBotConfig describes how to reach the bot backend
type OneBotConfig struct {
	Platform       string `yaml:"platform"`     // "aiocqhttp", "grpc" or "none"
	APIURL         string `yaml:"api_url"`      // HTTP API base for aiocqhttp
	GRPCTarget     string `yaml:"grpc_target"`  // action bridge address for grpc
	AccessToken    string `yaml:"access_token"` // sent as bearer token on outbound calls
	Secret         string `yaml:"secret"`       // HMAC secret for inbound event signatures
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// ReviewConfig holds the join-request review policy
type ReviewConfig struct {
	AcceptKeywords []string `yaml:"accept_keywords"`
	RejectKeywords []string `yaml:"reject_keywords"`
	AutoAccept     bool     `yaml:"auto_accept"`
	AutoReject     bool     `yaml:"auto_reject"`
	RejectReason   string   `yaml:"reject_reason"`
	DelaySeconds   float64  `yaml:"delay_seconds"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	BotStatusProbe string `yaml:"bot_status_probe"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      8080,
			EventPath: "/onebot/event",
		},
		OneBot: OneBotConfig{
			Platform:       PlatformAiocqhttp,
			APIURL:         "http://127.0.0.1:3000",
			TimeoutSeconds: 0,
		},
		Review: DefaultReview(),
		Scheduler: SchedulerConfig{
			BotStatusProbe: "0 */5 * * * *",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// DefaultReview returns the default review policy
func DefaultReview() ReviewConfig {
	return ReviewConfig{
		AcceptKeywords: []string{"给了", "一键三连了", "三连了"},
		RejectKeywords: []string{"拒绝", "不同意", "reject", "deny"},
		AutoAccept:     false,
		AutoReject:     false,
		RejectReason:   "申请被拒绝",
		DelaySeconds:   0,
	}
}

// Load reads configuration from a YAML file, merged over the defaults.
// On failure the defaults plus env overrides are returned together with
// the error so the caller can keep running.
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fallback(fmt.Errorf("failed to read config file: %w", err))
	}
	return Parse(data)
}

// Parse decodes YAML over the defaults, applies env overrides and validates.
// Malformed env values are skipped and reported in the returned error.
func Parse(data []byte) (*Config, error) {
	// keys missing from the document keep their default values
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fallback(fmt.Errorf("failed to parse config file: %w", err))
	}

	envErr := cfg.overrideWithEnv()
	if err := cfg.Validate(); err != nil {
		return fallback(fmt.Errorf("invalid configuration: %w", err))
	}
	return cfg, envErr
}

// fallback drops the file contents but keeps env overrides. If even that
// does not validate, bare defaults are used.
func fallback(cause error) (*Config, error) {
	cfg := Default()
	envErr := cfg.overrideWithEnv()
	if err := cfg.Validate(); err != nil {
		return Default(), errors.Join(cause, envErr, fmt.Errorf("environment overrides ignored: %w", err))
	}
	return cfg, errors.Join(cause, envErr)
}

// overrideWithEnv overrides config values with environment variables.
// A malformed value leaves its field untouched.
func (c *Config) overrideWithEnv() error {
	var errs []error

	// Server
	if val := os.Getenv("SERVER_HOST"); val != "" {
		c.Server.Host = val
	}
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err != nil {
			errs = append(errs, fmt.Errorf("invalid environment override SERVER_PORT: %w", err))
		} else {
			c.Server.Port = port
		}
	}

	// OneBot
	if val := os.Getenv("ONEBOT_PLATFORM"); val != "" {
		c.OneBot.Platform = val
	}
	if val := os.Getenv("ONEBOT_API_URL"); val != "" {
		c.OneBot.APIURL = val
	}
	if val := os.Getenv("ONEBOT_GRPC_TARGET"); val != "" {
		c.OneBot.GRPCTarget = val
	}
	if val := os.Getenv("ONEBOT_ACCESS_TOKEN"); val != "" {
		c.OneBot.AccessToken = val
	}
	if val := os.Getenv("ONEBOT_SECRET"); val != "" {
		c.OneBot.Secret = val
	}

	// Review
	if val := os.Getenv("REVIEW_AUTO_ACCEPT"); val != "" {
		if b, err := strconv.ParseBool(val); err != nil {
			errs = append(errs, fmt.Errorf("invalid environment override REVIEW_AUTO_ACCEPT: %w", err))
		} else {
			c.Review.AutoAccept = b
		}
	}
	if val := os.Getenv("REVIEW_AUTO_REJECT"); val != "" {
		if b, err := strconv.ParseBool(val); err != nil {
			errs = append(errs, fmt.Errorf("invalid environment override REVIEW_AUTO_REJECT: %w", err))
		} else {
			c.Review.AutoReject = b
		}
	}
	if val := os.Getenv("REVIEW_DELAY_SECONDS"); val != "" {
		if d, err := strconv.ParseFloat(val, 64); err != nil {
			errs = append(errs, fmt.Errorf("invalid environment override REVIEW_DELAY_SECONDS: %w", err))
		} else {
			c.Review.DelaySeconds = d
		}
	}

	// Log
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
	if val := os.Getenv("LOG_FORMAT"); val != "" {
		c.Log.Format = val
	}

	return errors.Join(errs...)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	// Server validation
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if !strings.HasPrefix(c.Server.EventPath, "/") {
		return fmt.Errorf("event path must start with '/': %q", c.Server.EventPath)
	}

	// OneBot validation
	switch c.OneBot.Platform {
	case PlatformAiocqhttp:
		if c.OneBot.APIURL == "" {
			return fmt.Errorf("onebot api_url is required for platform %s", PlatformAiocqhttp)
		}
	case PlatformGRPC:
		if c.OneBot.GRPCTarget == "" {
			return fmt.Errorf("onebot grpc_target is required for platform %s", PlatformGRPC)
		}
	case PlatformNone, "":
	default:
		return fmt.Errorf("unsupported onebot platform: %q", c.OneBot.Platform)
	}
	if c.OneBot.TimeoutSeconds < 0 {
		return fmt.Errorf("onebot timeout_seconds must not be negative: %d", c.OneBot.TimeoutSeconds)
	}

	// Review validation
	if c.Review.DelaySeconds < 0 {
		return fmt.Errorf("delay_seconds must not be negative: %v", c.Review.DelaySeconds)
	}
	// a blank keyword would match every comment
	c.Review.AcceptKeywords = compactKeywords(c.Review.AcceptKeywords)
	c.Review.RejectKeywords = compactKeywords(c.Review.RejectKeywords)

	// Log defaults
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}

	return nil
}

// GetServerAddress returns the event listener address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func compactKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			continue
		}
		out = append(out, kw)
	}
	return out
}
