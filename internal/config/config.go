package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Sink types understood by the dispatch layer.
const (
	SinkLog       = "log"
	SinkWebsocket = "websocket"
)

// SinkConfig selects where normalized triggers are delivered.
type SinkConfig struct {
	Type string `yaml:"type"`
	URL  string `yaml:"url"`
}

// Config holds all relay configuration. It is immutable after Load.
type Config struct {
	Server   string   `yaml:"server"` // "host:port"
	Nickname string   `yaml:"nickname"`
	Password string   `yaml:"password"` // presence enables SASL
	Channels []string `yaml:"channels"`
	UseTLS   bool     `yaml:"use_tls"`

	QuitMessage    string `yaml:"quit_message"`
	NickRetryLimit int    `yaml:"nick_retry_limit"` // 0 = unbounded
	RejoinOnKick   bool   `yaml:"rejoin_on_kick"`

	Sink        SinkConfig `yaml:"sink"`
	MetricsAddr string     `yaml:"metrics_addr"`
	LogLevel    string     `yaml:"log_level"`
	LogFile     string     `yaml:"log_file"`

	// Derived from Server by Validate.
	Host string `yaml:"-"`
	Port int    `yaml:"-"`
}

// Default returns a Config with defaults applied.
func Default() *Config {
	return &Config{
		QuitMessage:  "Disconnecting",
		RejoinOnKick: true,
		Sink:         SinkConfig{Type: SinkLog},
		LogLevel:     "info",
	}
}

// Load reads and parses a YAML configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks required fields and derives Host/Port from Server.
// It fails before any network I/O happens.
func (c *Config) Validate() error {
	host, portStr, err := net.SplitHostPort(c.Server)
	if err != nil {
		return fmt.Errorf("server must be \"host:port\": %w", err)
	}
	if host == "" {
		return errors.New("server host is empty")
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("server port %q is not a valid port number", portStr)
	}
	c.Host = host
	c.Port = port

	if c.Nickname == "" {
		return errors.New("nickname is required")
	}
	if len(c.Channels) == 0 {
		return errors.New("at least one channel is required")
	}
	if c.NickRetryLimit < 0 {
		return errors.New("nick_retry_limit cannot be negative")
	}

	switch c.Sink.Type {
	case SinkLog:
	case SinkWebsocket:
		if c.Sink.URL == "" {
			return errors.New("websocket sink requires a url")
		}
	default:
		return fmt.Errorf("unknown sink type %q", c.Sink.Type)
	}

	return nil
}

// SASLEnabled reports whether the session authenticates with SASL.
// A non-empty password always means SASL; no password means an
// unauthenticated connection.
func (c *Config) SASLEnabled() bool {
	return c.Password != ""
}
