// Package config loads the access monitor settings from a YAML file with
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"rotafacil/internal/client/monitor"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up when no path is given
const FileName = "access-monitor.yaml"

// Config holds the client configuration
type Config struct {
	ServerURL             string        `yaml:"server_url"`
	SessionFile           string        `yaml:"session_file"`
	Debug                 bool          `yaml:"debug"`
	RequestTimeoutSeconds int           `yaml:"request_timeout_seconds"`
	SessionPollSeconds    int           `yaml:"session_poll_seconds"`
	Monitor               MonitorConfig `yaml:"monitor"`
}

// MonitorConfig tunes the access check loop
type MonitorConfig struct {
	WarningMinutes    int `yaml:"warning_minutes"`
	IntervalSeconds   int `yaml:"interval_seconds"`
	DebounceSeconds   int `yaml:"debounce_seconds"`
	GraceDelaySeconds int `yaml:"grace_delay_seconds"`
}

// Default returns the built-in configuration
func Default() *Config {
	p := monitor.DefaultPolicy()
	return &Config{
		ServerURL:             "http://localhost:8080",
		SessionFile:           defaultSessionFile(),
		RequestTimeoutSeconds: 15,
		SessionPollSeconds:    5,
		Monitor: MonitorConfig{
			WarningMinutes:    p.WarningMinutes,
			IntervalSeconds:   int(p.Interval / time.Second),
			DebounceSeconds:   int(p.Debounce / time.Second),
			GraceDelaySeconds: int(p.GraceDelay / time.Second),
		},
	}
}

func defaultDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "rotafacil")
	}
	return "."
}

func defaultSessionFile() string {
	return filepath.Join(defaultDir(), "session.db")
}

// DefaultPath is the user config location, falling back to the working
// directory when a file exists there instead
func DefaultPath() string {
	p := filepath.Join(defaultDir(), FileName)
	if _, err := os.Stat(p); os.IsNotExist(err) {
		if _, err := os.Stat(FileName); err == nil {
			return FileName
		}
	}
	return p
}

// Load reads path over the defaults and applies environment overrides.
// An empty path uses DefaultPath, and a missing default file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("ROTAFACIL_SERVER_URL"); v != "" {
		c.ServerURL = v
	}
	if v := os.Getenv("ROTAFACIL_SESSION_FILE"); v != "" {
		c.SessionFile = v
	}
	if v := os.Getenv("ROTAFACIL_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Debug = b
		}
	}
}

// Validate checks the values Load cannot default
func (c *Config) Validate() error {
	u, err := url.Parse(c.ServerURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("server_url must be an http(s) URL, got %q", c.ServerURL)
	}
	if c.SessionFile == "" {
		return errors.New("session_file is required")
	}
	m := c.Monitor
	if m.WarningMinutes <= 0 || m.IntervalSeconds <= 0 || m.DebounceSeconds <= 0 || m.GraceDelaySeconds < 0 {
		return errors.New("monitor timings must be positive")
	}
	if m.DebounceSeconds > m.IntervalSeconds {
		return errors.New("monitor debounce_seconds cannot exceed interval_seconds")
	}
	if c.RequestTimeoutSeconds <= 0 || c.SessionPollSeconds <= 0 {
		return errors.New("request_timeout_seconds and session_poll_seconds must be positive")
	}
	return nil
}

// Policy converts the monitor settings
func (c *Config) Policy() monitor.Policy {
	return monitor.Policy{
		WarningMinutes: c.Monitor.WarningMinutes,
		GraceDelay:     time.Duration(c.Monitor.GraceDelaySeconds) * time.Second,
		Interval:       time.Duration(c.Monitor.IntervalSeconds) * time.Second,
		Debounce:       time.Duration(c.Monitor.DebounceSeconds) * time.Second,
		CheckTimeout:   c.RequestTimeout(),
	}
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func (c *Config) SessionPoll() time.Duration {
	return time.Duration(c.SessionPollSeconds) * time.Second
}

// Save writes the configuration as YAML, creating the parent directory
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
