// Package config loads the agent configuration from an HCL file with
// environment overrides.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment override, e.g. POKER_API_KEY
const EnvPrefix = "poker"

// Generator kinds
const (
	GeneratorChat   = "chat"
	GeneratorStatic = "static"
)

// Config is the complete agent configuration
type Config struct {
	Server ServerConfig
	Agent  AgentConfig
	LLM    LLMConfig
}

// ServerConfig describes the game server connection
type ServerConfig struct {
	URL            string
	APIKey         string
	RequestTimeout time.Duration
	CreateGame     bool
}

// AgentConfig describes how the agent plays
type AgentConfig struct {
	Name         string
	PollInterval time.Duration
	Generator    string
	StaticReply  string
	LogLevel     string
}

// LLMConfig describes the chat completion endpoint
type LLMConfig struct {
	URL               string
	APIKey            string
	Model             string
	Temperature       float64
	MaxTokens         int
	Timeout           time.Duration
	RequestsPerMinute int
}

// file layout; durations are strings such as "5s"
type fileConfig struct {
	Server *serverBlock `hcl:"server,block"`
	Agent  *agentBlock  `hcl:"agent,block"`
	LLM    *llmBlock    `hcl:"llm,block"`
}

type serverBlock struct {
	URL            string `hcl:"url,optional"`
	APIKey         string `hcl:"api_key,optional"`
	RequestTimeout string `hcl:"request_timeout,optional"`
	CreateGame     bool   `hcl:"create_game,optional"`
}

type agentBlock struct {
	Name         string `hcl:"name,optional"`
	PollInterval string `hcl:"poll_interval,optional"`
	Generator    string `hcl:"generator,optional"`
	StaticReply  string `hcl:"static_reply,optional"`
	LogLevel     string `hcl:"log_level,optional"`
}

type llmBlock struct {
	URL               string  `hcl:"url,optional"`
	APIKey            string  `hcl:"api_key,optional"`
	Model             string  `hcl:"model,optional"`
	Temperature       float64 `hcl:"temperature,optional"`
	MaxTokens         int     `hcl:"max_tokens,optional"`
	Timeout           string  `hcl:"timeout,optional"`
	RequestsPerMinute int     `hcl:"requests_per_minute,optional"`
}

// environment overrides, read with the POKER_ prefix
type envOverrides struct {
	APIURL       string        `envconfig:"API_URL"`
	APIKey       string        `envconfig:"API_KEY"`
	PlayerName   string        `envconfig:"PLAYER_NAME"`
	PollInterval time.Duration `envconfig:"POLL_INTERVAL"`
	Generator    string        `envconfig:"GENERATOR"`
	LogLevel     string        `envconfig:"LOG_LEVEL"`
	LLMURL       string        `envconfig:"LLM_URL"`
	LLMAPIKey    string        `envconfig:"LLM_API_KEY"`
	LLMModel     string        `envconfig:"LLM_MODEL"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:            "http://localhost:3001",
			RequestTimeout: 10 * time.Second,
		},
		Agent: AgentConfig{
			Name:         "PokerAgent",
			PollInterval: 5 * time.Second,
			Generator:    GeneratorChat,
			StaticReply:  "CHECK",
			LogLevel:     "info",
		},
		LLM: LLMConfig{
			URL:               "https://openrouter.ai/api/v1",
			Model:             "openai/gpt-4o-mini",
			Temperature:       0.7,
			MaxTokens:         50,
			Timeout:           30 * time.Second,
			RequestsPerMinute: 20,
		},
	}
}

// Load reads filename over the defaults. A missing file yields the defaults.
// Environment overrides are not applied; see ApplyEnv.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename == "" {
		return cfg, nil
	}
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return cfg, nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	diags = gohcl.DecodeBody(file.Body, nil, &fc)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	if err := cfg.merge(&fc); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) merge(fc *fileConfig) error {
	if s := fc.Server; s != nil {
		setString(&c.Server.URL, s.URL)
		setString(&c.Server.APIKey, s.APIKey)
		if err := setDuration(&c.Server.RequestTimeout, s.RequestTimeout, "server.request_timeout"); err != nil {
			return err
		}
		c.Server.CreateGame = s.CreateGame
	}

	if a := fc.Agent; a != nil {
		setString(&c.Agent.Name, a.Name)
		setString(&c.Agent.Generator, a.Generator)
		setString(&c.Agent.StaticReply, a.StaticReply)
		setString(&c.Agent.LogLevel, a.LogLevel)
		if err := setDuration(&c.Agent.PollInterval, a.PollInterval, "agent.poll_interval"); err != nil {
			return err
		}
	}

	if l := fc.LLM; l != nil {
		setString(&c.LLM.URL, l.URL)
		setString(&c.LLM.APIKey, l.APIKey)
		setString(&c.LLM.Model, l.Model)
		if l.Temperature != 0 {
			c.LLM.Temperature = l.Temperature
		}
		if l.MaxTokens != 0 {
			c.LLM.MaxTokens = l.MaxTokens
		}
		if l.RequestsPerMinute != 0 {
			c.LLM.RequestsPerMinute = l.RequestsPerMinute
		}
		if err := setDuration(&c.LLM.Timeout, l.Timeout, "llm.timeout"); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnv overlays POKER_* environment variables onto c
func (c *Config) ApplyEnv() error {
	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return fmt.Errorf("read environment: %w", err)
	}

	setString(&c.Server.URL, env.APIURL)
	setString(&c.Server.APIKey, env.APIKey)
	setString(&c.Agent.Name, env.PlayerName)
	setString(&c.Agent.Generator, env.Generator)
	setString(&c.Agent.LogLevel, env.LogLevel)
	setString(&c.LLM.URL, env.LLMURL)
	setString(&c.LLM.APIKey, env.LLMAPIKey)
	setString(&c.LLM.Model, env.LLMModel)
	if env.PollInterval != 0 {
		c.Agent.PollInterval = env.PollInterval
	}
	return nil
}

// Validate checks the configuration for errors
func (c *Config) Validate() error {
	if c.Server.APIKey == "" {
		return fmt.Errorf("API key is required (set POKER_API_KEY)")
	}

	if err := validateURL(c.Server.URL); err != nil {
		return fmt.Errorf("server URL: %w", err)
	}

	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("request timeout must be positive")
	}

	if c.Agent.Name == "" {
		return fmt.Errorf("player name is required")
	}

	if c.Agent.PollInterval < 2*time.Second || c.Agent.PollInterval > 5*time.Second {
		return fmt.Errorf("poll interval must be between 2s and 5s, got %s", c.Agent.PollInterval)
	}

	if _, err := log.ParseLevel(c.Agent.LogLevel); err != nil {
		return fmt.Errorf("invalid log level %q", c.Agent.LogLevel)
	}

	switch c.Agent.Generator {
	case GeneratorStatic:
	case GeneratorChat:
		if err := validateURL(c.LLM.URL); err != nil {
			return fmt.Errorf("llm URL: %w", err)
		}
		if c.LLM.Model == "" {
			return fmt.Errorf("llm model is required")
		}
		if c.LLM.RequestsPerMinute < 0 {
			return fmt.Errorf("llm requests per minute cannot be negative")
		}
	default:
		return fmt.Errorf("unknown generator %q (want %s or %s)", c.Agent.Generator, GeneratorChat, GeneratorStatic)
	}

	return nil
}

func validateURL(raw string) error {
	if raw == "" {
		return fmt.Errorf("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("missing host")
	}
	return nil
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v, field string) error {
	if v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = d
	return nil
}
