package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/lox/pokeragent/internal/agent"
	"github.com/lox/pokeragent/internal/config"
	"github.com/lox/pokeragent/internal/gateway"
	"github.com/lox/pokeragent/internal/scheduler"
	"github.com/lox/pokeragent/internal/session"
)

// version is set by ldflags during build
var version = "dev"

var CLI struct {
	Version    kong.VersionFlag `short:"v" help:"Show version"`
	Config     string           `short:"c" long:"config" default:"pokeragent.hcl" help:"Path to HCL configuration file"`
	EnvFile    string           `long:"env-file" help:"Load environment variables from this file (default .env if present)"`
	Server     string           `short:"s" long:"server" help:"Game server URL (overrides config)"`
	APIKey     string           `long:"api-key" help:"Game server API key (overrides config)"`
	Name       string           `short:"n" long:"name" help:"Player name (overrides config)"`
	Interval   time.Duration    `short:"i" long:"interval" help:"Poll interval between 2s and 5s (overrides config)"`
	Generator  string           `short:"g" long:"generator" help:"Move generator: chat or static (overrides config)"`
	Reply      string           `long:"reply" help:"Fixed reply for the static generator"`
	CreateGame bool             `long:"create-game" help:"Create a game when none are available"`
	LLMURL     string           `long:"llm-url" help:"OpenAI-compatible API base URL (overrides config)"`
	LLMModel   string           `long:"llm-model" help:"Model name (overrides config)"`
	LLMKey     string           `long:"llm-key" env:"OPENROUTER_API_KEY" help:"Model API key (overrides config)"`
	Debug      bool             `short:"d" help:"Enable debug logging"`
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("pokeragent"),
		kong.Description("Language-model poker agent that plays over the game server HTTP API"),
		kong.UsageOnError(),
		kong.Vars{"version": version},
	)

	if err := loadEnv(CLI.EnvFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading env file: %v\n", err)
		ctx.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		ctx.Exit(1)
	}

	logger := newLogger(cfg.Agent.LogLevel)
	ctx.FatalIfErrorf(run(cfg, logger))
}

func loadEnv(path string) error {
	if path != "" {
		return godotenv.Load(path)
	}
	if _, err := os.Stat(".env"); err == nil {
		return godotenv.Load()
	}
	return nil
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	// Apply command line overrides
	if CLI.Server != "" {
		cfg.Server.URL = CLI.Server
	}
	if CLI.APIKey != "" {
		cfg.Server.APIKey = CLI.APIKey
	}
	if CLI.Name != "" {
		cfg.Agent.Name = CLI.Name
	}
	if CLI.Interval != 0 {
		cfg.Agent.PollInterval = CLI.Interval
	}
	if CLI.Generator != "" {
		cfg.Agent.Generator = CLI.Generator
	}
	if CLI.Reply != "" {
		cfg.Agent.StaticReply = CLI.Reply
	}
	if CLI.CreateGame {
		cfg.Server.CreateGame = true
	}
	if CLI.LLMURL != "" {
		cfg.LLM.URL = CLI.LLMURL
	}
	if CLI.LLMModel != "" {
		cfg.LLM.Model = CLI.LLMModel
	}
	if CLI.LLMKey != "" {
		cfg.LLM.APIKey = CLI.LLMKey
	}
	if CLI.Debug {
		cfg.Agent.LogLevel = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	if lvl, err := log.ParseLevel(level); err == nil {
		logger.SetLevel(lvl)
	}

	styles := log.DefaultStyles()
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().SetString("INFO").Bold(true).Foreground(lipgloss.Color("10"))
	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().SetString("WARN").Bold(true).Foreground(lipgloss.Color("11"))
	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().SetString("ERROR").Bold(true).Foreground(lipgloss.Color("9"))
	styles.Keys["error"] = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	styles.Keys["action"] = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	logger.SetStyles(styles)
	return logger
}

func newGenerator(cfg *config.Config, logger *log.Logger) agent.Generator {
	if cfg.Agent.Generator == config.GeneratorStatic {
		return agent.StaticGenerator{Reply: cfg.Agent.StaticReply}
	}
	return agent.NewChatGenerator(agent.ChatConfig{
		BaseURL:           cfg.LLM.URL,
		APIKey:            cfg.LLM.APIKey,
		Model:             cfg.LLM.Model,
		Temperature:       cfg.LLM.Temperature,
		MaxTokens:         cfg.LLM.MaxTokens,
		Timeout:           cfg.LLM.Timeout,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
	}, logger)
}

func run(cfg *config.Config, logger *log.Logger) error {
	logger.Info("Starting poker agent",
		"server", cfg.Server.URL,
		"player", cfg.Agent.Name,
		"generator", cfg.Agent.Generator,
		"interval", cfg.Agent.PollInterval)

	gw := gateway.NewHTTPClient(cfg.Server.URL, cfg.Server.APIKey, cfg.Server.RequestTimeout, logger)
	identity := agent.StaticIdentity(cfg.Agent.Name)
	decider := agent.NewDecider(newGenerator(cfg, logger), identity, logger)
	sess := session.New(identity.Name(), logger)

	sched := scheduler.New(gw, decider, sess, scheduler.Options{
		Interval:   cfg.Agent.PollInterval,
		CreateGame: cfg.Server.CreateGame,
	}, quartz.NewReal(), logger)

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(sigCtx)
	g.Go(func() error {
		if err := sched.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		logger.Info("Shutting down")
		sched.Stop()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
