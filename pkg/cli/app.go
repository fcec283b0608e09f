package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/mchmarny/cardio/pkg/config"
	"github.com/mchmarny/cardio/pkg/logging"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	appName = "cardio"
	envFile = ".env"

	formatJSON = "json"
	formatYAML = "yaml"

	configFlagName    = "config"
	modelFlagName     = "model"
	logLevelFlagName  = "log-level"
	logFormatFlagName = "log-format"
	formatFlagName    = "format"
)

var (
	version = "v0.0.1-default"
	commit  = ""
	date    = ""

	// out is where command results are written.
	out io.Writer = os.Stdout
)

// Execute creates and runs the CLI application.
func Execute() {
	logging.SetDefault(config.DefaultLogLevel, config.DefaultLogFormat)
	loadEnvFile(envFile)

	if err := newApp().Run(context.Background(), os.Args); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

type appConfig struct {
	*config.Config
	OutputFormat string
}

// getConfig resolves the config for the running command: flags win over
// env vars, which win over the config file and its defaults. Flags are
// persistent, so they are read from the leaf command.
func getConfig(cmd *cli.Command) (*appConfig, error) {
	cfg, err := config.Load(cmd.String(configFlagName))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	if cmd.IsSet(modelFlagName) {
		cfg.ModelPath = cmd.String(modelFlagName)
	}
	if cmd.IsSet(logLevelFlagName) {
		cfg.LogLevel = cmd.String(logLevelFlagName)
	}
	if cmd.IsSet(logFormatFlagName) {
		cfg.LogFormat = cmd.String(logFormatFlagName)
	}
	logging.SetDefault(cfg.LogLevel, cfg.LogFormat)

	f := formatJSON
	if v := cmd.String(formatFlagName); v == formatYAML || v == "yml" {
		f = formatYAML
	}

	slog.Debug("config", "model", cfg.ModelPath, "log_level", cfg.LogLevel, "format", f)
	return &appConfig{Config: cfg, OutputFormat: f}, nil
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:                  appName,
		Version:               fmt.Sprintf("%s (%s - %s)", version, commit, date),
		EnableShellCompletion: true,
		HideHelpCommand:       true,
		Usage:                 "Cardiovascular risk inference service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    configFlagName,
				Usage:   "Path to the YAML config file (optional)",
				Sources: cli.EnvVars("CARDIO_CONFIG"),
			},
			&cli.StringFlag{
				Name:    modelFlagName,
				Usage:   fmt.Sprintf("Path to the classifier artifact (YAML/JSON file or SQLite store, default: %s)", config.DefaultModelPath),
				Sources: cli.EnvVars("CARDIO_MODEL"),
			},
			&cli.StringFlag{
				Name:    logLevelFlagName,
				Usage:   "Log level [debug, info, warn, error]",
				Sources: cli.EnvVars("CARDIO_LOG_LEVEL"),
			},
			&cli.StringFlag{
				Name:    logFormatFlagName,
				Usage:   "Log format [text, json, cli]",
				Sources: cli.EnvVars("CARDIO_LOG_FORMAT"),
			},
			&cli.StringFlag{
				Name:  formatFlagName,
				Usage: "Output format [json, yaml]",
				Value: formatJSON,
			},
		},
		Commands: []*cli.Command{
			newServeCmd(),
			newPredictCmd(),
			newModelCmd(),
			newHealthCmd(),
			newConfigCmd(),
		},
	}
}

// loadEnvFile loads variables from path when it exists. Variables already
// set in the environment win.
func loadEnvFile(path string) {
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			slog.Warn("error loading env file", "path", path, "error", err)
		}
		return
	}
	slog.Debug("env file loaded", "path", path)
}

func encode(cfg *appConfig, v any) error {
	if cfg.OutputFormat == formatYAML {
		e := yaml.NewEncoder(out)
		defer e.Close()
		return e.Encode(v)
	}
	e := json.NewEncoder(out)
	e.SetIndent("", "  ")
	return e.Encode(v)
}
