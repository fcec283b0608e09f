package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mchmarny/cardio/pkg/config"
	"github.com/urfave/cli/v3"
)

const (
	pathFlagName = "path"

	defaultConfigPath = "cardio.yaml"
)

func newConfigCmd() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Show or initialize the configuration",
		Commands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Print the effective configuration",
				Action: cmdShowConfig,
			},
			{
				Name:   "init",
				Usage:  "Write the effective configuration to a file",
				Action: cmdInitConfig,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  pathFlagName,
						Usage: "Path of the config file to write",
						Value: defaultConfigPath,
					},
				},
			},
		},
	}
}

func cmdShowConfig(_ context.Context, cmd *cli.Command) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}
	return encode(cfg, cfg.Config)
}

func cmdInitConfig(_ context.Context, cmd *cli.Command) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}

	path := cmd.String(pathFlagName)
	if err := config.Save(path, cfg.Config); err != nil {
		return fmt.Errorf("error saving config: %w", err)
	}
	slog.Info("config saved", "path", path)
	return nil
}
