package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/mchmarny/cardio/pkg/net"
	"github.com/urfave/cli/v3"
)

const defaultServerURL = "http://127.0.0.1:8080"

var errModelNotLoaded = errors.New("server reports model not loaded")

func newHealthCmd() *cli.Command {
	return &cli.Command{
		Name:   "health",
		Usage:  "Check the health of a running server",
		Action: cmdHealth,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    urlFlagName,
				Usage:   "Base URL of the server",
				Value:   defaultServerURL,
				Sources: cli.EnvVars("CARDIO_URL"),
			},
		},
	}
}

func cmdHealth(ctx context.Context, cmd *cli.Command) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}

	u := strings.TrimSuffix(cmd.String(urlFlagName), "/") + "/health"

	var h healthResponse
	status, err := net.GetJSON(ctx, u, &h)
	if err != nil {
		return fmt.Errorf("error checking health at %s: %w", u, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", errRemote, u, status)
	}

	if err := encode(cfg, &h); err != nil {
		return err
	}

	if !h.ModelLoaded {
		return errModelNotLoaded
	}
	return nil
}
