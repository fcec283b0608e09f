package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/mchmarny/cardio/pkg/assess"
	"github.com/mchmarny/cardio/pkg/model"
	"github.com/mchmarny/cardio/pkg/net"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

const (
	fileFlagName = "file"
	urlFlagName  = "url"
)

var errRemote = errors.New("remote request failed")

func newPredictCmd() *cli.Command {
	return &cli.Command{
		Name:    "predict",
		Aliases: []string{"p"},
		Usage:   "Assess a single patient record from a JSON or YAML file",
		Action:  cmdPredict,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     fileFlagName,
				Aliases:  []string{"f"},
				Usage:    "Path to the patient record (JSON or YAML)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    urlFlagName,
				Usage:   "Base URL of a running server; the record is assessed locally when not set",
				Sources: cli.EnvVars("CARDIO_URL"),
			},
		},
	}
}

func cmdPredict(ctx context.Context, cmd *cli.Command) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}

	fields, err := readPatient(cmd.String(fileFlagName))
	if err != nil {
		return err
	}

	if u := cmd.String(urlFlagName); u != "" {
		return predictRemote(ctx, cfg, u, fields)
	}

	res, err := assess.New(model.Load(cfg.ModelPath)).Assess(fields)
	if err != nil {
		return fmt.Errorf("error assessing patient: %w", err)
	}

	return encode(cfg, toResponse(res))
}

func predictRemote(ctx context.Context, cfg *appConfig, baseURL string, fields map[string]any) error {
	u := strings.TrimSuffix(baseURL, "/") + "/predict"
	slog.Debug("posting patient record", "url", u)

	var res map[string]any
	status, err := net.PostJSON(ctx, u, fields, &res)
	if err != nil {
		return fmt.Errorf("error calling %s: %w", u, err)
	}

	if err := encode(cfg, res); err != nil {
		return err
	}

	if status != http.StatusOK {
		return fmt.Errorf("%w: %s returned %d", errRemote, u, status)
	}
	return nil
}

// readPatient parses a patient record file. JSON is read through the YAML
// decoder since every JSON document used here is valid YAML.
func readPatient(path string) (map[string]any, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading patient file %s: %w", path, err)
	}

	var fields map[string]any
	if err := yaml.Unmarshal(b, &fields); err != nil {
		return nil, fmt.Errorf("%w: error parsing patient file %s: %w", assess.ErrNoInput, path, err)
	}
	return fields, nil
}
