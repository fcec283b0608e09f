package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mchmarny/cardio/pkg/model"
	"github.com/urfave/cli/v3"
)

const (
	dbFlagName = "db"

	defaultStorePath = "models/cardio.db"
)

type modelInspection struct {
	model.Info `yaml:",inline"`

	Features  []string `json:"features" yaml:"features"`
	Threshold *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}

func newStoreFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    dbFlagName,
		Usage:   "Path to the SQLite artifact store",
		Value:   defaultStorePath,
		Sources: cli.EnvVars("CARDIO_MODEL_DB"),
	}
}

func newModelCmd() *cli.Command {
	return &cli.Command{
		Name:    "model",
		Aliases: []string{"m"},
		Usage:   "Manage classifier artifacts",
		Commands: []*cli.Command{
			{
				Name:   "inspect",
				Usage:  "Validate the configured artifact and print its metadata",
				Action: cmdInspectModel,
			},
			{
				Name:   "import",
				Usage:  "Validate an artifact file and import it into the store",
				Action: cmdImportModel,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     fileFlagName,
						Aliases:  []string{"f"},
						Usage:    "Path to the artifact file (YAML or JSON)",
						Required: true,
					},
					newStoreFlag(),
				},
			},
			{
				Name:   "list",
				Usage:  "List artifact versions in the store, newest first",
				Action: cmdListModels,
				Flags: []cli.Flag{
					newStoreFlag(),
				},
			},
		},
	}
}

func cmdInspectModel(_ context.Context, cmd *cli.Command) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}

	a, err := model.ReadArtifact(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("error reading model: %w", err)
	}

	clf, err := a.Classifier()
	if err != nil {
		return fmt.Errorf("error building classifier: %w", err)
	}
	m := model.New(clf, a.Info(cfg.ModelPath))

	return encode(cfg, &modelInspection{
		Info:      m.Info(),
		Features:  a.Features,
		Threshold: a.Threshold,
	})
}

func cmdImportModel(_ context.Context, cmd *cli.Command) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}

	path := cmd.String(fileFlagName)
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading artifact file %s: %w", path, err)
	}

	dbPath := cmd.String(dbFlagName)
	if err := model.InitStore(dbPath); err != nil {
		return fmt.Errorf("error initializing artifact store: %w", err)
	}

	db, err := model.GetDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	a, err := model.SaveArtifact(db, b)
	if err != nil {
		return fmt.Errorf("error importing artifact %s: %w", path, err)
	}
	slog.Info("artifact imported", "kind", a.Kind, "version", a.Version, "store", dbPath)

	return encode(cfg, a.Info(dbPath))
}

func cmdListModels(_ context.Context, cmd *cli.Command) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}

	dbPath := cmd.String(dbFlagName)
	if _, err := os.Stat(dbPath); err != nil {
		return fmt.Errorf("artifact store %s: %w", dbPath, err)
	}

	db, err := model.GetDB(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	list, err := model.ListArtifacts(db)
	if err != nil {
		return fmt.Errorf("error listing artifacts: %w", err)
	}
	return encode(cfg, list)
}
