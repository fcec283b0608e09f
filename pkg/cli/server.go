package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mchmarny/cardio/pkg/assess"
	"github.com/mchmarny/cardio/pkg/model"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

const (
	serverReadTimeoutSeconds  = 15
	serverWriteTimeoutSeconds = 30
	serverMaxHeaderBytes      = 20

	addressFlagName         = "address"
	portFlagName            = "port"
	shutdownTimeoutFlagName = "shutdown-timeout"
)

func newServeCmd() *cli.Command {
	return &cli.Command{
		Name:    "serve",
		Aliases: []string{"server", "s"},
		Usage:   "Start the HTTP inference server",
		Action:  cmdStartServer,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    addressFlagName,
				Usage:   "Address on which the server will listen",
				Sources: cli.EnvVars("CARDIO_ADDRESS"),
			},
			&cli.IntFlag{
				Name:    portFlagName,
				Usage:   "Port on which the server will listen",
				Sources: cli.EnvVars("CARDIO_PORT"),
			},
			&cli.DurationFlag{
				Name:  shutdownTimeoutFlagName,
				Usage: "How long to wait for in-flight requests on shutdown",
			},
		},
	}
}

func cmdStartServer(ctx context.Context, cmd *cli.Command) error {
	cfg, err := getConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.IsSet(addressFlagName) {
		cfg.Address = cmd.String(addressFlagName)
	}
	if cmd.IsSet(portFlagName) {
		cfg.Port = int(cmd.Int(portFlagName))
	}
	if cmd.IsSet(shutdownTimeoutFlagName) {
		cfg.ShutdownTimeout = cmd.Duration(shutdownTimeoutFlagName)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid server config: %w", err)
	}

	// a model that fails to load leaves the server up and every prediction failing
	m := model.Load(cfg.ModelPath)
	address := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)

	s := &http.Server{
		Addr:           address,
		Handler:        makeRouter(assess.New(m)),
		ReadTimeout:    serverReadTimeoutSeconds * time.Second,
		WriteTimeout:   serverWriteTimeoutSeconds * time.Second,
		MaxHeaderBytes: 1 << serverMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("server started", "address", "http://"+address, "model_loaded", m.Available())
		if err := s.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error starting server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()

		if err := s.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("error shutting down server: %w", err)
		}
		slog.Info("server stopped")
		return nil
	})

	return g.Wait()
}

func makeRouter(a *assess.Assessor) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /predict", predictAPIHandler(a))
	mux.HandleFunc("GET /health", healthAPIHandler(a.Model()))

	return requestMiddleware(mux)
}
