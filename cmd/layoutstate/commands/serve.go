package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"git.home.luguber.info/inful/layoutstate/internal/app"
	"git.home.luguber.info/inful/layoutstate/internal/config"
	"git.home.luguber.info/inful/layoutstate/internal/logfields"
	mcpserver "git.home.luguber.info/inful/layoutstate/internal/mcp"
	"git.home.luguber.info/inful/layoutstate/internal/version"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	Payload string `short:"p" help:"Hydration payload; overrides hydration.path" type:"path"`
	Watch   bool   `short:"w" help:"Reload the payload when it changes"`
	Metrics string `help:"Serve Prometheus metrics on this address"`
}

func (s *ServeCmd) Run(_ *Global, root *CLI) error {
	cfg, err := root.loadConfig()
	if err != nil {
		return err
	}
	if s.Payload != "" {
		cfg.Hydration.Path = s.Payload
	}
	if s.Watch {
		cfg.Hydration.Watch = true
	}
	if s.Metrics != "" {
		cfg.Metrics.Enabled = true
		cfg.Metrics.Addr = s.Metrics
	}
	if err := config.Validate(cfg); err != nil {
		return err
	}
	return RunServe(cfg, root.Logger())
}

// RunServe starts the runtime and serves MCP on stdio until the client
// disconnects or a shutdown signal arrives.
func RunServe(cfg *config.Config, logger *slog.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	rt := app.New(cfg, logger)
	if err := rt.Start(ctx); err != nil {
		return fmt.Errorf("failed to start runtime: %w", err)
	}

	srv := mcpserver.New(rt.Store(), version.Version, logger)
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.ServeStdio()
	}()

	logger.Info("Serving layout document over MCP stdio", slog.String("document", rt.Store().Document()))

	var serveErr error
	select {
	case serveErr = <-errChan:
		if serveErr != nil {
			serveErr = fmt.Errorf("mcp server: %w", serveErr)
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received, stopping...")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer stopCancel()
	if err := rt.Stop(stopCtx); err != nil {
		logger.Error("Failed to stop runtime cleanly", logfields.Error(err))
	}
	logger.Info("Stopped")
	return serveErr
}
