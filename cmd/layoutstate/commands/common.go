// Package commands implements the layoutstate CLI commands.
package commands

import (
	"io"
	"log/slog"
	"os"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/layoutstate/internal/config"
)

// Global context passed to subcommands.
type Global struct {
	Logger *slog.Logger
	Out    io.Writer
}

// CLI definition & global flags.
type CLI struct {
	Config    string           `short:"c" help:"Configuration file path (defaults apply when empty)" type:"path"`
	Verbose   bool             `short:"v" help:"Enable verbose logging"`
	LogFormat string           `name:"log-format" help:"Log format: text or json (overrides the configuration)" enum:",text,json" default:""`
	Version   kong.VersionFlag `name:"version" help:"Show version and exit"`

	Apply   ApplyCmd   `cmd:"" help:"Hydrate a document and run a YAML command script, printing one JSON line per notification"`
	Diff    DiffCmd    `cmd:"" help:"Compare two payloads and print the change set and render strategy"`
	Hash    HashCmd    `cmd:"" help:"Print the content hash of a payload"`
	History HistoryCmd `cmd:"" help:"List journaled history entries"`
	Serve   ServeCmd   `cmd:"" help:"Serve a document over MCP stdio with watcher, autosave, NATS and metrics"`
	Init    InitCmd    `cmd:"" help:"Initialize a new configuration file"`

	logger *slog.Logger
}

// AfterApply runs after flag parsing; setup logging once. Logs go to stderr
// so stdout stays machine-readable.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	c.setLogger(config.LogLevelInfo, config.NormalizeLogFormat(c.LogFormat))
	return nil
}

func (c *CLI) setLogger(level config.LogLevel, format config.LogFormat) {
	if c.Verbose {
		level = config.LogLevelDebug
	}
	c.logger = NewLogger(os.Stderr, level.Slog(), format)
	slog.SetDefault(c.logger)
}

// Logger returns the logger configured by AfterApply.
func (c *CLI) Logger() *slog.Logger {
	if c.logger == nil {
		return slog.Default()
	}
	return c.logger
}

// NewLogger builds the CLI logger.
func NewLogger(w io.Writer, level slog.Level, format config.LogFormat) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}
	if format == config.LogFormatJSON {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// loadConfig loads the configured file and applies its logging section.
// --verbose and --log-format win over the file.
func (c *CLI) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	format := cfg.Logging.Format
	if c.LogFormat != "" {
		format = config.NormalizeLogFormat(c.LogFormat)
	}
	c.setLogger(cfg.Logging.Level, format)
	return cfg, nil
}

func out(g *Global) io.Writer {
	if g != nil && g.Out != nil {
		return g.Out
	}
	return os.Stdout
}
