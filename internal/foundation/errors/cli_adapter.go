package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Exit codes by category. Anything unclassified exits 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation:  2,
	CategoryNotFound:    3,
	CategoryConfig:      7,
	CategoryNetwork:     8,
	CategoryPersistence: 8,
	CategoryInternal:    10,
	CategoryFileSystem:  11,
	CategoryReadiness:   12,
	CategoryConsistency: 12,
	CategoryReentrancy:  12,
}

// CLIErrorAdapter turns a command error into stderr output and an exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	stderr  io.Writer
	exit    func(int)
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, stderr: os.Stderr, exit: os.Exit}
}

// ExitCodeFor maps err to a process exit code; nil is 0.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	ce, ok := AsClassified(err)
	if !ok {
		return 1
	}
	if code, ok := exitCodes[ce.Category()]; ok {
		return code
	}
	return 1
}

// FormatError renders err for a terminal. Rejections a user can fix show
// their message and reason code; everything else is hidden unless verbose.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	ce, ok := AsClassified(err)
	if !ok {
		return fmt.Sprintf("Error: %v", err)
	}
	if a.verbose {
		return ce.Error()
	}
	switch ce.Category() {
	case CategoryValidation, CategoryNotFound, CategoryConfig:
		if reason, ok := ce.Context().GetString("reason"); ok {
			return fmt.Sprintf("Error: %s (%s)", ce.Message(), reason)
		}
		return "Error: " + ce.Message()
	default:
		return "Internal error occurred (use -v for details)"
	}
}

// HandleError reports err and exits. It returns without exiting on nil.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	a.log(err)
	fmt.Fprintln(a.stderr, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) log(err error) {
	ce, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Unclassified error", slog.Any("error", err))
		return
	}
	if !a.verbose && ce.Severity() != SeverityFatal {
		return
	}
	level := slog.LevelError
	if ce.Severity() == SeverityWarning {
		level = slog.LevelWarn
	}
	attrs := []slog.Attr{
		slog.String("category", string(ce.Category())),
		slog.String("reason", ReasonCode(ce)),
	}
	if ce.Transient() {
		attrs = append(attrs, slog.Bool("transient", true))
	}
	if ce.Unwrap() != nil {
		attrs = append(attrs, slog.String("cause", ce.Unwrap().Error()))
	}
	a.logger.LogAttrs(context.Background(), level, ce.Message(), attrs...)
}
