// Package common holds process-wide identity and logger setup shared by the
// commands in cmd/.
package common

import (
	"log/slog"
	"os"
)

// PackageName is used as the metrics namespace and default service tag.
const PackageName = "sgx_enclave_host"

// Version is set at build time via -ldflags.
var Version = "dev"

type LoggingOpts struct {
	// Debug lowers the log level to debug.
	Debug bool

	// JSON switches from text to JSON output.
	JSON bool

	// Service is added as a "service" attribute to all records.
	Service string

	// Version is added as a "version" attribute to all records.
	Version string
}

// SetupLogger builds the process logger. All components take a *slog.Logger
// and never construct their own.
func SetupLogger(opts *LoggingOpts) *slog.Logger {
	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}

	var handler slog.Handler
	if opts.JSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	logger := slog.New(handler)
	if opts.Service != "" {
		logger = logger.With("service", opts.Service)
	}
	if opts.Version != "" {
		logger = logger.With("version", opts.Version)
	}
	return logger
}
