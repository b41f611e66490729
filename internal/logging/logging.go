// Package logging configures the process-wide structured logger.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5/middleware"
)

const serviceName = "plantasking"

// New returns a JSON logger at the given level that writes to stderr and, when
// logFile is set, appends to that file too. The logger becomes the slog
// default. cleanup closes the log file and must be deferred by the caller.
func New(level, logFile string) (logger *slog.Logger, cleanup func(), err error) {
	var out io.Writer = os.Stderr
	cleanup = func() {}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		out = io.MultiWriter(os.Stderr, f)
		cleanup = func() { _ = f.Close() }
	}

	logger = slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{Level: parseLevel(level)})).
		With("service", serviceName)
	slog.SetDefault(logger)
	return logger, cleanup, nil
}

// parseLevel accepts the slog level names in any case. Anything else is info.
func parseLevel(s string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// FromContext returns base tagged with the request id that chi's RequestID
// middleware stored in ctx, or base itself when there is none.
func FromContext(ctx context.Context, base *slog.Logger) *slog.Logger {
	if id := middleware.GetReqID(ctx); id != "" {
		return base.With("request_id", id)
	}
	return base
}
