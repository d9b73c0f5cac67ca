// Package log sets up the zerolog logger used by the command line tools and
// bridges it to the slog API taken by the kgraph packages.
package log

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
)

// New returns a logger at the given level. It writes JSON to stderr when
// format is "json" or when running inside Kubernetes, and human readable
// console output to stdout otherwise.
func New(level, format string) (*zerolog.Logger, error) {
	var out io.Writer = os.Stdout
	if _, ok := os.LookupEnv("KUBERNETES_SERVICE_HOST"); ok || format == "json" {
		out = os.Stderr
		format = "json"
	}
	return newLogger(out, level, format)
}

func newLogger(out io.Writer, level, format string) (*zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	switch format {
	case "json":
	case "", "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: "2006-01-02T15:04:05.999Z07:00"}
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	l := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	return &l, nil
}

// Slog wraps zl in an slog.Logger through logr.
func Slog(zl *zerolog.Logger) *slog.Logger {
	zerologr.NameFieldName = "logger"
	zerologr.NameSeparator = "/"
	h := logr.ToSlogHandler(zerologr.New(zl))
	return slog.New(verbosityHandler{h})
}

// verbosityHandler maps slog's debug level onto logr verbosity 1, which
// zerologr logs at debug level. Unshifted, slog.LevelDebug becomes V(4) and
// is dropped.
type verbosityHandler struct {
	slog.Handler
}

func shift(l slog.Level) slog.Level {
	if l < slog.LevelInfo {
		return l / 4
	}
	return l
}

func (h verbosityHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return h.Handler.Enabled(ctx, shift(l))
}

func (h verbosityHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Level = shift(r.Level)
	return h.Handler.Handle(ctx, r)
}

func (h verbosityHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return verbosityHandler{h.Handler.WithAttrs(attrs)}
}

func (h verbosityHandler) WithGroup(name string) slog.Handler {
	return verbosityHandler{h.Handler.WithGroup(name)}
}
