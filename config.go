package kgraph

import (
	"log/slog"
)

// Option is a function that configures compilation
type Option func(*config)

type config struct {
	log          *slog.Logger
	strictTypes  []string
	rejectCycles bool
}

func newConfig(opts []Option) *config {
	cfg := &config{
		log: NullLogger(),
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithLog sets the logger used during compilation
var WithLog = func(log *slog.Logger) Option {
	return func(c *config) {
		c.log = log
	}
}

// WithStrictTypes marks data types as strict by name, in addition to the
// types declared strict in the graph. Every port of a strict type on a
// participating node must be connected.
var WithStrictTypes = func(names ...string) Option {
	return func(c *config) {
		c.strictTypes = append(c.strictTypes, names...)
	}
}

// WithCycleRejection makes Compile fail on cyclic graphs instead of
// returning a plan with the fallback order.
var WithCycleRejection = func() Option {
	return func(c *config) {
		c.rejectCycles = true
	}
}

// NullWriter is a writer that discards all data
type NullWriter struct{}

func (NullWriter) Write(p []byte) (int, error) { return len(p), nil }

// NullLogger creates a logger that discards all output
func NullLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(NullWriter{}, nil))
}
