package kexec

import "log/slog"

// Option configures a Runner
type Option func(*Runner)

// WithLog sets the logger for the runner
var WithLog = func(log *slog.Logger) Option {
	return func(r *Runner) {
		r.log = log
	}
}
