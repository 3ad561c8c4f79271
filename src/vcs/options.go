package vcs

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"
)

// Option configures a Repository at construction time. Like graph.Option,
// this is a functional-options surface rather than a config-file layer:
// the core has no file or environment to read.
type Option func(*Repository)

// WithLogger attaches a logger used for Debug traces of commits/checkouts
// and Warn traces of merge conflicts. Logging never changes a Repository's
// returned values.
func WithLogger(logger *logrus.Logger) Option {
	return func(r *Repository) {
		if logger != nil {
			r.log = logger
		}
	}
}

// WithAuthor sets the author recorded on every commit this Repository
// creates.
func WithAuthor(author string) Option {
	return func(r *Repository) { r.author = author }
}

// WithClock overrides the function used to stamp CreatedAt on new commits.
// Tests use this to get deterministic, reproducible commit ids.
func WithClock(clock func() int64) Option {
	return func(r *Repository) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func defaultClock() int64 { return time.Now().Unix() }
