package graph

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Option configures a Graph at construction time. The core has no config
// file to load (it is a pure, I/O-free library), so optional dependencies
// like a logger are wired the idiomatic Go way instead of through a
// config-loading library.
type Option func(*Graph)

// WithLogger attaches a logger used for Debug-level traces of mutations.
// Logging is observational only: it never influences a Graph's returned
// values.
func WithLogger(logger *logrus.Logger) Option {
	return func(g *Graph) {
		if logger != nil {
			g.log = logger
		}
	}
}

func silentLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}
