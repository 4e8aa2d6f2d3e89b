package worker

import (
	"github.com/okian/scoreboard/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

// WithInvalidator sets the cache invalidated after each stored evaluation.
func WithInvalidator(inv Invalidator) Option {
	return func(w *InMemoryWorker) {
		w.invalidator = inv
	}
}
