package repository

import (
	"time"

	"github.com/okian/scoreboard/pkg/logger"
)

// Option applies a configuration option to the SQLStore.
type Option func(*SQLStore)

// WithClock sets the clock used to stamp created_at.
func WithClock(now func() time.Time) Option {
	return func(s *SQLStore) {
		if now != nil {
			s.now = now
		}
	}
}

// SourceOption applies a configuration option to the FallbackSource.
type SourceOption func(*FallbackSource)

// WithMatchers replaces the default matcher chain.
func WithMatchers(matchers ...Matcher) SourceOption {
	return func(s *FallbackSource) {
		if len(matchers) > 0 {
			s.matchers = matchers
		}
	}
}

// WithSourceLogger sets the logger used to report the resolving tier.
func WithSourceLogger(l logger.Logger) SourceOption {
	return func(s *FallbackSource) {
		if l != nil {
			s.log = l
		}
	}
}
