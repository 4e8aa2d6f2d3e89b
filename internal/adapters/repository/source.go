package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
)

// tierNone labels a fetch that no matcher resolved.
const tierNone = "none"

// RecordSource resolves an organization selector to its evaluation records.
type RecordSource interface {
	// Fetch returns the evaluations of selector. A selector that no strategy
	// can resolve yields an empty collection and a nil error.
	Fetch(ctx context.Context, selector string) ([]model.Evaluation, error)
}

// Matcher is one strategy for resolving a selector.
type Matcher interface {
	Name() string
	Match(ctx context.Context, selector string) ([]model.Evaluation, error)
}

// FallbackSource tries its matchers in order and returns the first non-empty
// result. Concurrent fetches of the same selector share one store round trip.
type FallbackSource struct {
	matchers []Matcher
	group    singleflight.Group
	log      logger.Logger
}

var _ RecordSource = (*FallbackSource)(nil)

// NewFallbackSource builds a source over store with the default matcher chain:
// exact, normalized, foreign key, membership.
func NewFallbackSource(store Store, opts ...SourceOption) *FallbackSource {
	s := &FallbackSource{
		matchers: DefaultMatchers(store),
		log:      logger.Get().Named("record_source"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DefaultMatchers returns the standard matcher chain over store.
func DefaultMatchers(store Store) []Matcher {
	return []Matcher{
		ExactMatcher{Store: store},
		NormalizedMatcher{Store: store},
		ForeignKeyMatcher{Store: store},
		MembershipMatcher{Store: store},
	}
}

type fetchResult struct {
	records []model.Evaluation
	tier    string
}

func (s *FallbackSource) Fetch(ctx context.Context, selector string) ([]model.Evaluation, error) {
	if strings.TrimSpace(selector) == "" {
		return []model.Evaluation{}, nil
	}
	// The shared lookup outlives any single caller; each caller still stops
	// waiting when its own context ends.
	ch := s.group.DoChan(selector, func() (any, error) {
		return s.resolve(context.WithoutCancel(ctx), selector)
	})
	var r singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r = <-ch:
	}
	if r.Err != nil {
		return nil, r.Err
	}
	res := r.Val.(fetchResult)
	shared := r.Shared
	s.log.Debug(ctx, "records fetched",
		logger.String("selector", selector),
		logger.String("tier", res.tier),
		logger.Int("records", len(res.records)),
		logger.Bool("shared", shared))
	return res.records, nil
}

func (s *FallbackSource) resolve(ctx context.Context, selector string) (fetchResult, error) {
	start := time.Now()
	for _, m := range s.matchers {
		records, err := m.Match(ctx, selector)
		if err != nil {
			metrics.RecordFetchError()
			return fetchResult{}, fmt.Errorf("%s match %q: %w", m.Name(), selector, err)
		}
		if len(records) > 0 {
			metrics.RecordFetch(m.Name(), len(records), metrics.Since(start))
			return fetchResult{records: records, tier: m.Name()}, nil
		}
	}
	metrics.RecordFetch(tierNone, 0, metrics.Since(start))
	return fetchResult{records: []model.Evaluation{}, tier: tierNone}, nil
}
