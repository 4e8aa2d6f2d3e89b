// Package cache is a Redis read-through cache in front of a record source.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
)

const (
	defaultTTL    = 30 * time.Second
	defaultPrefix = "scoreboard"
)

// Source caches the record collections of another RecordSource. Entries are
// keyed by a generation counter so Invalidate drops every entry at once.
type Source struct {
	next   repository.RecordSource
	client *redis.Client
	ttl    time.Duration
	prefix string
	log    logger.Logger
}

var _ repository.RecordSource = (*Source)(nil)

// Option applies a configuration option to the Source.
type Option func(*Source)

// WithTTL sets how long a cached collection lives.
func WithTTL(ttl time.Duration) Option {
	return func(s *Source) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Source) {
		if prefix != "" {
			s.prefix = prefix
		}
	}
}

// New wraps next with a cache stored in client.
func New(next repository.RecordSource, client *redis.Client, opts ...Option) *Source {
	s := &Source{
		next:   next,
		client: client,
		ttl:    defaultTTL,
		prefix: defaultPrefix,
		log:    logger.Get().Named("cache"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Source) genKey() string { return s.prefix + ":gen" }

func (s *Source) recordsKey(gen int64, selector string) string {
	return fmt.Sprintf("%s:records:%d:%s", s.prefix, gen, selector)
}

// Fetch serves selector from the cache or loads and stores it. Redis failures
// fall through to the wrapped source.
func (s *Source) Fetch(ctx context.Context, selector string) ([]model.Evaluation, error) {
	gen, err := s.client.Get(ctx, s.genKey()).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		s.miss(ctx, "read generation", err)
		return s.next.Fetch(ctx, selector)
	}
	key := s.recordsKey(gen, selector)

	raw, err := s.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var records []model.Evaluation
		uerr := json.Unmarshal(raw, &records)
		if uerr == nil {
			metrics.RecordCacheHit()
			return records, nil
		}
		s.miss(ctx, "decode entry", uerr)
	case errors.Is(err, redis.Nil):
		metrics.RecordCacheMiss()
	default:
		s.miss(ctx, "read entry", err)
	}

	records, err := s.next.Fetch(ctx, selector)
	if err != nil {
		return nil, err
	}
	if records == nil {
		records = []model.Evaluation{}
	}
	payload, err := json.Marshal(records)
	if err != nil {
		s.miss(ctx, "encode entry", err)
		return records, nil
	}
	if err := s.client.Set(ctx, key, payload, s.ttl).Err(); err != nil {
		s.miss(ctx, "write entry", err)
	}
	return records, nil
}

// Invalidate discards every cached collection.
func (s *Source) Invalidate(ctx context.Context) error {
	if err := s.client.Incr(ctx, s.genKey()).Err(); err != nil {
		metrics.RecordCacheError()
		return fmt.Errorf("invalidate cache: %w", err)
	}
	return nil
}

func (s *Source) miss(ctx context.Context, op string, err error) {
	metrics.RecordCacheError()
	s.log.Warn(ctx, "cache unavailable, reading through", logger.String("op", op), logger.Error(err))
}
