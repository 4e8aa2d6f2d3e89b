// Package service wires the store, record source, cache and ingestion
// pipeline behind the operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/okian/scoreboard/internal/adapters/cache"
	eventqueue "github.com/okian/scoreboard/internal/adapters/mq/queue"
	workerpool "github.com/okian/scoreboard/internal/adapters/mq/worker"
	"github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/internal/domain/dedupe"
	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/internal/domain/scoring"
	"github.com/okian/scoreboard/internal/domain/types"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
)

// ErrNotStarted is returned by read operations before Start.
var ErrNotStarted = fmt.Errorf("service not started: %w", types.ErrUnavailable)

const defaultMemoryDSN = ":memory:"

// Service implements the API dependencies for the scoring dashboard.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      repository.Store
	ownsStore  bool
	source     repository.RecordSource
	cache      *cache.Source
	deduper    dedupe.Deduper
	eventQueue *eventqueue.InMemoryQueue
	workerPool *workerpool.Pool
	catalog    *model.Catalog

	// Configuration
	storeDriver string
	storeDSN    string
	redis       *redis.Client
	cacheTTL    time.Duration
	workerCount int
	queueSize   int
	dedupeSize  int
	criteria    []model.Criterion

	// State
	started bool

	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithStore supplies an open store. The caller keeps ownership.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithStoreDSN makes Start open its own store with driver and dsn.
func WithStoreDSN(driver, dsn string) Option {
	return func(s *Service) {
		s.storeDriver = driver
		s.storeDSN = dsn
	}
}

// WithCache puts a Redis cache in front of the record source.
func WithCache(client *redis.Client, ttl time.Duration) Option {
	return func(s *Service) {
		s.redis = client
		s.cacheTTL = ttl
	}
}

// WithWorkerCount sets the number of store writers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending submissions.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the submission id deduper.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithCriteria sets the known criteria used for ordering and labels.
func WithCriteria(criteria []model.Criterion) Option {
	return func(s *Service) {
		if len(criteria) > 0 {
			s.criteria = criteria
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		storeDriver: string(repository.DriverSQLite),
		storeDSN:    defaultMemoryDSN,
		workerCount: runtime.NumCPU(),
		queueSize:   10_000,
		dedupeSize:  100_000,
		criteria:    model.DefaultCriteria(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the store if needed and starts the ingestion pipeline.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting scoreboard service...")

	if s.store == nil {
		driver, err := repository.ParseDriver(s.storeDriver)
		if err != nil {
			return err
		}
		store, err := repository.Open(ctx, driver, s.storeDSN)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		s.store = store
		s.ownsStore = true
		s.logger.Info(ctx, "store opened", logger.String("driver", string(driver)))
	}

	s.catalog = model.NewCatalog(s.criteria)
	s.source = repository.NewFallbackSource(s.store,
		repository.WithSourceLogger(s.logger.Named("record_source")))

	var workerOpts []workerpool.Option
	if s.redis != nil {
		s.cache = cache.New(s.source, s.redis, cache.WithTTL(s.cacheTTL))
		s.source = s.cache
		workerOpts = append(workerOpts, workerpool.WithInvalidator(s.cache))
		s.logger.Info(ctx, "record cache enabled", logger.Duration("ttl", s.cacheTTL))
	}

	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.eventQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.workerPool = workerpool.NewPool(s.workerCount, s.eventQueue, s.store, workerOpts...)
	// workers outlive the start request
	s.workerPool.Start(context.WithoutCancel(ctx))

	s.started = true
	s.logger.Info(ctx, "scoreboard service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains pending submissions into the store and releases resources.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping scoreboard service...")

	if s.workerPool != nil {
		if err := s.workerPool.Shutdown(ctx); err != nil {
			s.logger.Warn(ctx, "worker pool shutdown", logger.Error(err))
		}
	}
	if s.ownsStore && s.store != nil {
		if err := s.store.Close(); err != nil {
			s.logger.Warn(ctx, "store close", logger.Error(err))
		}
		s.store = nil
		s.ownsStore = false
	}

	s.started = false
	s.logger.Info(ctx, "scoreboard service stopped")
}

func (s *Service) readSource() (repository.RecordSource, *model.Catalog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, nil, ErrNotStarted
	}
	return s.source, s.catalog, nil
}

// Leaderboard ranks every company of organization under state.
func (s *Service) Leaderboard(ctx context.Context, organization string, state scoring.SortState) (types.Leaderboard, error) {
	source, catalog, err := s.readSource()
	if err != nil {
		return types.Leaderboard{}, err
	}
	records, err := source.Fetch(ctx, organization)
	if err != nil {
		return types.Leaderboard{}, err
	}

	start := time.Now()
	aggs := scoring.Aggregate(records)
	ranked := scoring.Rank(aggs, state)
	metrics.RecordAggregation("leaderboard", len(ranked), metrics.Since(start))

	lb := types.Leaderboard{
		Organization: strings.TrimSpace(organization),
		Sort:         string(state.Key),
		Direction:    string(state.Direction),
		Criteria:     viewCriteria(catalog.Order(scoring.CriteriaKeys(aggs))),
		Rows:         make([]types.LeaderboardRow, 0, len(ranked)),
	}
	for _, r := range ranked {
		lb.Rows = append(lb.Rows, types.LeaderboardRow{
			Rank:     r.Rank,
			Company:  r.Company,
			Overall:  r.Overall,
			Averages: r.Averages,
			Count:    r.Count,
		})
	}
	return lb, nil
}

// Profile returns one company's averages and its rank per criterion.
// It returns an error wrapping scoring.ErrNoData when the company has no
// records in organization.
func (s *Service) Profile(ctx context.Context, organization, company string) (types.ProfileView, error) {
	source, catalog, err := s.readSource()
	if err != nil {
		return types.ProfileView{}, err
	}
	records, err := source.Fetch(ctx, organization)
	if err != nil {
		return types.ProfileView{}, err
	}

	start := time.Now()
	p, err := scoring.ComputeProfile(records, company)
	if err != nil {
		if errors.Is(err, scoring.ErrNoData) {
			metrics.RecordProfileNotFound()
		}
		return types.ProfileView{}, err
	}
	metrics.RecordAggregation("profile", p.TotalCompanies, metrics.Since(start))

	keys := make([]string, 0, len(p.Averages))
	for k := range p.Averages {
		keys = append(keys, k)
	}
	view := types.ProfileView{
		Organization:   strings.TrimSpace(organization),
		Company:        p.Company,
		Overall:        p.Overall,
		Count:          p.Count,
		TotalCompanies: p.TotalCompanies,
		Averages:       p.Averages,
		Ranks:          p.Ranks,
	}
	for _, cr := range catalog.Order(keys) {
		view.Criteria = append(view.Criteria, types.CriterionScore{
			Key:     cr.Key,
			Label:   cr.Label,
			Average: p.Averages[cr.Key],
			Rank:    p.Ranks[cr.Key],
		})
	}
	return view, nil
}

// Organizations lists organization names, collapsing variants that differ
// only in case or surrounding spaces.
func (s *Service) Organizations(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	store, started := s.store, s.started
	s.mu.RUnlock()
	if !started {
		return nil, ErrNotStarted
	}

	names, err := store.OrganizationNames(ctx)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		key := repository.Normalize(n)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.TrimSpace(n))
	}
	return out, nil
}

// Criteria returns the configured criteria in display order.
func (s *Service) Criteria() []model.Criterion {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.catalog == nil {
		return model.NewCatalog(s.criteria).Known()
	}
	return s.catalog.Known()
}

// SeenAndRecord checks if a submission id was seen and records it if not.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	s.mu.RLock()
	d := s.deduper
	s.mu.RUnlock()
	if d == nil {
		return false
	}
	seen := d.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordEvaluationDuplicate()
	}
	return seen
}

// Unrecord forgets a submission id so it can be retried.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.mu.RLock()
	d := s.deduper
	s.mu.RUnlock()
	if d != nil {
		d.Unrecord(ctx, id)
	}
}

// Enqueue submits an evaluation for asynchronous storage. It returns false
// when the service is not running or the queue is full.
func (s *Service) Enqueue(ctx context.Context, e model.Evaluation) bool { //nolint:gocritic // hugeParam: queued by value
	s.mu.RLock()
	q, started := s.eventQueue, s.started
	s.mu.RUnlock()
	if !started || q == nil {
		return false
	}

	metrics.RecordEvaluationSubmitted()
	ok := q.Enqueue(ctx, e)
	if !ok {
		s.logger.Warn(ctx, "evaluation rejected by queue",
			logger.String("evaluation_id", e.ID),
			logger.Int("queue_length", q.Len(ctx)))
	}
	return ok
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"cacheEnabled": s.redis != nil,
	}
	if s.started {
		stats["queueLength"] = s.eventQueue.Len(ctx)
		stats["dedupeEntries"] = s.deduper.Size()
		if n, err := s.store.Count(ctx); err == nil {
			stats["evaluations"] = n
		}
	}
	return stats
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

func viewCriteria(criteria []model.Criterion) []types.Criterion {
	out := make([]types.Criterion, 0, len(criteria))
	for _, c := range criteria {
		out = append(out, types.Criterion{Key: c.Key, Label: c.Label})
	}
	return out
}
