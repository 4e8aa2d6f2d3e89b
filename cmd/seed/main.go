// Package main implements the seed tool that loads demo or fixture data
// into the scoreboard store.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/okian/scoreboard/internal/adapters/cache"
	"github.com/okian/scoreboard/internal/adapters/repository"
	"github.com/okian/scoreboard/internal/config"
	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/internal/seed"
	"github.com/okian/scoreboard/pkg/logger"
)

type options struct {
	driver        string
	dsn           string
	fixture       string
	seed          uint64
	organizations int
	companies     int
	evaluators    int
	dryRun        bool
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load demo or fixture evaluations into the scoreboard store",
		Long: "seed writes organizations, companies and evaluations into the configured store. " +
			"Without --fixture it generates a deterministic demo data set over the configured criteria.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSeed(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.StringVar(&opts.driver, "driver", "", "Store driver: sqlite or postgres (default from config)")
	f.StringVar(&opts.dsn, "dsn", "", "Store DSN (default from config)")
	f.StringVarP(&opts.fixture, "fixture", "f", "", "Path to a JSON fixture; generates demo data when empty")
	f.Uint64Var(&opts.seed, "seed", 42, "Random seed for generated data")
	f.IntVar(&opts.organizations, "organizations", 2, "Organizations to generate")
	f.IntVar(&opts.companies, "companies", 8, "Companies per organization")
	f.IntVar(&opts.evaluators, "evaluators", 4, "Judges per organization")
	f.BoolVar(&opts.dryRun, "dry-run", false, "Print the fixture as JSON instead of writing it")
	return cmd
}

func runSeed(cmd *cobra.Command, opts options) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	fixture, err := buildFixture(cfg, opts)
	if err != nil {
		return err
	}

	if opts.dryRun {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(fixture)
	}

	driverName := cfg.StoreDriver
	if opts.driver != "" {
		driverName = opts.driver
	}
	dsn := cfg.StoreDSN
	if opts.dsn != "" {
		dsn = opts.dsn
	}
	driver, err := repository.ParseDriver(driverName)
	if err != nil {
		return err
	}
	store, err := repository.Open(ctx, driver, dsn)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	res, err := seed.Apply(ctx, store, fixture)
	if err != nil {
		return err
	}
	invalidateCache(ctx, cfg)

	fmt.Fprintf(cmd.OutOrStdout(), "seeded %d organizations, %d companies, %d evaluations\n",
		res.Organizations, res.Companies, res.Evaluations)
	return nil
}

func buildFixture(cfg *config.Config, opts options) (seed.Fixture, error) {
	if opts.fixture != "" {
		file, err := os.Open(opts.fixture)
		if err != nil {
			return seed.Fixture{}, fmt.Errorf("open fixture: %w", err)
		}
		defer file.Close()
		return seed.Load(file)
	}

	criteria := make([]model.Criterion, 0, len(cfg.Criteria))
	for _, c := range cfg.Criteria {
		criteria = append(criteria, model.Criterion{Key: c.Key, Label: c.Label})
	}
	return seed.NewGenerator(
		seed.WithSeed(opts.seed),
		seed.WithOrganizations(opts.organizations),
		seed.WithCompanies(opts.companies),
		seed.WithEvaluators(opts.evaluators),
		seed.WithCriteria(criteria),
	).Generate(), nil
}

// invalidateCache drops cached record collections so a running server sees
// the new rows before the cache TTL expires.
func invalidateCache(ctx context.Context, cfg *config.Config) {
	if !cfg.CacheEnabled() {
		return
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer client.Close()
	if err := cache.New(nil, client).Invalidate(ctx); err != nil {
		logger.Get().Warn(ctx, "cache invalidation failed", logger.Error(err))
	}
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := logger.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
