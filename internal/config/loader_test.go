package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/okian/scoreboard/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"SCOREBOARD_CONFIG",
	"SCOREBOARD_ADDR",
	"SCOREBOARD_LOG_LEVEL",
	"SCOREBOARD_LOG_FORMAT",
	"SCOREBOARD_STORE_DRIVER",
	"SCOREBOARD_STORE_DSN",
	"SCOREBOARD_REDIS_ADDR",
	"SCOREBOARD_REDIS_DB",
	"SCOREBOARD_CACHE_TTL",
	"SCOREBOARD_QUEUE_SIZE",
	"SCOREBOARD_WORKER_COUNT",
	"SCOREBOARD_DEDUPE_SIZE",
	"SCOREBOARD_CORS_ORIGINS",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func createTempConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 10_000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
				convey.So(len(cfg.Criteria), convey.ShouldEqual, 6)
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SCOREBOARD_ADDR", ":8080")
			_ = os.Setenv("SCOREBOARD_QUEUE_SIZE", "500")
			_ = os.Setenv("SCOREBOARD_WORKER_COUNT", "3")
			_ = os.Setenv("SCOREBOARD_STORE_DRIVER", "postgres")
			_ = os.Setenv("SCOREBOARD_STORE_DSN", "postgres://db/scoreboard")
			_ = os.Setenv("SCOREBOARD_REDIS_ADDR", "localhost:6379")
			_ = os.Setenv("SCOREBOARD_REDIS_DB", "2")
			_ = os.Setenv("SCOREBOARD_CACHE_TTL", "2m")

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 3)
				convey.So(cfg.StoreDriver, convey.ShouldEqual, "postgres")
				convey.So(cfg.StoreDSN, convey.ShouldEqual, "postgres://db/scoreboard")
				convey.So(cfg.CacheEnabled(), convey.ShouldBeTrue)
				convey.So(cfg.RedisDB, convey.ShouldEqual, 2)
				convey.So(cfg.CacheTTL, convey.ShouldEqual, 2*time.Minute)
			})
		})

		convey.Convey("When loading config with a YAML file", func() {
			path := createTempConfigFile(t, `
addr: ":9090"
log_format: json
queue_size: 300
cache_ttl: 45s
criteria:
  - key: esg
  - key: team
    label: People
`)
			_ = os.Setenv("SCOREBOARD_CONFIG", path)

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load from the file", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 300)
				convey.So(cfg.CacheTTL, convey.ShouldEqual, 45*time.Second)
				convey.So(cfg.Criteria, convey.ShouldResemble, []config.CriterionConfig{
					{Key: "esg"},
					{Key: "team", Label: "People"},
				})
			})

			convey.Convey("Then env vars should win over the file", func() {
				_ = os.Setenv("SCOREBOARD_ADDR", ":7070")
				cfg, err := config.Load(ctx)
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			})
		})
	})
}

func TestConfigLoaderErrors(t *testing.T) {
	convey.Convey("Given invalid configuration", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		defer clearConfigEnvVars()

		convey.Convey("When the config file does not exist", func() {
			_ = os.Setenv("SCOREBOARD_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the store driver is unknown", func() {
			_ = os.Setenv("SCOREBOARD_STORE_DRIVER", "mongo")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When the log format is unknown", func() {
			_ = os.Setenv("SCOREBOARD_LOG_FORMAT", "xml")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a duration cannot be parsed", func() {
			_ = os.Setenv("SCOREBOARD_CACHE_TTL", "soon")
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When a criterion has no key", func() {
			path := createTempConfigFile(t, "criteria:\n  - label: Nameless\n")
			_ = os.Setenv("SCOREBOARD_CONFIG", path)
			_, err := config.Load(ctx)
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})

		convey.Convey("When addr is empty", func() {
			cfg := config.New(ctx)
			cfg.Addr = ""
			err := cfg.Validate()
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
		})
	})
}
