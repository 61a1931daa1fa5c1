package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/ladder/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "json")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU()*4)
			convey.So(cfg.DedupeSize, convey.ShouldEqual, 50_000)
			convey.So(cfg.DedupeBackend, convey.ShouldEqual, config.DedupeMemory)
			convey.So(cfg.DedupeTTL, convey.ShouldEqual, 7*24*time.Hour)
			convey.So(cfg.PremiumPlans, convey.ShouldResemble, []string{"premium", "enterprise"})
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad setting each", t, func() {
		cases := map[string]func(*config.Config){
			"addr":                  func(c *config.Config) { c.Addr = "" },
			"queue_size":            func(c *config.Config) { c.QueueSize = -1 },
			"worker_count":          func(c *config.Config) { c.WorkerCount = -1 },
			"dedupe_size":           func(c *config.Config) { c.DedupeSize = -1 },
			"dedupe_backend":        func(c *config.Config) { c.DedupeBackend = "etcd" },
			"redis_addr":            func(c *config.Config) { c.DedupeBackend = config.DedupeRedis; c.RedisAddr = "" },
			"dedupe_ttl":            func(c *config.Config) { c.DedupeTTL = -time.Second },
			"max_leaderboard_limit": func(c *config.Config) { c.MaxLeaderboardLimit = 0 },
			"rate_limit_rps":        func(c *config.Config) { c.RateLimitRPS = -1 },
			"rate_limit_burst":      func(c *config.Config) { c.RateLimitBurst = 0 },
		}

		convey.Convey("Then each should fail with ErrInvalidConfig", func() {
			for name, mutate := range cases {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldContainSubstring, name)
			}
		})

		convey.Convey("Then a zero burst is fine with rate limiting off", func() {
			cfg := config.New()
			cfg.RateLimitRPS = 0
			cfg.RateLimitBurst = 0
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}
