package service

import (
	"time"

	"github.com/okian/ladder/internal/domain/dedupe"
	"github.com/okian/ladder/internal/domain/review"
	"github.com/okian/ladder/pkg/logger"
)

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of review workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the submission queue capacity.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize bounds the in-memory deduper. Ignored when WithDeduper is used.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithDeduper replaces the in-memory deduper, e.g. with a Redis one.
func WithDeduper(d dedupe.Deduper) Option {
	return func(s *Service) {
		if d != nil {
			s.deduper = d
		}
	}
}

// WithPremiumPlans sets the plan identifiers treated as premium by the
// badge engine.
func WithPremiumPlans(plans ...string) Option {
	return func(s *Service) {
		if len(plans) > 0 {
			s.premiumPlans = plans
		}
	}
}

// WithClock sets the time source used for evaluations and verdicts.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
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

// WithReviewer replaces the evidence reviewer used by the workers.
func WithReviewer(r review.Reviewer) Option {
	return func(s *Service) {
		if r != nil {
			s.reviewer = r
		}
	}
}
