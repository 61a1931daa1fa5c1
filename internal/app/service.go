// Package service wires the evaluators and the submission pipeline behind
// the operations the HTTP API needs.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/okian/ladder/internal/adapters/mq/queue"
	workerpool "github.com/okian/ladder/internal/adapters/mq/worker"
	"github.com/okian/ladder/internal/adapters/repository"
	"github.com/okian/ladder/internal/domain/badges"
	"github.com/okian/ladder/internal/domain/dedupe"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/review"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

// Service implements the API dependencies.
type Service struct {
	mu sync.RWMutex

	store    repository.Store
	deduper  dedupe.Deduper
	reviewer review.Reviewer
	queue    queue.Queue
	pool     *workerpool.Pool
	engine   *badges.Engine

	workerCount  int
	queueSize    int
	dedupeSize   int
	premiumPlans []string
	now          func() time.Time

	started   bool
	startedAt time.Time
	cancel    context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Components are built by Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU() * 2,
		queueSize:    10000,
		dedupeSize:   50000,
		premiumPlans: badges.DefaultPremiumPlans,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.engine = badges.NewEngine(badges.WithPremiumPlans(s.premiumPlans...))
	return s
}

// Start builds the pipeline and launches the workers. The workers outlive
// ctx so that Stop can drain submissions already queued.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.store = repository.NewTreapStore()
	if s.deduper == nil {
		s.deduper = dedupe.NewMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	}
	if s.reviewer == nil {
		s.reviewer = review.NewEvidenceReviewer(review.WithClock(s.now))
	}
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(
		s.queue,
		s.reviewer,
		s.store,
		workerpool.WithWorkerCount(s.workerCount),
	)
	workCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(workCtx)

	s.started = true
	s.startedAt = s.now()
	s.logger.Info(ctx, "ladder service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains the queue and stops the workers. Workers still busy when ctx
// expires are cancelled.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.started = false
	defer s.cancel()

	if err := s.pool.Shutdown(ctx); err != nil {
		return fmt.Errorf("stop service: %w", err)
	}
	s.logger.Info(ctx, "ladder service stopped")
	return nil
}

// Now returns the service clock's current time.
func (s *Service) Now() time.Time { return s.now() }

// Badges returns the badge engine configured with the premium plans.
func (s *Service) Badges() *badges.Engine { return s.engine }

// Submit deduplicates sub on its ID and queues it for review. An empty ID is
// replaced by a fresh UUID and a zero SubmittedAt by the current time.
func (s *Service) Submit(ctx context.Context, sub model.Submission) (model.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return model.Receipt{}, ErrNotStarted
	}
	if strings.TrimSpace(sub.UserID) == "" || strings.TrimSpace(sub.TaskCode) == "" {
		metrics.RecordSubmission("invalid")
		return model.Receipt{}, fmt.Errorf("%w: userId and taskCode are required", ErrInvalid)
	}
	if sub.ID == "" {
		sub.ID = uuid.NewString()
	}
	if sub.SubmittedAt.IsZero() {
		sub.SubmittedAt = s.now()
	}

	seen, err := s.deduper.SeenAndRecord(ctx, sub.ID)
	if err != nil {
		metrics.RecordSubmission("error")
		metrics.RecordErrorByComponent("service", "dedupe_error")
		return model.Receipt{}, fmt.Errorf("submit %s: %w", sub.ID, err)
	}
	if seen {
		metrics.RecordSubmission("duplicate")
		s.logger.Debug(ctx, "duplicate submission", logger.String("submissionID", sub.ID))
		return model.Receipt{SubmissionID: sub.ID, Duplicate: true}, nil
	}

	if err := s.queue.Enqueue(ctx, sub); err != nil {
		if uerr := s.deduper.Unrecord(ctx, sub.ID); uerr != nil {
			s.logger.Warn(ctx, "unrecord after enqueue failure", logger.String("submissionID", sub.ID), logger.Error(uerr))
		}
		metrics.RecordSubmission("rejected")
		if errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) {
			return model.Receipt{}, fmt.Errorf("%w: %w", ErrBackpressure, err)
		}
		return model.Receipt{}, fmt.Errorf("submit %s: %w", sub.ID, err)
	}

	metrics.RecordSubmission("accepted")
	return model.Receipt{SubmissionID: sub.ID}, nil
}

// Verdict returns the stored verdict for a submission.
func (s *Service) Verdict(ctx context.Context, id string) (model.Verdict, error) {
	store, err := s.readStore()
	if err != nil {
		return model.Verdict{}, err
	}
	return store.Verdict(ctx, id) //nolint:wrapcheck // repository sentinels pass through
}

// TopN returns the top n users by verified submissions.
func (s *Service) TopN(ctx context.Context, n int) ([]model.Entry, error) {
	store, err := s.readStore()
	if err != nil {
		return nil, err
	}
	return store.TopN(ctx, n) //nolint:wrapcheck // repository sentinels pass through
}

// Rank returns a user's leaderboard row.
func (s *Service) Rank(ctx context.Context, userID string) (model.Entry, error) {
	store, err := s.readStore()
	if err != nil {
		return model.Entry{}, err
	}
	return store.Rank(ctx, userID) //nolint:wrapcheck // repository sentinels pass through
}

func (s *Service) readStore() (repository.Store, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.store == nil {
		return nil, ErrNotStarted
	}
	return s.store, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":      s.started,
		"workerCount":  s.workerCount,
		"queueSize":    s.queueSize,
		"dedupeSize":   s.dedupeSize,
		"premiumPlans": s.premiumPlans,
	}
	if s.store == nil {
		return stats
	}

	ctx := context.Background()
	tracked := s.deduper.Size(ctx)
	verdicts := s.store.Verdicts(ctx)
	users := s.store.Count(ctx)

	stats["queueLength"] = s.queue.Len()
	stats["activeWorkers"] = s.pool.Active()
	stats["verdictsStored"] = verdicts
	stats["rankedUsers"] = users
	stats["verdictsStoredHuman"] = humanize.Comma(int64(verdicts))
	stats["startedAgo"] = humanize.RelTime(s.startedAt, s.now(), "ago", "from now")

	if tracked >= 0 {
		stats["dedupeTracked"] = tracked
		metrics.UpdateDedupeSize(tracked)
	}
	metrics.UpdateVerdictsStored(verdicts)
	metrics.UpdateUsersRanked(users)
	return stats
}
