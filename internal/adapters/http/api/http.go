// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/okian/ladder/internal/adapters/mq/queue"
	"github.com/okian/ladder/internal/adapters/repository"
	"github.com/okian/ladder/internal/domain/badges"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/metrics"
)

const defaultMaxLimit = 100

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	Clock
	BadgeDependencies
	SubmissionDependencies
	LeaderboardDependencies
	RankDependencies
	StatsProvider
}

// Clock supplies the evaluation time for prospective checks.
type Clock interface {
	Now() time.Time
}

// Server wires HTTP routes for the business API.
type Server struct {
	health      *HealthHandler
	stats       *StatsHandler
	windows     *TimeWindowHandler
	files       *FilesHandler
	evidence    *EvidenceHandler
	badges      *BadgesHandler
	submissions *SubmissionsHandler
	leaderboard *LeaderboardHandler
	rank        *RankHandler

	limiter *RateLimiter
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	maxLimit int
	rps      float64
	burst    int
}

// WithMaxLimit caps the leaderboard limit parameter.
func WithMaxLimit(n int) ServerOption {
	return func(c *serverConfig) {
		if n > 0 {
			c.maxLimit = n
		}
	}
}

// WithRateLimit enables per-IP rate limiting of the /v1 routes. A
// non-positive rps disables it.
func WithRateLimit(rps float64, burst int) ServerOption {
	return func(c *serverConfig) {
		c.rps = rps
		c.burst = burst
	}
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, opts ...ServerOption) *Server {
	cfg := serverConfig{maxLimit: defaultMaxLimit}
	for _, opt := range opts {
		opt(&cfg)
	}

	s := &Server{
		health:      NewHealthHandler(),
		stats:       NewStatsHandler(deps),
		windows:     NewTimeWindowHandler(deps),
		files:       NewFilesHandler(),
		evidence:    NewEvidenceHandler(),
		badges:      NewBadgesHandler(deps),
		submissions: NewSubmissionsHandler(deps),
		leaderboard: NewLeaderboardHandler(deps, cfg.maxLimit),
		rank:        NewRankHandler(deps),
	}
	if cfg.rps > 0 {
		s.limiter = NewRateLimiter(cfg.rps, cfg.burst)
	}
	return s
}

// Limiter returns the rate limiter, or nil when rate limiting is off.
func (s *Server) Limiter() *RateLimiter { return s.limiter }

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.health.HandleHealth, "healthz"))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.stats.HandleStats, "stats"))

	v1 := func(pattern, endpoint string, h http.HandlerFunc) {
		if s.limiter != nil {
			h = s.limiter.Middleware(h)
		}
		mux.HandleFunc(pattern, MetricsMiddleware(h, endpoint))
	}

	v1("POST /v1/time-windows/validate", "time_window", s.windows.HandleValidate)
	v1("POST /v1/time-windows/follow-up", "follow_up", s.windows.HandleFollowUp)
	v1("POST /v1/time-windows/thank-you", "thank_you", s.windows.HandleThankYou)
	v1("POST /v1/time-windows/bonus-window", "bonus_window", s.windows.HandleBonusWindow)
	v1("POST /v1/bonus", "bonus", s.windows.HandleBonus)
	v1("GET /v1/urgency", "urgency", s.windows.HandleUrgency)

	v1("POST /v1/files/validate", "files", s.files.HandleValidate)

	v1("POST /v1/evidence/validate", "evidence", s.evidence.HandleValidate)
	v1("POST /v1/evidence/task-window", "task_window", s.evidence.HandleTaskWindow)
	v1("GET /v1/evidence/tasks", "tasks", s.evidence.HandleTasks)
	v1("POST /v1/github/commit-days", "commit_days", s.evidence.HandleCommitDays)
	v1("POST /v1/github/readme", "readme", s.evidence.HandleReadme)
	v1("POST /v1/github/repo-name", "repo_name", s.evidence.HandleRepoName)

	v1("POST /v1/badges/progress", "badges", s.badges.HandleProgress)

	v1("POST /v1/submissions", "submissions", s.submissions.HandlePost)
	v1("GET /v1/submissions/{id}", "submission", s.submissions.HandleGet)
	v1("GET /v1/leaderboard", "leaderboard", s.leaderboard.HandleGetLeaderboard)
	v1("GET /v1/rank/{user_id}", "rank", s.rank.HandleGetRank)
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps upstream errors onto status codes.
func writeFailure(w http.ResponseWriter, op string, err error) {
	switch {
	case isNotFound(err):
		writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
	case isBackpressure(err):
		writeError(w, http.StatusTooManyRequests, "backpressure", WrapKind(op, ErrBackpressure, err))
	case errors.Is(err, repository.ErrInvalidLimit):
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", Wrap(op, err))
	}
}

// isNotFound allows the API to translate upstream not-found errors to 404.
func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrNotFound)
}

func isBackpressure(err error) bool {
	return errors.Is(err, queue.ErrFull) || errors.Is(err, queue.ErrClosed) || errors.Is(err, ErrBackpressure)
}

// observe records an evaluator call in the evaluation metrics.
func observe(evaluator string, ok bool, start time.Time) {
	metrics.RecordEvaluation(evaluator, ok, float64(time.Since(start).Microseconds())/1000)
}

// BadgeDependencies exposes the configured badge engine.
type BadgeDependencies interface {
	Badges() *badges.Engine
}

// SubmissionDependencies is the async pipeline.
type SubmissionDependencies interface {
	Submit(ctx context.Context, s model.Submission) (model.Receipt, error)
	Verdict(ctx context.Context, id string) (model.Verdict, error)
}
