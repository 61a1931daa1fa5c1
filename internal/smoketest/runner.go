package smoketest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/logger"
)

const (
	directoryPermission = 0o750
	maxThrottleRetries  = 5
	throttleBackoff     = 200 * time.Millisecond
	settlePollInterval  = 50 * time.Millisecond
	percentMultiplier   = 100
)

// ErrVerification reports that the service disagreed with the expected outcome.
var ErrVerification = errors.New("verification failed")

// Run executes the complete smoke run.
func Run(ctx context.Context, cfg *Config) (*Stats, error) {
	stats := &Stats{StartTime: time.Now()}
	log := logger.Named("smoketest")

	log.Info(ctx, "starting ladder smoke run",
		logger.String("baseURL", cfg.BaseURL),
		logger.Int("users", cfg.Users),
		logger.Int("perUser", cfg.PerUser),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	client := newHTTPClient(cfg.BaseURL, cfg.Timeout)

	if err := checkServiceHealth(ctx, client); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	plan := generate(ctx, cfg, stats)

	accepted := submitAll(ctx, cfg, client, plan, stats)

	verdicts := settle(ctx, cfg, client, accepted, stats)

	leaderboard, err := getLeaderboard(ctx, client, cfg.TopN, stats)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	verr := verify(ctx, cfg, client, accepted, verdicts, leaderboard, stats)

	if cfg.OutputFile != "" {
		if err := saveSubmissions(ctx, cfg.OutputFile, plan); err != nil {
			log.Warn(ctx, "failed to save submissions to file", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if verr != nil {
		return stats, verr
	}
	log.Info(ctx, "smoke run completed successfully")
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, client *HTTPClient) error {
	resp, err := client.Get(ctx, "/healthz")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	_, _ = readResponseBody(resp)

	// The service answers with its Prometheus exposition.
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}
	return nil
}

// submitAll posts every planned submission, resending every
// DuplicateRate-th one, and returns the plans the service took.
func submitAll(ctx context.Context, cfg *Config, client *HTTPClient, plan []planned, stats *Stats) []planned {
	var (
		submitted, acceptedN, duplicate, throttled, failed atomic.Int64
		mu                                                 sync.Mutex
		taken                                              = make([]planned, 0, len(plan))
	)

	work := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				p := plan[i]
				sends := 1
				if cfg.DuplicateRate > 0 && (i+1)%cfg.DuplicateRate == 0 {
					sends = 2
				}
				for s := 0; s < sends; s++ {
					submitted.Add(1)
					outcome, retries := submitOne(ctx, client, p.sub)
					throttled.Add(int64(retries))
					switch outcome {
					case "accepted":
						acceptedN.Add(1)
						mu.Lock()
						taken = append(taken, p)
						mu.Unlock()
					case "duplicate":
						duplicate.Add(1)
					default:
						failed.Add(1)
						if cfg.Verbose {
							logger.Get().Warn(ctx, "submission failed",
								logger.String("submissionId", p.sub.ID),
								logger.String("outcome", outcome))
						}
					}
				}
			}
		}()
	}

	go func() {
		defer close(work)
		for i := range plan {
			select {
			case <-ctx.Done():
				return
			case work <- i:
			}
		}
	}()
	wg.Wait()

	stats.Submitted = int(submitted.Load())
	stats.Accepted = int(acceptedN.Load())
	stats.Duplicate = int(duplicate.Load())
	stats.Throttled = int(throttled.Load())
	stats.Failed = int(failed.Load())

	logger.Get().Info(ctx, "submission completed",
		logger.Int("accepted", stats.Accepted),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.Failed))
	return taken
}

// submitOne posts one submission, backing off on 429. It returns the
// outcome and the number of throttled attempts.
func submitOne(ctx context.Context, client *HTTPClient, sub model.Submission) (string, int) {
	throttled := 0
	for {
		resp, err := client.Post(ctx, "/v1/submissions", sub)
		if err != nil {
			return "error", throttled
		}
		body, err := readResponseBody(resp)
		if err != nil {
			return "error", throttled
		}

		switch resp.StatusCode {
		case http.StatusAccepted:
			return "accepted", throttled
		case http.StatusOK:
			var ack AckResponse
			if err := json.Unmarshal(body, &ack); err == nil && ack.Duplicate {
				return "duplicate", throttled
			}
			return "unexpected_ack", throttled
		case http.StatusTooManyRequests:
			throttled++
			if throttled > maxThrottleRetries {
				return "throttled", throttled
			}
			select {
			case <-ctx.Done():
				return "cancelled", throttled
			case <-time.After(retryAfter(resp, throttleBackoff)):
			}
		default:
			return fmt.Sprintf("http_%d", resp.StatusCode), throttled
		}
	}
}

// settle polls each accepted submission until its verdict is stored or the
// settle timeout passes.
func settle(ctx context.Context, cfg *Config, client *HTTPClient, taken []planned, stats *Stats) map[string]model.Verdict {
	ctx, cancel := context.WithTimeout(ctx, cfg.SettleTimeout)
	defer cancel()

	var (
		mu       sync.Mutex
		verdicts = make(map[string]model.Verdict, len(taken))
	)
	work := make(chan model.Submission)
	var wg sync.WaitGroup
	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range work {
				if v, ok := pollVerdict(ctx, client, sub.ID); ok {
					mu.Lock()
					verdicts[sub.ID] = v
					mu.Unlock()
				}
			}
		}()
	}
	for _, p := range taken {
		work <- p.sub
	}
	close(work)
	wg.Wait()

	stats.Settled = len(verdicts)
	stats.Unsettled = len(taken) - len(verdicts)
	logger.Get().Info(ctx, "verdicts settled",
		logger.Int("settled", stats.Settled),
		logger.Int("unsettled", stats.Unsettled))
	return verdicts
}

func pollVerdict(ctx context.Context, client *HTTPClient, id string) (model.Verdict, bool) {
	ticker := time.NewTicker(settlePollInterval)
	defer ticker.Stop()
	for {
		var v model.Verdict
		if _, err := client.getJSON(ctx, "/v1/submissions/"+id, &v); err == nil {
			return v, true
		}
		select {
		case <-ctx.Done():
			return model.Verdict{}, false
		case <-ticker.C:
		}
	}
}

// getLeaderboard retrieves the top N leaderboard entries.
func getLeaderboard(ctx context.Context, client *HTTPClient, topN int, stats *Stats) ([]model.Entry, error) {
	var entries []model.Entry
	if _, err := client.getJSON(ctx, fmt.Sprintf("/v1/leaderboard?limit=%d", topN), &entries); err != nil {
		return nil, err
	}
	stats.LeaderboardEntries = len(entries)
	return entries, nil
}

// saveSubmissions writes the generated submissions as a JSON array.
func saveSubmissions(ctx context.Context, filename string, plan []planned) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	subs := make([]model.Submission, len(plan))
	for i, p := range plan {
		subs[i] = p.sub
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal submissions: %w", err)
	}
	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	logger.Get().Info(ctx, "submissions saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, perSecond float64
	if stats.Submitted > 0 {
		successRate = float64(stats.Accepted+stats.Duplicate) / float64(stats.Submitted) * percentMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Submitted) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("generated", humanize.Comma(int64(stats.Generated))),
		logger.String("submitted", humanize.Comma(int64(stats.Submitted))),
		logger.String("accepted", humanize.Comma(int64(stats.Accepted))),
		logger.Int("duplicate", stats.Duplicate),
		logger.Int("throttled", stats.Throttled),
		logger.Int("failed", stats.Failed),
		logger.Int("settled", stats.Settled),
		logger.Int("verdictMismatches", stats.VerdictMismatches),
		logger.Int("ranksChecked", stats.RanksChecked),
		logger.Int("leaderboardEntries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.Round(time.Millisecond).String()),
		logger.String("successRate", humanize.FtoaWithDigits(successRate, 2)+"%"),
		logger.String("throughput", humanize.SIWithDigits(perSecond, 1, "req/s")))
}
