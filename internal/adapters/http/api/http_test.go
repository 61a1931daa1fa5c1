package api_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/okian/ladder/internal/adapters/http/api"
	"github.com/okian/ladder/internal/adapters/mq/queue"
	"github.com/okian/ladder/internal/adapters/repository"
	"github.com/okian/ladder/internal/domain/badges"
	"github.com/okian/ladder/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

var fixedNow = time.Date(2025, 3, 5, 12, 0, 0, 0, time.UTC)

type mockDeps struct {
	mu        sync.Mutex
	submitted []model.Submission
	seen      map[string]bool
	submitErr error
	verdicts  map[string]model.Verdict
	entries   []model.Entry
	engine    *badges.Engine
}

func newMockDeps() *mockDeps {
	return &mockDeps{
		seen:     make(map[string]bool),
		verdicts: make(map[string]model.Verdict),
		engine:   badges.NewEngine(),
	}
}

func (m *mockDeps) Now() time.Time { return fixedNow }

func (m *mockDeps) Badges() *badges.Engine { return m.engine }

func (m *mockDeps) Submit(_ context.Context, s model.Submission) (model.Receipt, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.submitErr != nil {
		return model.Receipt{}, m.submitErr
	}
	if s.ID == "" {
		s.ID = "generated"
	}
	if m.seen[s.ID] {
		return model.Receipt{SubmissionID: s.ID, Duplicate: true}, nil
	}
	m.seen[s.ID] = true
	m.submitted = append(m.submitted, s)
	return model.Receipt{SubmissionID: s.ID}, nil
}

func (m *mockDeps) Verdict(_ context.Context, id string) (model.Verdict, error) {
	v, ok := m.verdicts[id]
	if !ok {
		return model.Verdict{}, repository.ErrNotFound
	}
	return v, nil
}

func (m *mockDeps) TopN(_ context.Context, n int) ([]model.Entry, error) {
	if n > len(m.entries) {
		return m.entries, nil
	}
	return m.entries[:n], nil
}

func (m *mockDeps) Rank(_ context.Context, userID string) (model.Entry, error) {
	for _, e := range m.entries {
		if e.UserID == userID {
			return e, nil
		}
	}
	return model.Entry{}, repository.ErrNotFound
}

func (m *mockDeps) GetStats() map[string]any {
	return map[string]any{"started": true}
}

func newMux(deps api.Dependencies, opts ...api.ServerOption) *http.ServeMux {
	mux := http.NewServeMux()
	api.NewServer(deps, opts...).Register(context.Background(), mux)
	return mux
}

func do(mux *http.ServeMux, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "203.0.113.7:4242"
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	var out map[string]any
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func TestTimeWindowRoutes(t *testing.T) {
	Convey("Given the API with a fixed clock", t, func() {
		mux := newMux(newMockDeps())

		Convey("When a window started 23 hours ago is checked against 48 hours", func() {
			w, body := do(mux, http.MethodPost, "/v1/time-windows/validate",
				`{"actionTime":"2025-03-04T13:00:00Z","windowHours":48}`)

			Convey("Then it should be valid with 25 hours left and low urgency", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["isValid"], ShouldEqual, true)
				So(body["isExpired"], ShouldEqual, false)
				So(body["timeRemainingMs"], ShouldEqual, float64(25*time.Hour/time.Millisecond))
				So(body["urgency"], ShouldEqual, "low")
				So(body["deadline"], ShouldEqual, "2025-03-06T13:00:00Z")
			})
		})

		Convey("When a follow-up came 73 hours after the application", func() {
			w, body := do(mux, http.MethodPost, "/v1/time-windows/follow-up",
				`{"applicationTime":"2025-03-01T00:00:00Z","followUpTime":"2025-03-04T01:00:00Z"}`)

			Convey("Then it should be expired", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["isValid"], ShouldEqual, false)
				So(body["isExpired"], ShouldEqual, true)
				So(body, ShouldNotContainKey, "timeRemainingMs")
			})
		})

		Convey("When a thank-you is checked prospectively", func() {
			w, body := do(mux, http.MethodPost, "/v1/time-windows/thank-you",
				`{"interviewTime":"2025-03-05T00:00:00Z"}`)

			Convey("Then the remaining time should be measured from now", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["isValid"], ShouldEqual, true)
				So(body["timeRemainingMs"], ShouldEqual, float64(12*time.Hour/time.Millisecond))
			})
		})

		Convey("When the bonus window is checked", func() {
			_, body := do(mux, http.MethodPost, "/v1/time-windows/bonus-window",
				`{"applicationTime":"2025-03-01T00:00:00Z","followUpTime":"2025-03-02T12:00:00Z"}`)

			Convey("Then exactly 36 hours should still count", func() {
				So(body["isValid"], ShouldEqual, true)
			})
		})

		Convey("When a timestamp is malformed", func() {
			w, body := do(mux, http.MethodPost, "/v1/time-windows/follow-up",
				`{"applicationTime":"yesterday"}`)

			Convey("Then it should be rejected as a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(body["code"], ShouldEqual, "bad_request")
				So(body["message"], ShouldContainSubstring, "applicationTime")
			})
		})

		Convey("When the body is not JSON", func() {
			w, _ := do(mux, http.MethodPost, "/v1/time-windows/validate", `{"actionTime":`)

			Convey("Then it should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a follow-up bonus is requested 22 hours in", func() {
			_, body := do(mux, http.MethodPost, "/v1/bonus",
				`{"actionType":"follow_up","baseTime":"2025-03-01T00:00:00Z","actionTime":"2025-03-01T22:00:00Z"}`)

			Convey("Then three points should be awarded", func() {
				So(body["eligible"], ShouldEqual, true)
				So(body["bonusPoints"], ShouldEqual, float64(3))
			})
		})

		Convey("When urgency is requested", func() {
			w, body := do(mux, http.MethodGet, "/v1/urgency?remaining_ms=3600000", "")
			bad, _ := do(mux, http.MethodGet, "/v1/urgency?remaining_ms=soon", "")
			huge, hugeBody := do(mux, http.MethodGet, "/v1/urgency?remaining_ms=10000000000000000", "")

			Convey("Then one hour should be critical and garbage refused", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["urgency"], ShouldEqual, "critical")
				So(body["remaining"], ShouldEqual, "1h 0m")
				So(bad.Code, ShouldEqual, http.StatusBadRequest)
				So(huge.Code, ShouldEqual, http.StatusOK)
				So(hugeBody["urgency"], ShouldEqual, "low")
			})
		})

		Convey("When a window far beyond the duration range is validated", func() {
			w, body := do(mux, http.MethodPost, "/v1/time-windows/validate",
				`{"actionTime":"2025-03-05T00:00:00Z","windowHours":3000000}`)

			Convey("Then it should still be open", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["isValid"], ShouldEqual, true)
				So(body["isExpired"], ShouldEqual, false)
				So(body["urgency"], ShouldEqual, "low")
			})
		})
	})
}

func TestFileAndEvidenceRoutes(t *testing.T) {
	Convey("Given the API", t, func() {
		mux := newMux(newMockDeps())

		Convey("When resume files are validated", func() {
			w, body := do(mux, http.MethodPost, "/v1/files/validate", `{"evidenceType":"CV","files":[
				{"name":"big.pdf","mimeType":"application/pdf","size":6291456},
				{"name":"ok.pdf","mimeType":"application/pdf","size":4096}]}`)

			Convey("Then the oversized file should be rejected", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["valid"], ShouldHaveLength, 1)
				invalid := body["invalid"].([]any)
				So(invalid, ShouldHaveLength, 1)
				So(invalid[0].(map[string]any)["error"], ShouldEqual, "File size too large. Maximum allowed: 5MB")
				So(body["results"], ShouldHaveLength, 2)
				So(body["supportedFormats"], ShouldEqual, "PDF, DOCX")
			})
		})

		Convey("When a file has a negative size", func() {
			w, _ := do(mux, http.MethodPost, "/v1/files/validate", `{"files":[{"name":"x","mimeType":"application/pdf","size":-1}]}`)

			Convey("Then the schema should refuse it", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When a pull request URL is checked for a merge task", func() {
			w, body := do(mux, http.MethodPost, "/v1/evidence/validate",
				`{"taskCode":"GHW_MERGE_1PR","kind":"URL","url":"https://github.com/acme/app/pull/9"}`)

			Convey("Then it should pass", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["valid"], ShouldEqual, true)
				So(body["knownTask"], ShouldEqual, true)
			})
		})

		Convey("When evidence omits its kind", func() {
			w, body := do(mux, http.MethodPost, "/v1/evidence/validate", `{"taskCode":"GHW_MERGE_1PR"}`)

			Convey("Then it should be a bad request", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(body["message"], ShouldContainSubstring, "kind")
			})
		})

		Convey("When a weekly submission arrives after its period", func() {
			_, body := do(mux, http.MethodPost, "/v1/evidence/task-window", `{"taskCode":"GHW_MERGE_1PR",
				"submittedAt":"2025-03-10T00:00:00Z","periodStart":"2025-03-01T00:00:00Z","periodEnd":"2025-03-08T00:00:00Z"}`)

			Convey("Then the period should be reported as ended", func() {
				So(body["valid"], ShouldEqual, false)
				So(body["error"], ShouldEqual, "Task period has ended")
			})
		})

		Convey("When the task table is listed", func() {
			w, _ := do(mux, http.MethodGet, "/v1/evidence/tasks", "")
			var tasks []map[string]any
			So(json.Unmarshal(w.Body.Bytes(), &tasks), ShouldBeNil)

			Convey("Then every task should be present", func() {
				So(tasks, ShouldHaveLength, 11)
			})
		})

		Convey("When commit signals are aggregated", func() {
			_, body := do(mux, http.MethodPost, "/v1/github/commit-days", `{
				"periodStart":"2025-03-01T00:00:00Z","periodEnd":"2025-03-08T00:00:00Z",
				"signals":[
					{"kind":"COMMIT_PUSHED","occurredAt":"2025-03-02T09:00:00Z"},
					{"kind":"COMMIT_PUSHED","occurredAt":"2025-03-02T18:00:00Z"},
					{"kind":"PR_MERGED","occurredAt":"2025-03-03T10:00:00Z"},
					{"kind":"COMMIT_PUSHED","occurredAt":"2025-03-04T10:00:00Z"}]}`)

			Convey("Then distinct days should be counted", func() {
				So(body["distinctDays"], ShouldEqual, float64(2))
				So(body["commitDates"], ShouldResemble, []any{"2025-03-02", "2025-03-04"})
			})
		})

		Convey("When README signals are checked", func() {
			_, body := do(mux, http.MethodPost, "/v1/github/readme", `{
				"periodStart":"2025-03-01T00:00:00Z","periodEnd":"2025-03-08T00:00:00Z",
				"signals":[{"kind":"README_UPDATED","occurredAt":"2025-03-05T09:00:00Z"}]}`)

			Convey("Then the update should be found", func() {
				So(body["updated"], ShouldEqual, true)
				So(body["updateCount"], ShouldEqual, float64(1))
				So(body["lastUpdate"], ShouldEqual, "2025-03-05T09:00:00Z")
			})
		})

		Convey("When a repository name and URL are checked", func() {
			_, body := do(mux, http.MethodPost, "/v1/github/repo-name", `{"fullName":"acme","url":"https://github.com/acme/app"}`)
			w, _ := do(mux, http.MethodPost, "/v1/github/repo-name", `{}`)

			Convey("Then each should be reported separately", func() {
				So(body["fullName"].(map[string]any)["valid"], ShouldEqual, false)
				So(body["url"].(map[string]any)["valid"], ShouldEqual, true)
				So(w.Code, ShouldEqual, http.StatusBadRequest)
			})
		})

		Convey("When badge progress is requested", func() {
			w, body := do(mux, http.MethodPost, "/v1/badges/progress",
				`{"resumeProgress":100,"linkedinProgress":100,"plan":"Premium","jobApplications":12}`)

			Convey("Then every category and a summary should be returned", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(body["categories"], ShouldHaveLength, len(badges.Categories))
				So(body["premium"], ShouldEqual, true)
				So(body["summary"].(map[string]any)["earned"], ShouldBeGreaterThan, float64(0))
			})
		})
	})
}

func TestSubmissionRoutes(t *testing.T) {
	Convey("Given the API backed by a pipeline", t, func() {
		deps := newMockDeps()
		mux := newMux(deps, api.WithMaxLimit(50))

		Convey("When a submission is posted twice", func() {
			payload := `{"id":"s-1","userId":"alice","taskCode":"GHW_MERGE_1PR","kind":"URL","url":"https://github.com/acme/app/pull/1"}`
			first, firstBody := do(mux, http.MethodPost, "/v1/submissions", payload)
			second, secondBody := do(mux, http.MethodPost, "/v1/submissions", payload)

			Convey("Then the first should be accepted and the second flagged", func() {
				So(first.Code, ShouldEqual, http.StatusAccepted)
				So(firstBody["status"], ShouldEqual, "accepted")
				So(firstBody["submissionId"], ShouldEqual, "s-1")
				So(second.Code, ShouldEqual, http.StatusOK)
				So(secondBody["duplicate"], ShouldEqual, true)
				So(deps.submitted, ShouldHaveLength, 1)
			})
		})

		Convey("When URL evidence arrives without a URL", func() {
			w, _ := do(mux, http.MethodPost, "/v1/submissions", `{"userId":"alice","taskCode":"GHW_MERGE_1PR","kind":"URL"}`)

			Convey("Then the schema should refuse it", func() {
				So(w.Code, ShouldEqual, http.StatusBadRequest)
				So(deps.submitted, ShouldBeEmpty)
			})
		})

		Convey("When the pipeline is saturated", func() {
			deps.submitErr = fmt.Errorf("backpressure: %w", queue.ErrFull)
			w, body := do(mux, http.MethodPost, "/v1/submissions",
				`{"userId":"alice","taskCode":"GHS_SHOWCASE","kind":"FILE"}`)

			Convey("Then it should answer 429", func() {
				So(w.Code, ShouldEqual, http.StatusTooManyRequests)
				So(body["code"], ShouldEqual, "backpressure")
			})
		})

		Convey("When verdicts are read", func() {
			deps.verdicts["s-9"] = model.Verdict{SubmissionID: "s-9", UserID: "bob", Accepted: true, Errors: []string{}}
			found, body := do(mux, http.MethodGet, "/v1/submissions/s-9", "")
			missing, missingBody := do(mux, http.MethodGet, "/v1/submissions/nope", "")

			Convey("Then known IDs return the verdict and unknown ones 404", func() {
				So(found.Code, ShouldEqual, http.StatusOK)
				So(body["accepted"], ShouldEqual, true)
				So(missing.Code, ShouldEqual, http.StatusNotFound)
				So(missingBody["code"], ShouldEqual, "not_found")
			})
		})

		Convey("When the leaderboard is read", func() {
			deps.entries = []model.Entry{
				{Rank: 1, UserID: "bob", Verified: 4},
				{Rank: 2, UserID: "alice", Verified: 2},
			}
			w, _ := do(mux, http.MethodGet, "/v1/leaderboard?limit=1", "")
			var entries []model.Entry
			So(json.Unmarshal(w.Body.Bytes(), &entries), ShouldBeNil)

			zero, _ := do(mux, http.MethodGet, "/v1/leaderboard?limit=0", "")
			tooMany, tooManyBody := do(mux, http.MethodGet, "/v1/leaderboard?limit=51", "")
			rank, rankBody := do(mux, http.MethodGet, "/v1/rank/alice", "")
			unknown, _ := do(mux, http.MethodGet, "/v1/rank/zed", "")

			Convey("Then limits and ranks should be honored", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(entries, ShouldResemble, []model.Entry{{Rank: 1, UserID: "bob", Verified: 4}})
				So(zero.Code, ShouldEqual, http.StatusBadRequest)
				So(tooMany.Code, ShouldEqual, http.StatusBadRequest)
				So(tooManyBody["code"], ShouldEqual, "limit_exceeded")
				So(rank.Code, ShouldEqual, http.StatusOK)
				So(rankBody["rank"], ShouldEqual, float64(2))
				So(unknown.Code, ShouldEqual, http.StatusNotFound)
			})
		})

		Convey("When operational endpoints are hit", func() {
			health, _ := do(mux, http.MethodGet, "/healthz", "")
			stats, statsBody := do(mux, http.MethodGet, "/stats", "")
			wrongMethod, _ := do(mux, http.MethodGet, "/v1/bonus", "")

			Convey("Then they should respond", func() {
				So(health.Code, ShouldEqual, http.StatusOK)
				So(health.Body.String(), ShouldContainSubstring, "ladder_")
				So(stats.Code, ShouldEqual, http.StatusOK)
				So(statsBody["started"], ShouldEqual, true)
				So(wrongMethod.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestRateLimiting(t *testing.T) {
	Convey("Given the API limited to a burst of two", t, func() {
		mux := newMux(newMockDeps(), api.WithRateLimit(0.001, 2))

		Convey("When one client sends three requests", func() {
			var codes []int
			for i := 0; i < 3; i++ {
				w, _ := do(mux, http.MethodGet, "/v1/urgency?remaining_ms=1", "")
				codes = append(codes, w.Code)
			}

			Convey("Then the third should be refused", func() {
				So(codes, ShouldResemble, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests})
			})
		})

		Convey("When another client calls", func() {
			for i := 0; i < 3; i++ {
				do(mux, http.MethodGet, "/v1/urgency?remaining_ms=1", "")
			}
			req := httptest.NewRequest(http.MethodGet, "/v1/urgency?remaining_ms=1", http.NoBody)
			req.RemoteAddr = "198.51.100.1:1000"
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, req)

			Convey("Then it should have its own budget", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
			})
		})

		Convey("When operational endpoints are hit repeatedly", func() {
			var last int
			for i := 0; i < 5; i++ {
				w, _ := do(mux, http.MethodGet, "/stats", "")
				last = w.Code
			}

			Convey("Then they should not be limited", func() {
				So(last, ShouldEqual, http.StatusOK)
			})
		})
	})
}
