package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/okian/ladder/internal/domain/evidence"
	fv "github.com/okian/ladder/internal/domain/filevalidation"
)

// EvidenceHandler serves evidence and GitHub signal routes.
type EvidenceHandler struct{}

// NewEvidenceHandler creates a new evidence handler.
func NewEvidenceHandler() *EvidenceHandler {
	return &EvidenceHandler{}
}

type evidenceRequest struct {
	TaskCode string   `json:"taskCode"`
	Kind     string   `json:"kind"`
	URL      string   `json:"url"`
	File     *fv.File `json:"file"`
}

type evidenceResponse struct {
	evidence.Check
	KnownTask bool `json:"knownTask"`
}

// HandleValidate handles POST /v1/evidence/validate.
func (h *EvidenceHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_evidence"
	var req evidenceRequest
	if err := decode(r, schemaEvidence, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	kind, ok := evidence.ParseKind(req.Kind)
	if !ok {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, errors.New("unknown evidence kind")))
		return
	}

	start := time.Now()
	res := evidence.ValidateEvidenceForTask(req.TaskCode, kind, evidence.Data{URL: req.URL, File: req.File})
	observe("evidence", res.Valid, start)

	_, known := evidence.LookupTask(req.TaskCode)
	writeJSON(w, http.StatusOK, evidenceResponse{Check: res, KnownTask: known})
}

type taskWindowRequest struct {
	TaskCode    string     `json:"taskCode"`
	SubmittedAt time.Time  `json:"submittedAt"`
	PeriodStart *time.Time `json:"periodStart"`
	PeriodEnd   *time.Time `json:"periodEnd"`
}

// HandleTaskWindow handles POST /v1/evidence/task-window.
func (h *EvidenceHandler) HandleTaskWindow(w http.ResponseWriter, r *http.Request) {
	const op = "api.task_window"
	var req taskWindowRequest
	if err := decode(r, schemaTaskWindow, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	start := time.Now()
	res := evidence.ValidateTaskTimeWindow(req.TaskCode, req.SubmittedAt, req.PeriodStart, req.PeriodEnd)
	observe("task_window", res.Valid, start)
	writeJSON(w, http.StatusOK, res)
}

type taskInfo struct {
	Code        string          `json:"code"`
	Kinds       []evidence.Kind `json:"kinds"`
	URLPatterns []string        `json:"urlPatterns"`
	Weekly      bool            `json:"weekly"`
}

// HandleTasks handles GET /v1/evidence/tasks.
func (h *EvidenceHandler) HandleTasks(w http.ResponseWriter, _ *http.Request) {
	codes := evidence.TaskCodes()
	out := make([]taskInfo, 0, len(codes))
	for _, code := range codes {
		rule, _ := evidence.LookupTask(code)
		patterns := make([]string, len(rule.URLPatterns))
		for i, p := range rule.URLPatterns {
			patterns[i] = p.String()
		}
		out = append(out, taskInfo{
			Code:        code,
			Kinds:       rule.RequiredKinds,
			URLPatterns: patterns,
			Weekly:      evidence.IsWeeklyTask(code),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

type signalsRequest struct {
	Signals     []evidence.Signal `json:"signals"`
	PeriodStart time.Time         `json:"periodStart"`
	PeriodEnd   time.Time         `json:"periodEnd"`
}

// HandleCommitDays handles POST /v1/github/commit-days.
func (h *EvidenceHandler) HandleCommitDays(w http.ResponseWriter, r *http.Request) {
	const op = "api.commit_days"
	var req signalsRequest
	if err := decode(r, schemaSignals, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	start := time.Now()
	res := evidence.CalculateCommitDays(req.Signals, req.PeriodStart, req.PeriodEnd)
	observe("commit_days", res.DistinctDays > 0, start)
	writeJSON(w, http.StatusOK, res)
}

// HandleReadme handles POST /v1/github/readme.
func (h *EvidenceHandler) HandleReadme(w http.ResponseWriter, r *http.Request) {
	const op = "api.readme_update"
	var req signalsRequest
	if err := decode(r, schemaSignals, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	start := time.Now()
	res := evidence.VerifyReadmeUpdate(req.Signals, req.PeriodStart, req.PeriodEnd)
	observe("readme", res.Updated, start)
	writeJSON(w, http.StatusOK, res)
}

type repoNameRequest struct {
	FullName *string `json:"fullName"`
	URL      *string `json:"url"`
}

type repoNameResponse struct {
	FullName *evidence.Check `json:"fullName,omitempty"`
	URL      *evidence.Check `json:"url,omitempty"`
}

// HandleRepoName handles POST /v1/github/repo-name.
func (h *EvidenceHandler) HandleRepoName(w http.ResponseWriter, r *http.Request) {
	const op = "api.repo_name"
	var req repoNameRequest
	if err := decode(r, schemaRepoName, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	var resp repoNameResponse
	if req.FullName != nil {
		start := time.Now()
		c := evidence.ValidateRepoFullName(*req.FullName)
		observe("repo_name", c.Valid, start)
		resp.FullName = &c
	}
	if req.URL != nil {
		start := time.Now()
		c := evidence.ValidateGitHubURL(*req.URL)
		observe("github_url", c.Valid, start)
		resp.URL = &c
	}
	writeJSON(w, http.StatusOK, resp)
}
