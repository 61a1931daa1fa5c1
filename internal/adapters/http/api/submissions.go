package api

import (
	"net/http"

	"github.com/okian/ladder/internal/domain/model"
)

// SubmissionsHandler accepts evidence for asynchronous review.
type SubmissionsHandler struct {
	deps SubmissionDependencies
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(deps SubmissionDependencies) *SubmissionsHandler {
	return &SubmissionsHandler{deps: deps}
}

type ackResponse struct {
	Status       string `json:"status"`
	SubmissionID string `json:"submissionId"`
	Duplicate    bool   `json:"duplicate"`
}

// HandlePost handles POST /v1/submissions.
func (h *SubmissionsHandler) HandlePost(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_submission"
	var req model.Submission
	if err := decode(r, schemaSubmission, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	receipt, err := h.deps.Submit(r.Context(), req)
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	if receipt.Duplicate {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", SubmissionID: receipt.SubmissionID, Duplicate: true})
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", SubmissionID: receipt.SubmissionID})
}

// HandleGet handles GET /v1/submissions/{id}. Submissions still queued
// report 404 until their verdict is stored.
func (h *SubmissionsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_submission"
	v, err := h.deps.Verdict(r.Context(), r.PathValue("id"))
	if err != nil {
		writeFailure(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
