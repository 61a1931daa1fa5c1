package api

import (
	"net/http"
	"time"

	fv "github.com/okian/ladder/internal/domain/filevalidation"
)

// FilesHandler serves upload validation.
type FilesHandler struct{}

// NewFilesHandler creates a new files handler.
func NewFilesHandler() *FilesHandler {
	return &FilesHandler{}
}

type filesRequest struct {
	EvidenceType string    `json:"evidenceType"`
	Files        []fv.File `json:"files"`
}

type filesResponse struct {
	fv.Partition
	Results          []fv.Result `json:"results"`
	Rules            fv.Rules    `json:"rules"`
	SupportedFormats string      `json:"supportedFormats"`
}

// HandleValidate handles POST /v1/files/validate.
func (h *FilesHandler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "api.validate_files"
	var req filesRequest
	if err := decode(r, schemaFiles, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	start := time.Now()
	rules := fv.GetValidationRules(req.EvidenceType)
	part := fv.ValidateEvidenceFiles(req.Files, req.EvidenceType)
	results := fv.ValidateFiles(req.Files, rules)
	if results == nil {
		results = []fv.Result{}
	}
	observe("files", len(part.Invalid) == 0, start)

	writeJSON(w, http.StatusOK, filesResponse{
		Partition:        part,
		Results:          results,
		Rules:            rules,
		SupportedFormats: fv.SupportedFormats(rules.AllowedTypes),
	})
}
