package api

import (
	"net/http"
	"time"

	"github.com/okian/ladder/internal/domain/badges"
	"github.com/okian/ladder/pkg/metrics"
)

// BadgesHandler serves badge progression.
type BadgesHandler struct {
	deps BadgeDependencies
}

// NewBadgesHandler creates a new badges handler.
func NewBadgesHandler(deps BadgeDependencies) *BadgesHandler {
	return &BadgesHandler{deps: deps}
}

type badgesResponse struct {
	badges.Progression
	Summary badges.Summary `json:"summary"`
	Premium bool           `json:"premium"`
}

// HandleProgress handles POST /v1/badges/progress.
func (h *BadgesHandler) HandleProgress(w http.ResponseWriter, r *http.Request) {
	const op = "api.badge_progress"
	var snap badges.Snapshot
	if err := decode(r, schemaBadges, &snap); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	engine := h.deps.Badges()
	start := time.Now()
	p := engine.Evaluate(snap)
	observe("badges", true, start)

	for _, c := range p.Categories {
		for _, t := range c.Tiers {
			if t.Earned {
				metrics.RecordBadgeEarned(string(c.Category), string(t.Tier))
			}
		}
	}
	writeJSON(w, http.StatusOK, badgesResponse{
		Progression: p,
		Summary:     p.Summary(),
		Premium:     engine.IsPremium(snap.Plan),
	})
}
