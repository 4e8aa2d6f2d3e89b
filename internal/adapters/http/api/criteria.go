package api

import (
	"net/http"

	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/internal/domain/types"
)

// CriteriaDependencies exposes the configured scoring criteria.
type CriteriaDependencies interface {
	Criteria() []model.Criterion
}

// CriteriaHandler lists the criteria a dashboard can sort by.
type CriteriaHandler struct {
	deps CriteriaDependencies
}

// NewCriteriaHandler creates a new criteria handler.
func NewCriteriaHandler(deps CriteriaDependencies) *CriteriaHandler {
	return &CriteriaHandler{deps: deps}
}

type criteriaResponse struct {
	Criteria []types.Criterion `json:"criteria"`
}

// HandleListCriteria handles GET /criteria requests.
func (h *CriteriaHandler) HandleListCriteria(w http.ResponseWriter, _ *http.Request) {
	known := h.deps.Criteria()
	out := make([]types.Criterion, 0, len(known))
	for _, c := range known {
		out = append(out, types.Criterion{Key: c.Key, Label: c.Label})
	}
	writeJSON(w, http.StatusOK, criteriaResponse{Criteria: out})
}
