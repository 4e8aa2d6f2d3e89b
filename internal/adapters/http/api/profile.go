package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/scoreboard/internal/domain/scoring"
	"github.com/okian/scoreboard/internal/domain/types"
)

// ProfileDependencies defines the interface for company profile lookups.
type ProfileDependencies interface {
	Profile(ctx context.Context, organization, company string) (types.ProfileView, error)
}

// ProfileHandler handles company profile requests.
type ProfileHandler struct {
	deps ProfileDependencies
}

// NewProfileHandler creates a new profile handler.
func NewProfileHandler(deps ProfileDependencies) *ProfileHandler {
	return &ProfileHandler{deps: deps}
}

// HandleGetProfile handles GET /organizations/{org}/companies/{company}/profile.
func (h *ProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_profile"
	org := strings.TrimSpace(r.PathValue("org"))
	company := strings.TrimSpace(r.PathValue("company"))
	if org == "" || company == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	view, err := h.deps.Profile(r.Context(), org, company)
	if err != nil {
		if errors.Is(err, scoring.ErrNoData) {
			writeError(w, http.StatusNotFound, "not_found", WrapKind(op, ErrNotFound, err))
			return
		}
		writeFailure(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
