package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/okian/scoreboard/internal/domain/scoring"
	"github.com/okian/scoreboard/internal/domain/types"
)

// LeaderboardDependencies defines the interface for leaderboard operations.
type LeaderboardDependencies interface {
	Leaderboard(ctx context.Context, organization string, state scoring.SortState) (types.Leaderboard, error)
}

// LeaderboardHandler handles leaderboard requests.
type LeaderboardHandler struct {
	deps LeaderboardDependencies
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(deps LeaderboardDependencies) *LeaderboardHandler {
	return &LeaderboardHandler{deps: deps}
}

// HandleGetLeaderboard handles GET /organizations/{org}/leaderboard requests.
// Query: sort (overall or a criterion key), dir (desc|asc) and toggle, which
// applies a header click to the requested state.
func (h *LeaderboardHandler) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_leaderboard"
	org := strings.TrimSpace(r.PathValue("org"))
	if org == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}
	state, err := sortState(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	lb, err := h.deps.Leaderboard(r.Context(), org, state)
	if err != nil {
		writeFailure(w, r, op, err)
		return
	}
	writeJSON(w, http.StatusOK, lb)
}

func sortState(r *http.Request) (scoring.SortState, error) {
	q := r.URL.Query()
	state := scoring.DefaultSortState()
	if key := strings.TrimSpace(q.Get("sort")); key != "" {
		state.Key = scoring.SortKey(key)
	}
	dir, err := scoring.ParseDirection(q.Get("dir"))
	if err != nil {
		return scoring.SortState{}, err
	}
	state.Direction = dir
	if toggle := strings.TrimSpace(q.Get("toggle")); toggle != "" {
		state = state.Toggle(scoring.SortKey(toggle))
	}
	return state, nil
}
