// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/scoreboard/internal/domain/dedupe"
	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/internal/domain/scoring"
	"github.com/okian/scoreboard/internal/domain/types"
	"github.com/okian/scoreboard/pkg/logger"
	"github.com/okian/scoreboard/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes an evaluation for async storage. Returns false on backpressure.
	Enqueue(ctx context.Context, e model.Evaluation) bool

	// Read operations expose the aggregated views.
	Organizations(ctx context.Context) ([]string, error)
	Leaderboard(ctx context.Context, organization string, state scoring.SortState) (types.Leaderboard, error)
	Profile(ctx context.Context, organization, company string) (types.ProfileView, error)
	Criteria() []model.Criterion
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler        *HealthHandler
	statsHandler         *StatsHandler
	evaluationsHandler   *EvaluationsHandler
	organizationsHandler *OrganizationsHandler
	leaderboardHandler   *LeaderboardHandler
	profileHandler       *ProfileHandler
	criteriaHandler      *CriteriaHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider) *Server {
	return &Server{
		healthHandler:        NewHealthHandler(),
		statsHandler:         NewStatsHandler(statsProvider),
		evaluationsHandler:   NewEvaluationsHandler(deps),
		organizationsHandler: NewOrganizationsHandler(deps),
		leaderboardHandler:   NewLeaderboardHandler(deps),
		profileHandler:       NewProfileHandler(deps),
		criteriaHandler:      NewCriteriaHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("POST /evaluations", MetricsMiddleware(s.evaluationsHandler.HandlePostEvaluation, "evaluations"))
	mux.HandleFunc("GET /criteria", MetricsMiddleware(s.criteriaHandler.HandleListCriteria, "criteria"))
	mux.HandleFunc("GET /organizations", MetricsMiddleware(s.organizationsHandler.HandleListOrganizations, "organizations"))
	mux.HandleFunc("GET /organizations/{org}/leaderboard",
		MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("GET /organizations/{org}/companies/{company}/profile",
		MetricsMiddleware(s.profileHandler.HandleGetProfile, "profile"))
}

type ackResponse struct {
	Status    string `json:"status"`
	ID        string `json:"id,omitempty"`
	Duplicate bool   `json:"duplicate"`
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

// writeFailure answers a failed read. The cause is logged and never sent to
// the client.
func writeFailure(w http.ResponseWriter, r *http.Request, op string, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	if errors.Is(err, types.ErrUnavailable) {
		status, code = http.StatusServiceUnavailable, "unavailable"
	}
	logger.Get().Named("api").Error(r.Context(), "request failed",
		logger.Int("status", status), logger.Error(Wrap(op, err)))
	writeError(w, status, code, nil)
}
