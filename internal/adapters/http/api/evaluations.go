package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/okian/scoreboard/internal/domain/dedupe"
	"github.com/okian/scoreboard/internal/domain/model"
)

const maxBodyBytes = 1 << 20

var validate = validator.New(validator.WithRequiredStructEnabled())

// EvaluationDependencies defines the interface for evaluation submission.
type EvaluationDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, e model.Evaluation) bool
}

// EvaluationsHandler handles evaluation submissions.
type EvaluationsHandler struct {
	deps EvaluationDependencies
	now  func() time.Time
}

// NewEvaluationsHandler creates a new evaluations handler.
func NewEvaluationsHandler(deps EvaluationDependencies) *EvaluationsHandler {
	return &EvaluationsHandler{deps: deps, now: time.Now}
}

// evaluationRequest mirrors the OpenAPI schema for POST /evaluations.
type evaluationRequest struct {
	SubmissionID string             `json:"submission_id" validate:"omitempty,max=128"`
	Evaluator    string             `json:"evaluator" validate:"required,max=256"`
	Company      string             `json:"company" validate:"required,max=256"`
	Organization string             `json:"organization" validate:"required,max=256"`
	EventID      string             `json:"event_id" validate:"max=256"`
	Scores       map[string]float64 `json:"scores" validate:"required,min=1,dive,keys,required,max=64,endkeys,gte=0,lte=10"`
	Comment      string             `json:"comment" validate:"max=4000"`
	SubmittedAt  string             `json:"submitted_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
}

func (r *evaluationRequest) normalize() {
	r.SubmissionID = strings.TrimSpace(r.SubmissionID)
	r.Evaluator = strings.TrimSpace(r.Evaluator)
	r.Company = strings.TrimSpace(r.Company)
	r.Organization = strings.TrimSpace(r.Organization)
	r.EventID = strings.TrimSpace(r.EventID)
	r.SubmittedAt = strings.TrimSpace(r.SubmittedAt)
}

// Validate checks the request against its field rules.
func (r *evaluationRequest) Validate() error {
	return validate.Struct(r)
}

func (r *evaluationRequest) evaluation(now time.Time) model.Evaluation {
	id := r.SubmissionID
	if id == "" {
		id = uuid.NewString()
	}
	at := r.SubmittedAt
	if at == "" {
		at = now.UTC().Format(time.RFC3339)
	}
	return model.Evaluation{
		ID:           id,
		Evaluator:    r.Evaluator,
		Company:      r.Company,
		Organization: r.Organization,
		EventID:      r.EventID,
		Scores:       model.Scores(r.Scores).Clone(),
		Comment:      r.Comment,
		SubmittedAt:  at,
	}
}

// HandlePostEvaluation handles POST /evaluations requests.
func (h *EvaluationsHandler) HandlePostEvaluation(w http.ResponseWriter, r *http.Request) {
	const op = "api.post_evaluation"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req evaluationRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}
	req.normalize()
	if err := req.Validate(); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			err = errors.New("invalid " + strings.ToLower(verrs[0].Field()) + ": failed " + verrs[0].Tag())
		}
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	e := req.evaluation(h.now())

	// Idempotency applies only to client supplied ids.
	if req.SubmissionID != "" && h.deps.SeenAndRecord(r.Context(), req.SubmissionID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", ID: e.ID, Duplicate: true})
		return
	}

	if ok := h.deps.Enqueue(r.Context(), e); !ok {
		if req.SubmissionID != "" {
			h.deps.Unrecord(r.Context(), req.SubmissionID)
		}
		writeError(w, http.StatusTooManyRequests, "backpressure", NewKind(op, ErrBackpressure))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", ID: e.ID})
}
