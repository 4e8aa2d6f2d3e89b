// Package seed produces and loads demo data for the scoreboard store.
package seed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/pkg/logger"
)

// ErrInvalidFixture is returned when a fixture does not match the schema.
var ErrInvalidFixture = errors.New("invalid fixture")

// Fixture is a complete data set: organizations, their registered companies
// and the evaluations submitted for them.
type Fixture struct {
	Organizations []model.Organization `json:"organizations"`
	Companies     []model.Company      `json:"companies"`
	Evaluations   []model.Evaluation   `json:"evaluations"`
}

// Load reads a JSON fixture from r and validates it against the embedded schema.
func Load(r io.Reader) (Fixture, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Fixture{}, fmt.Errorf("read fixture: %w", err)
	}
	if err := Validate(raw); err != nil {
		return Fixture{}, err
	}
	var f Fixture
	if err := json.Unmarshal(raw, &f); err != nil {
		return Fixture{}, fmt.Errorf("decode fixture: %w", err)
	}
	return f, nil
}

// Writer is the part of the store a fixture is applied to.
type Writer interface {
	UpsertOrganization(ctx context.Context, o model.Organization) error
	UpsertCompany(ctx context.Context, c model.Company) error
	UpsertEvaluation(ctx context.Context, e model.Evaluation) error
}

// Result counts the rows written by Apply.
type Result struct {
	Organizations int `json:"organizations"`
	Companies     int `json:"companies"`
	Evaluations   int `json:"evaluations"`
}

// Apply upserts every row of f into w, organizations first. It stops at the
// first error and reports what was written until then.
func Apply(ctx context.Context, w Writer, f Fixture) (Result, error) {
	var res Result
	log := logger.Get().Named("seed")

	for _, o := range f.Organizations {
		if err := w.UpsertOrganization(ctx, o); err != nil {
			return res, fmt.Errorf("organization %q: %w", o.Name, err)
		}
		res.Organizations++
	}
	for _, c := range f.Companies {
		if err := w.UpsertCompany(ctx, c); err != nil {
			return res, fmt.Errorf("company %q: %w", c.Name, err)
		}
		res.Companies++
	}
	for i := range f.Evaluations {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := w.UpsertEvaluation(ctx, f.Evaluations[i]); err != nil {
			return res, fmt.Errorf("evaluation %q: %w", f.Evaluations[i].ID, err)
		}
		res.Evaluations++
	}

	log.Info(ctx, "fixture applied",
		logger.Int("organizations", res.Organizations),
		logger.Int("companies", res.Companies),
		logger.Int("evaluations", res.Evaluations))
	return res, nil
}
