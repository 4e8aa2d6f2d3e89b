// Package repository persists evaluations, organizations and companies and
// resolves an organization selector to its evaluation records.
package repository

import (
	"context"

	"github.com/okian/scoreboard/internal/domain/model"
)

// Store provides read/write access to the evaluation document store.
type Store interface {
	// UpsertEvaluation inserts e or replaces the scores, comment and timestamp
	// of the evaluation with the same evaluator, company, organization and event.
	UpsertEvaluation(ctx context.Context, e model.Evaluation) error
	UpsertOrganization(ctx context.Context, o model.Organization) error
	UpsertCompany(ctx context.Context, c model.Company) error

	// EvaluationsByOrganization returns the evaluations whose organization
	// equals one of names, in insertion order.
	EvaluationsByOrganization(ctx context.Context, names ...string) ([]model.Evaluation, error)
	// EvaluationsByEvent returns the evaluations tagged with eventID.
	EvaluationsByEvent(ctx context.Context, eventID string) ([]model.Evaluation, error)
	// EvaluationsByCompanies returns the evaluations whose trimmed company
	// name is in names.
	EvaluationsByCompanies(ctx context.Context, names []string) ([]model.Evaluation, error)

	// OrganizationNames returns every distinct organization name found on
	// evaluations or in the organizations collection.
	OrganizationNames(ctx context.Context) ([]string, error)
	ListOrganizations(ctx context.Context) ([]model.Organization, error)
	// FindOrganization looks an organization up by exact id or name.
	// Returns ErrNotFound if neither matches.
	FindOrganization(ctx context.Context, idOrName string) (model.Organization, error)
	CompaniesByOrganization(ctx context.Context, organizationID string) ([]model.Company, error)

	// Count returns the number of stored evaluations.
	Count(ctx context.Context) (int, error)
	Close() error
}
