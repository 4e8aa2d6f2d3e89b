package repository

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"

	"github.com/okian/scoreboard/internal/domain/model"
)

// Normalize trims and case-folds a name for loose comparison.
func Normalize(name string) string {
	// a Caser is stateful; build one per call
	return cases.Fold().String(strings.TrimSpace(name))
}

// ExactMatcher selects evaluations whose organization equals the selector.
type ExactMatcher struct{ Store Store }

func (ExactMatcher) Name() string { return "exact" }

func (m ExactMatcher) Match(ctx context.Context, selector string) ([]model.Evaluation, error) {
	return m.Store.EvaluationsByOrganization(ctx, selector)
}

// NormalizedMatcher selects evaluations whose organization equals the
// selector after trimming and case folding.
type NormalizedMatcher struct{ Store Store }

func (NormalizedMatcher) Name() string { return "normalized" }

func (m NormalizedMatcher) Match(ctx context.Context, selector string) ([]model.Evaluation, error) {
	names, err := m.Store.OrganizationNames(ctx)
	if err != nil {
		return nil, err
	}
	want := Normalize(selector)
	var variants []string
	for _, n := range names {
		if Normalize(n) == want {
			variants = append(variants, n)
		}
	}
	if len(variants) == 0 {
		return nil, nil
	}
	return m.Store.EvaluationsByOrganization(ctx, variants...)
}

// ForeignKeyMatcher resolves the selector to an organization document and
// selects evaluations whose event id is that organization's id.
type ForeignKeyMatcher struct{ Store Store }

func (ForeignKeyMatcher) Name() string { return "foreign_key" }

func (m ForeignKeyMatcher) Match(ctx context.Context, selector string) ([]model.Evaluation, error) {
	org, ok, err := resolveOrganization(ctx, m.Store, selector)
	if err != nil || !ok {
		return nil, err
	}
	return m.Store.EvaluationsByEvent(ctx, org.ID)
}

// MembershipMatcher resolves the selector to an organization document and
// selects evaluations of the companies registered under it.
type MembershipMatcher struct{ Store Store }

func (MembershipMatcher) Name() string { return "membership" }

func (m MembershipMatcher) Match(ctx context.Context, selector string) ([]model.Evaluation, error) {
	org, ok, err := resolveOrganization(ctx, m.Store, selector)
	if err != nil || !ok {
		return nil, err
	}
	companies, err := m.Store.CompaniesByOrganization(ctx, org.ID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(companies))
	for _, c := range companies {
		names = append(names, c.Name)
	}
	return m.Store.EvaluationsByCompanies(ctx, names)
}

// resolveOrganization finds the organization document by exact id or name,
// then by normalized name.
func resolveOrganization(ctx context.Context, store Store, selector string) (model.Organization, bool, error) {
	org, err := store.FindOrganization(ctx, selector)
	if err == nil {
		return org, true, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return model.Organization{}, false, err
	}

	orgs, err := store.ListOrganizations(ctx)
	if err != nil {
		return model.Organization{}, false, err
	}
	want := Normalize(selector)
	for _, o := range orgs {
		if Normalize(o.Name) == want || Normalize(o.ID) == want {
			return o, true, nil
		}
	}
	return model.Organization{}, false, nil
}
