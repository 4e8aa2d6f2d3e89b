// Package model contains domain models passed between layers.
package model

import (
	"strings"
)

// Scores maps a criterion key to a numeric score. Keys are not validated
// against any schema; the expected domain is 0 to 10.
type Scores map[string]float64

// Keys returns the criterion keys present in s, in no particular order.
func (s Scores) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	return keys
}

// Clone returns an independent copy of s.
func (s Scores) Clone() Scores {
	if s == nil {
		return nil
	}
	out := make(Scores, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Evaluation is one evaluator's scoring of one company.
type Evaluation struct {
	ID           string `json:"id"`
	Evaluator    string `json:"evaluator"`
	Company      string `json:"company"`
	Organization string `json:"organization"`
	EventID      string `json:"event_id,omitempty"`
	Scores       Scores `json:"scores"`
	Comment      string `json:"comment,omitempty"`
	SubmittedAt  string `json:"submitted_at,omitempty"` // RFC3339
}

// CompanyName returns the company name used for every equality comparison.
func (e Evaluation) CompanyName() string {
	return strings.TrimSpace(e.Company)
}

// NaturalKey identifies an evaluation for upserts: one evaluator, one company,
// one organization/event.
func (e Evaluation) NaturalKey() string {
	return strings.Join([]string{
		strings.TrimSpace(e.Evaluator),
		e.CompanyName(),
		strings.TrimSpace(e.Organization),
		strings.TrimSpace(e.EventID),
	}, "\x1f")
}

// Organization groups companies for an event or cohort.
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Company belongs to one organization.
type Company struct {
	ID             string `json:"id"`
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
}
