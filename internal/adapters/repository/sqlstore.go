package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/okian/scoreboard/internal/domain/model"
	"github.com/okian/scoreboard/pkg/metrics"
)

// SQLStore implements Store over database/sql. Queries are written with "?"
// placeholders and rebound for postgres.
type SQLStore struct {
	db     *sql.DB
	driver Driver
	now    func() time.Time
}

var _ Store = (*SQLStore)(nil)

// NewSQLStore wraps an open database whose schema already exists.
func NewSQLStore(db *sql.DB, driver Driver, opts ...Option) *SQLStore {
	s := &SQLStore{db: db, driver: driver, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close closes the database.
func (s *SQLStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// rebind converts "?" placeholders to "$n" for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteByte(query[i])
	}
	return b.String()
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// observe records latency and errors for op.
func observe(op string, start time.Time, err error) {
	metrics.RecordStoreLatency(op, metrics.Since(start))
	if err != nil {
		metrics.RecordStoreError(op)
	}
}

const upsertEvaluationSQL = `
INSERT INTO evaluations (id, evaluator, company, organization, event_id, scores, comment, submitted_at, created_at, natural_key)
VALUES (?,?,?,?,?,?,?,?,?,?)
ON CONFLICT (natural_key)
DO UPDATE SET scores=excluded.scores, comment=excluded.comment, submitted_at=excluded.submitted_at`

func (s *SQLStore) UpsertEvaluation(ctx context.Context, e model.Evaluation) (err error) {
	defer func(start time.Time) { observe("upsert_evaluation", start, err) }(time.Now())

	// Conflicts resolve on the trimmed key so padded resubmissions replace in place.
	if e.ID == "" || strings.TrimSpace(e.Evaluator) == "" || e.CompanyName() == "" || strings.TrimSpace(e.Organization) == "" {
		return fmt.Errorf("%w: evaluation needs id, evaluator, company and organization", ErrInvalidRecord)
	}
	scores := e.Scores
	if scores == nil {
		scores = model.Scores{}
	}
	raw, err := json.Marshal(scores)
	if err != nil {
		return fmt.Errorf("encode scores: %w", err)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(upsertEvaluationSQL),
		e.ID, e.Evaluator, e.Company, e.Organization, e.EventID,
		string(raw), e.Comment, e.SubmittedAt, s.now().UnixNano(), e.NaturalKey())
	if err != nil {
		return fmt.Errorf("upsert evaluation: %w", err)
	}
	return nil
}

func (s *SQLStore) UpsertOrganization(ctx context.Context, o model.Organization) (err error) {
	defer func(start time.Time) { observe("upsert_organization", start, err) }(time.Now())

	if o.ID == "" || o.Name == "" {
		return fmt.Errorf("%w: organization needs id and name", ErrInvalidRecord)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO organizations (id, name) VALUES (?,?)
ON CONFLICT (id) DO UPDATE SET name=excluded.name`), o.ID, o.Name)
	if err != nil {
		return fmt.Errorf("upsert organization: %w", err)
	}
	return nil
}

func (s *SQLStore) UpsertCompany(ctx context.Context, c model.Company) (err error) {
	defer func(start time.Time) { observe("upsert_company", start, err) }(time.Now())

	if c.ID == "" || c.Name == "" {
		return fmt.Errorf("%w: company needs id and name", ErrInvalidRecord)
	}
	_, err = s.db.ExecContext(ctx, s.rebind(`
INSERT INTO companies (id, organization_id, name) VALUES (?,?,?)
ON CONFLICT (id) DO UPDATE SET organization_id=excluded.organization_id, name=excluded.name`),
		c.ID, c.OrganizationID, c.Name)
	if err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}
	return nil
}

const selectEvaluations = `SELECT id, evaluator, company, organization, event_id, scores, comment, submitted_at FROM evaluations`

func (s *SQLStore) EvaluationsByOrganization(ctx context.Context, names ...string) (out []model.Evaluation, err error) {
	defer func(start time.Time) { observe("evaluations_by_organization", start, err) }(time.Now())

	if len(names) == 0 {
		return nil, nil
	}
	args := make([]any, len(names))
	for i, n := range names {
		args[i] = n
	}
	q := selectEvaluations + ` WHERE organization IN (` + placeholders(len(names)) + `) ORDER BY seq`
	return s.queryEvaluations(ctx, q, args...)
}

func (s *SQLStore) EvaluationsByEvent(ctx context.Context, eventID string) (out []model.Evaluation, err error) {
	defer func(start time.Time) { observe("evaluations_by_event", start, err) }(time.Now())

	if eventID == "" {
		return nil, nil
	}
	return s.queryEvaluations(ctx, selectEvaluations+` WHERE event_id = ? ORDER BY seq`, eventID)
}

func (s *SQLStore) EvaluationsByCompanies(ctx context.Context, names []string) (out []model.Evaluation, err error) {
	defer func(start time.Time) { observe("evaluations_by_companies", start, err) }(time.Now())

	args := make([]any, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			args = append(args, n)
		}
	}
	if len(args) == 0 {
		return nil, nil
	}
	q := selectEvaluations + ` WHERE TRIM(company) IN (` + placeholders(len(args)) + `) ORDER BY seq`
	return s.queryEvaluations(ctx, q, args...)
}

func (s *SQLStore) queryEvaluations(ctx context.Context, query string, args ...any) ([]model.Evaluation, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("query evaluations: %w", err)
	}
	defer rows.Close()

	var out []model.Evaluation
	for rows.Next() {
		var (
			e   model.Evaluation
			raw string
		)
		if err := rows.Scan(&e.ID, &e.Evaluator, &e.Company, &e.Organization, &e.EventID, &raw, &e.Comment, &e.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan evaluation: %w", err)
		}
		if raw != "" {
			if err := json.Unmarshal([]byte(raw), &e.Scores); err != nil {
				return nil, fmt.Errorf("decode scores of %s: %w", e.ID, err)
			}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate evaluations: %w", err)
	}
	return out, nil
}

func (s *SQLStore) OrganizationNames(ctx context.Context) (names []string, err error) {
	defer func(start time.Time) { observe("organization_names", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT organization FROM evaluations UNION SELECT name FROM organizations`)
	if err != nil {
		return nil, fmt.Errorf("query organization names: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n string
		if err := rows.Scan(&n); err != nil {
			return nil, fmt.Errorf("scan organization name: %w", err)
		}
		names = append(names, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organization names: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func (s *SQLStore) ListOrganizations(ctx context.Context) (out []model.Organization, err error) {
	defer func(start time.Time) { observe("list_organizations", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx, `SELECT id, name FROM organizations ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query organizations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var o model.Organization
		if err := rows.Scan(&o.ID, &o.Name); err != nil {
			return nil, fmt.Errorf("scan organization: %w", err)
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate organizations: %w", err)
	}
	return out, nil
}

func (s *SQLStore) FindOrganization(ctx context.Context, idOrName string) (o model.Organization, err error) {
	defer func(start time.Time) {
		if errors.Is(err, ErrNotFound) {
			observe("find_organization", start, nil)
			return
		}
		observe("find_organization", start, err)
	}(time.Now())

	err = s.db.QueryRowContext(ctx,
		s.rebind(`SELECT id, name FROM organizations WHERE id = ? OR name = ? ORDER BY CASE WHEN id = ? THEN 0 ELSE 1 END, id LIMIT 1`),
		idOrName, idOrName, idOrName).Scan(&o.ID, &o.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Organization{}, fmt.Errorf("organization %q: %w", idOrName, ErrNotFound)
	}
	if err != nil {
		return model.Organization{}, fmt.Errorf("find organization: %w", err)
	}
	return o, nil
}

func (s *SQLStore) CompaniesByOrganization(ctx context.Context, organizationID string) (out []model.Company, err error) {
	defer func(start time.Time) { observe("companies_by_organization", start, err) }(time.Now())

	rows, err := s.db.QueryContext(ctx,
		s.rebind(`SELECT id, organization_id, name FROM companies WHERE organization_id = ? ORDER BY name, id`), organizationID)
	if err != nil {
		return nil, fmt.Errorf("query companies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c model.Company
		if err := rows.Scan(&c.ID, &c.OrganizationID, &c.Name); err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return out, nil
}

func (s *SQLStore) Count(ctx context.Context) (n int, err error) {
	defer func(start time.Time) { observe("count", start, err) }(time.Now())

	if err = s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM evaluations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count evaluations: %w", err)
	}
	return n, nil
}
