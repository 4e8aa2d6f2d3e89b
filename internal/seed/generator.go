package seed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/scoreboard/internal/domain/model"
)

// Generator defaults.
const (
	defaultSeed          = 42
	defaultOrganizations = 2
	defaultCompanies     = 8
	defaultEvaluators    = 4
)

// Quality tiers a generated company is drawn from. Each tier is a base
// score range; individual scores jitter around the base.
var tiers = []struct {
	min, span float64
}{
	{3.0, 4.0}, // average
	{3.0, 4.0}, // average
	{7.0, 2.0}, // strong
	{6.0, 2.0}, // good
	{2.0, 2.0}, // weak
	{9.0, 1.0}, // outstanding
	{0.5, 2.0}, // poor
	{1.0, 8.5}, // anything
}

var companyWords = []string{
	"Acme", "Bright", "Cobalt", "Delta", "Ember", "Fathom", "Granite", "Helix",
	"Ion", "Juniper", "Kestrel", "Lumen", "Mosaic", "Nimbus", "Orbit", "Pylon",
}

var companySuffixes = []string{"Labs", "Robotics", "Health", "Analytics", "Energy", "Foods"}

// Generator builds deterministic demo fixtures. The same options always
// produce the same fixture.
type Generator struct {
	seed          uint64
	organizations int
	companies     int
	evaluators    int
	criteria      []model.Criterion
	start         time.Time
}

// Option applies a configuration option to the Generator.
type Option func(*Generator)

// WithSeed sets the random seed.
func WithSeed(seed uint64) Option {
	return func(g *Generator) { g.seed = seed }
}

// WithOrganizations sets the number of organizations.
func WithOrganizations(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.organizations = n
		}
	}
}

// WithCompanies sets the number of companies per organization.
func WithCompanies(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.companies = n
		}
	}
}

// WithEvaluators sets the number of judges per organization.
func WithEvaluators(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.evaluators = n
		}
	}
}

// WithCriteria sets the criteria every evaluation scores.
func WithCriteria(criteria []model.Criterion) Option {
	return func(g *Generator) {
		if len(criteria) > 0 {
			g.criteria = criteria
		}
	}
}

// WithStart sets the submission time of the first evaluation.
func WithStart(t time.Time) Option {
	return func(g *Generator) { g.start = t }
}

// NewGenerator creates a Generator with defaults.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		seed:          defaultSeed,
		organizations: defaultOrganizations,
		companies:     defaultCompanies,
		evaluators:    defaultEvaluators,
		criteria:      model.DefaultCriteria(),
		start:         time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate builds a fixture where every judge scores every company of its
// organization on every criterion. Evaluations reference their organization
// by name and by event id.
func (g *Generator) Generate() Fixture {
	rng := rand.New(rand.NewPCG(g.seed, g.seed^0x9e3779b97f4a7c15))
	f := Fixture{
		Organizations: make([]model.Organization, 0, g.organizations),
		Companies:     make([]model.Company, 0, g.organizations*g.companies),
		Evaluations:   make([]model.Evaluation, 0, g.organizations*g.companies*g.evaluators),
	}
	at := g.start

	for o := 0; o < g.organizations; o++ {
		org := model.Organization{Name: fmt.Sprintf("Cohort %d", o+1)}
		org.ID = stableID("organization", org.Name)
		f.Organizations = append(f.Organizations, org)

		for c := 0; c < g.companies; c++ {
			company := model.Company{
				OrganizationID: org.ID,
				Name:           companyName(o*g.companies + c),
			}
			company.ID = stableID("company", org.ID, company.Name)
			f.Companies = append(f.Companies, company)

			tier := tiers[rng.IntN(len(tiers))]
			base := tier.min + rng.Float64()*tier.span

			for j := 0; j < g.evaluators; j++ {
				evaluator := fmt.Sprintf("Judge %d", j+1)
				scores := make(model.Scores, len(g.criteria))
				for _, cr := range g.criteria {
					scores[cr.Key] = jitter(rng, base)
				}
				f.Evaluations = append(f.Evaluations, model.Evaluation{
					ID:           stableID("evaluation", org.ID, company.Name, evaluator),
					Evaluator:    evaluator,
					Company:      company.Name,
					Organization: org.Name,
					EventID:      org.ID,
					Scores:       scores,
					SubmittedAt:  at.Format(time.RFC3339),
				})
				at = at.Add(time.Minute)
			}
		}
	}
	return f
}

func companyName(i int) string {
	word := companyWords[i%len(companyWords)]
	suffix := companySuffixes[(i/len(companyWords))%len(companySuffixes)]
	name := word + " " + suffix
	if round := i / (len(companyWords) * len(companySuffixes)); round > 0 {
		name = fmt.Sprintf("%s %d", name, round+1)
	}
	return name
}

// jitter spreads a score up to 1.5 around base, clamped to 0..10 and
// rounded to halves.
func jitter(rng *rand.Rand, base float64) float64 {
	v := base + (rng.Float64()*3 - 1.5)
	v = math.Max(0, math.Min(10, v))
	return math.Round(v*2) / 2
}

func stableID(parts ...string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(strings.Join(parts, "/"))).String()
}
