// Package scoring aggregates evaluation records into per-company averages,
// ranks companies and builds single-company profiles. Every function here is a
// pure function of its input.
package scoring

import (
	"math"
	"sort"

	"github.com/okian/scoreboard/internal/domain/model"
)

// CompanyAggregate is the per-company summary of a record collection.
type CompanyAggregate struct {
	Company  string             `json:"company"`
	Averages map[string]float64 `json:"averages"`
	Overall  float64            `json:"overall"`
	Count    int                `json:"count"`
}

// accumulator collects the running sums of one company. The record count is
// the single denominator for every criterion, so a criterion missing on a
// record still lowers that criterion's average.
type accumulator struct {
	company   string
	count     int
	sums      map[string]float64
	firstKeys []string
}

func (a *accumulator) add(e model.Evaluation) {
	if a.count == 0 {
		a.firstKeys = sortedKeys(e.Scores)
	}
	a.count++
	for k, v := range e.Scores {
		a.sums[k] += v
	}
}

// average returns sum/count for key, or 0 when nothing can be divided.
func (a *accumulator) average(key string) float64 {
	if a.count == 0 {
		return 0
	}
	return finite(a.sums[key] / float64(a.count))
}

// aggregate restricts the exposed criteria to those of the first record.
func (a *accumulator) aggregate() CompanyAggregate {
	out := CompanyAggregate{
		Company:  a.company,
		Averages: make(map[string]float64, len(a.firstKeys)),
		Count:    a.count,
	}
	var total float64
	for _, k := range a.firstKeys {
		avg := a.average(k)
		out.Averages[k] = avg
		total += avg
	}
	if len(a.firstKeys) > 0 {
		out.Overall = finite(total / float64(len(a.firstKeys)))
	}
	return out
}

// accumulate groups records by trimmed company name, in order of first appearance.
func accumulate(records []model.Evaluation) []*accumulator {
	index := make(map[string]*accumulator)
	var order []*accumulator
	for _, r := range records {
		name := r.CompanyName()
		acc, ok := index[name]
		if !ok {
			acc = &accumulator{company: name, sums: make(map[string]float64)}
			index[name] = acc
			order = append(order, acc)
		}
		acc.add(r)
	}
	return order
}

// Aggregate reduces records to one CompanyAggregate per company, ordered by
// each company's first appearance in records. An empty input yields an empty,
// non-nil slice.
func Aggregate(records []model.Evaluation) []CompanyAggregate {
	accs := accumulate(records)
	out := make([]CompanyAggregate, 0, len(accs))
	for _, acc := range accs {
		out = append(out, acc.aggregate())
	}
	return out
}

// AggregateByCompany is Aggregate keyed by trimmed company name.
func AggregateByCompany(records []model.Evaluation) map[string]CompanyAggregate {
	aggs := Aggregate(records)
	out := make(map[string]CompanyAggregate, len(aggs))
	for _, a := range aggs {
		out[a.Company] = a
	}
	return out
}

// CriteriaKeys returns the union of criterion keys exposed by aggs.
func CriteriaKeys(aggs []CompanyAggregate) []string {
	seen := make(map[string]struct{})
	var keys []string
	for _, a := range aggs {
		for k := range a.Averages {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func sortedKeys(s model.Scores) []string {
	keys := s.Keys()
	sort.Strings(keys)
	return keys
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
