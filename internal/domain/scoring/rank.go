package scoring

import (
	"sort"

	"github.com/okian/scoreboard/internal/domain/model"
)

// RankedCompany is a CompanyAggregate with its position in a ranking.
type RankedCompany struct {
	Rank int `json:"rank"`
	CompanyAggregate
}

// Rank orders aggs by state and numbers them 1..N by position. Equal metrics
// keep their input order and still receive distinct ranks. aggs is not modified.
func Rank(aggs []CompanyAggregate, state SortState) []RankedCompany {
	sorted := make([]CompanyAggregate, len(aggs))
	copy(sorted, aggs)

	key := state.Key
	if state.Direction == Ascending {
		sort.SliceStable(sorted, func(i, j int) bool {
			return Metric(sorted[i], key) < Metric(sorted[j], key)
		})
	} else {
		sort.SliceStable(sorted, func(i, j int) bool {
			return Metric(sorted[i], key) > Metric(sorted[j], key)
		})
	}

	out := make([]RankedCompany, len(sorted))
	for i, a := range sorted {
		out[i] = RankedCompany{Rank: i + 1, CompanyAggregate: a}
	}
	return out
}

// RankRecords aggregates records and ranks the result.
func RankRecords(records []model.Evaluation, state SortState) []RankedCompany {
	return Rank(Aggregate(records), state)
}
