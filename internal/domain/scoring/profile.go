package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/okian/scoreboard/internal/domain/model"
)

// Profile is one company's averages together with its rank among every
// company in the same record collection.
type Profile struct {
	CompanyAggregate
	// Ranks maps each criterion of Averages to a 1-based rank.
	Ranks map[string]int `json:"ranks"`
	// TotalCompanies is the ranking denominator.
	TotalCompanies int `json:"total_companies"`
}

// ComputeProfile builds the profile of company from records. Company names are
// compared after trimming. Every other company takes part in every criterion
// ranking, scoring 0 where it lacks the criterion. ErrNoData is returned when
// no record belongs to company.
func ComputeProfile(records []model.Evaluation, company string) (Profile, error) {
	target := strings.TrimSpace(company)
	accs := accumulate(records)

	pos := -1
	for i, acc := range accs {
		if acc.company == target {
			pos = i
			break
		}
	}
	if pos < 0 {
		return Profile{}, fmt.Errorf("%w: %q", ErrNoData, target)
	}

	self := accs[pos]
	p := Profile{
		CompanyAggregate: self.aggregate(),
		Ranks:            make(map[string]int, len(self.firstKeys)),
		TotalCompanies:   len(accs),
	}

	order := make([]int, len(accs))
	for _, key := range self.firstKeys {
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(i, j int) bool {
			return accs[order[i]].average(key) > accs[order[j]].average(key)
		})
		for rank, idx := range order {
			if idx == pos {
				p.Ranks[key] = rank + 1
				break
			}
		}
	}
	return p, nil
}
