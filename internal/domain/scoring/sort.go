package scoring

import (
	"fmt"
	"strings"
)

// SortKey selects the metric to rank by: Overall or a criterion key.
type SortKey string

// Overall ranks by the overall average.
const Overall SortKey = "overall"

// Direction is the sort direction.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection parses "asc" or "desc" (case-insensitive). Empty means Descending.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(Descending):
		return Descending, nil
	case string(Ascending):
		return Ascending, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidDirection, s)
	}
}

// Flip returns the opposite direction.
func (d Direction) Flip() Direction {
	if d == Ascending {
		return Descending
	}
	return Ascending
}

// SortState is the current sort key and direction of a table.
type SortState struct {
	Key       SortKey   `json:"key"`
	Direction Direction `json:"direction"`
}

// DefaultSortState ranks by overall, best first.
func DefaultSortState() SortState {
	return SortState{Key: Overall, Direction: Descending}
}

// Toggle selects key. Selecting the current key flips the direction; a new
// key starts descending.
func (s SortState) Toggle(key SortKey) SortState {
	if key == "" {
		key = Overall
	}
	if key == s.Key {
		return SortState{Key: key, Direction: s.Direction.Flip()}
	}
	return SortState{Key: key, Direction: Descending}
}

// Metric returns the value a CompanyAggregate is ranked by under key.
// A criterion the company lacks counts as 0.
func Metric(a CompanyAggregate, key SortKey) float64 {
	if key == Overall || key == "" {
		return a.Overall
	}
	return a.Averages[string(key)]
}
