package model

import "sort"

// Criterion is a named evaluation dimension.
type Criterion struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// DefaultCriteria is the criterion set used for seeding and labelling. It is
// configuration, not a schema: records may carry other keys.
func DefaultCriteria() []Criterion {
	return []Criterion{
		{Key: "team", Label: "Team"},
		{Key: "market", Label: "Market Opportunity"},
		{Key: "product", Label: "Product"},
		{Key: "traction", Label: "Traction"},
		{Key: "business_model", Label: "Business Model"},
		{Key: "financials", Label: "Financials"},
	}
}

// Catalog orders and labels criterion keys. Known keys keep their configured
// order; unknown keys follow in lexicographic order and are labelled by key.
type Catalog struct {
	known []Criterion
	index map[string]int
}

// NewCatalog builds a Catalog from a configured criterion list. Duplicate keys
// keep their first position.
func NewCatalog(criteria []Criterion) *Catalog {
	c := &Catalog{index: make(map[string]int, len(criteria))}
	for _, cr := range criteria {
		if cr.Key == "" {
			continue
		}
		if _, dup := c.index[cr.Key]; dup {
			continue
		}
		c.index[cr.Key] = len(c.known)
		c.known = append(c.known, cr)
	}
	return c
}

// Label returns the display label for key.
func (c *Catalog) Label(key string) string {
	if i, ok := c.index[key]; ok && c.known[i].Label != "" {
		return c.known[i].Label
	}
	return key
}

// Known returns the configured criteria.
func (c *Catalog) Known() []Criterion {
	out := make([]Criterion, len(c.known))
	copy(out, c.known)
	return out
}

// Order returns keys (deduplicated) in display order.
func (c *Catalog) Order(keys []string) []Criterion {
	seen := make(map[string]struct{}, len(keys))
	var known, unknown []string
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		if _, ok := c.index[k]; ok {
			known = append(known, k)
		} else {
			unknown = append(unknown, k)
		}
	}
	sort.Slice(known, func(i, j int) bool { return c.index[known[i]] < c.index[known[j]] })
	sort.Strings(unknown)

	out := make([]Criterion, 0, len(known)+len(unknown))
	for _, k := range append(known, unknown...) {
		out = append(out, Criterion{Key: k, Label: c.Label(k)})
	}
	return out
}
