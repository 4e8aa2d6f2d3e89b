// Package types contains the view types served by the API.
package types

// LeaderboardRow is one ranked company.
type LeaderboardRow struct {
	Rank     int                `json:"rank"`
	Company  string             `json:"company"`
	Overall  float64            `json:"overall"`
	Averages map[string]float64 `json:"averages"`
	Count    int                `json:"count"`
}

// Criterion is a criterion key with its display label.
type Criterion struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Leaderboard is the ranked table for one organization.
type Leaderboard struct {
	Organization string           `json:"organization"`
	Sort         string           `json:"sort"`
	Direction    string           `json:"dir"`
	Criteria     []Criterion      `json:"criteria"`
	Rows         []LeaderboardRow `json:"rows"`
}

// CriterionScore is one criterion of a company profile.
type CriterionScore struct {
	Key     string  `json:"key"`
	Label   string  `json:"label"`
	Average float64 `json:"average"`
	Rank    int     `json:"rank"`
}

// ProfileView is the detail view of one company.
type ProfileView struct {
	Organization   string             `json:"organization"`
	Company        string             `json:"company"`
	Overall        float64            `json:"overall"`
	Count          int                `json:"count"`
	TotalCompanies int                `json:"total_companies"`
	Averages       map[string]float64 `json:"averages"`
	Ranks          map[string]int     `json:"ranks"`
	Criteria       []CriterionScore   `json:"criteria"`
}
