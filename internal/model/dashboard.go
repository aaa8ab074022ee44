package model

// StatCard is one headline number on the dashboard.
type StatCard struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Value int64  `json:"value"`
}

type Dashboard struct {
	Cards       []StatCard   `json:"cards"`
	AnnualStats []AnnualStat `json:"annual_stats"`
	Notices     []string     `json:"notices,omitempty"`
	// Unauthorized is set when the FPC API rejected the bearer token.
	Unauthorized bool `json:"-"`
}
