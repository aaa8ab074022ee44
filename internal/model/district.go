package model

type District struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	State string `json:"state"`
}

// StateDistricts is the state/district picker shape: districts grouped by state.
type StateDistricts struct {
	State     string   `json:"state"`
	Districts []string `json:"districts"`
}
