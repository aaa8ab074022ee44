package service

import (
	"context"
	"sort"
	"strings"

	"fpc-portal/internal/model"
)

type DistrictSource interface {
	Districts(ctx context.Context) ([]model.District, error)
}

type DistrictService struct{}

func NewDistrictService() *DistrictService {
	return &DistrictService{}
}

// ByState loads the district reference grouped by state.
func (s *DistrictService) ByState(ctx context.Context, src DistrictSource) ([]model.StateDistricts, error) {
	districts, err := src.Districts(ctx)
	if err != nil {
		return []model.StateDistricts{}, err
	}
	return GroupDistricts(districts), nil
}

// GroupDistricts groups by state, both levels sorted by name. Blank names are
// dropped and duplicates collapsed.
func GroupDistricts(districts []model.District) []model.StateDistricts {
	byState := make(map[string]map[string]struct{})
	for _, d := range districts {
		state := strings.TrimSpace(d.State)
		name := strings.TrimSpace(d.Name)
		if state == "" || name == "" {
			continue
		}
		if byState[state] == nil {
			byState[state] = make(map[string]struct{})
		}
		byState[state][name] = struct{}{}
	}

	out := make([]model.StateDistricts, 0, len(byState))
	for state, names := range byState {
		group := model.StateDistricts{State: state, Districts: make([]string, 0, len(names))}
		for name := range names {
			group.Districts = append(group.Districts, name)
		}
		sort.Strings(group.Districts)
		out = append(out, group)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].State < out[j].State })
	return out
}
