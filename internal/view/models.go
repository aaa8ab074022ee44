package view

import "fpc-portal/internal/model"

type LoginData struct {
	Email string
}

type FPOListData struct {
	Heading   string
	Action    string
	Items     []model.FPO
	Query     model.FPOQuery
	Statuses  []string
	CanDecide bool
}

type FPODetailData struct {
	FPO       model.FPO
	CanDecide bool
}

type RegisterData struct {
	Step   int
	Reg    model.FPORegistration
	States []model.StateDistricts
	// BoardRows always holds at least one row for the form.
	BoardRows []model.BoardMember
}

// DistrictsFor lists the districts of the registration's chosen state.
func (d RegisterData) DistrictsFor() []string {
	for _, s := range d.States {
		if s.State == d.Reg.State {
			return s.Districts
		}
	}
	return nil
}

type AgriListData struct {
	Records   []model.AgriBusinessRecord
	Years     []string
	Selected  string
	CanCreate bool
}

type AgriNewData struct {
	Record model.AgriBusinessRecord
	FPOs   []model.FPO
}

type DistrictsData struct {
	Groups []model.StateDistricts
}

type ErrorData struct {
	Status  int
	Heading string
	Message string
}
