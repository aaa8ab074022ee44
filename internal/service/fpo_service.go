package service

import (
	"context"
	"log/slog"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"fpc-portal/internal/event"
	"fpc-portal/internal/model"
	"fpc-portal/pkg/apierror"
)

// FPOSource is the upstream surface for producer organisations.
type FPOSource interface {
	ListFPOs(ctx context.Context) ([]model.FPO, error)
	PendingFPOs(ctx context.Context) ([]model.FPO, error)
	GetFPO(ctx context.Context, id int64) (model.FPO, error)
	CreateFPO(ctx context.Context, reg model.FPORegistration) (model.FPO, error)
	Approve(ctx context.Context, decision model.ApprovalDecision) error
	Reject(ctx context.Context, decision model.ApprovalDecision) error
}

// Registration wizard steps.
const (
	StepOrganization = 1
	StepLocation     = 2
	StepBoard        = 3
)

const maxCommentLength = 1000

var phonePattern = regexp.MustCompile(`^\+?[0-9]{10,13}$`)

type FPOService struct {
	events event.Bus
	now    func() time.Time
}

func NewFPOService(events event.Bus) *FPOService {
	return &FPOService{events: events, now: time.Now}
}

// Registry lists every FPO filtered by query.
func (s *FPOService) Registry(ctx context.Context, src FPOSource, query model.FPOQuery) ([]model.FPO, error) {
	items, err := src.ListFPOs(ctx)
	if err != nil {
		return []model.FPO{}, err
	}
	return FilterFPOs(items, query), nil
}

// Pending lists FPOs awaiting a decision filtered by query.
func (s *FPOService) Pending(ctx context.Context, src FPOSource, query model.FPOQuery) ([]model.FPO, error) {
	items, err := src.PendingFPOs(ctx)
	if err != nil {
		return []model.FPO{}, err
	}
	return FilterFPOs(items, query), nil
}

// FilterFPOs applies the search box and status filter. Search matches name,
// registration number, district and state, case-insensitively. A status of
// "" or "all" keeps every status. The input slice is not modified.
func FilterFPOs(items []model.FPO, query model.FPOQuery) []model.FPO {
	search := strings.ToLower(strings.TrimSpace(query.Search))
	status := strings.ToLower(strings.TrimSpace(query.Status))
	if status == "all" {
		status = ""
	}

	out := make([]model.FPO, 0, len(items))
	for _, item := range items {
		if status != "" && strings.ToLower(item.Status) != status {
			continue
		}
		if search != "" && !matchesFPO(item, search) {
			continue
		}
		out = append(out, item)
	}
	return out
}

func matchesFPO(item model.FPO, needle string) bool {
	for _, field := range []string{item.Name, item.RegistrationNumber, item.District, item.State} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}

func (s *FPOService) Get(ctx context.Context, src FPOSource, id int64) (model.FPO, error) {
	if id <= 0 {
		return model.FPO{}, model.ErrFPONotFound
	}
	return src.GetFPO(ctx, id)
}

// Approve records an approval. The comment is optional.
func (s *FPOService) Approve(ctx context.Context, src FPOSource, actor string, decision model.ApprovalDecision) error {
	decision.Comment = strings.TrimSpace(decision.Comment)
	if fields := validateDecision(decision, false); len(fields) > 0 {
		return apierror.Validation(fields)
	}

	if err := src.Approve(ctx, decision); err != nil {
		return err
	}

	s.publish(event.TypeFPOApproved, actor, map[string]any{"fpo_id": decision.FPOID, "comment": decision.Comment})
	slog.Info("fpo approved", "fpo_id", decision.FPOID, "actor", actor)
	return nil
}

// Reject records a rejection. A comment explaining it is required.
func (s *FPOService) Reject(ctx context.Context, src FPOSource, actor string, decision model.ApprovalDecision) error {
	decision.Comment = strings.TrimSpace(decision.Comment)
	if fields := validateDecision(decision, true); len(fields) > 0 {
		return apierror.Validation(fields)
	}

	if err := src.Reject(ctx, decision); err != nil {
		return err
	}

	s.publish(event.TypeFPORejected, actor, map[string]any{"fpo_id": decision.FPOID, "comment": decision.Comment})
	slog.Info("fpo rejected", "fpo_id", decision.FPOID, "actor", actor)
	return nil
}

func validateDecision(decision model.ApprovalDecision, commentRequired bool) map[string]string {
	fields := map[string]string{}
	if decision.FPOID <= 0 {
		fields["fpo_id"] = "Unknown FPO"
	}
	switch {
	case commentRequired && decision.Comment == "":
		fields["comment"] = "A comment is required to reject"
	case utf8.RuneCountInString(decision.Comment) > maxCommentLength:
		fields["comment"] = "Comment must be at most 1000 characters"
	}
	return fields
}

// ValidateStep checks one wizard step. districts is the state/district
// reference; when it is empty the district is not cross-checked.
func (s *FPOService) ValidateStep(step int, reg model.FPORegistration, districts []model.StateDistricts) map[string]string {
	fields := map[string]string{}

	switch step {
	case StepOrganization:
		s.validateOrganization(reg, fields)
	case StepLocation:
		validateLocation(reg, districts, fields)
	case StepBoard:
		validateBoard(reg.BoardMembers, fields)
	default:
		fields["step"] = "Unknown step"
	}

	return fields
}

func (s *FPOService) validateOrganization(reg model.FPORegistration, fields map[string]string) {
	if strings.TrimSpace(reg.Name) == "" {
		fields["name"] = "Name is required"
	}
	if strings.TrimSpace(reg.RegistrationNumber) == "" {
		fields["registration_number"] = "Registration number is required"
	}

	if date := strings.TrimSpace(reg.RegistrationDate); date == "" {
		fields["registration_date"] = "Registration date is required"
	} else if parsed, err := time.Parse(time.DateOnly, date); err != nil {
		fields["registration_date"] = "Use the YYYY-MM-DD format"
	} else if parsed.After(s.now()) {
		fields["registration_date"] = "Registration date cannot be in the future"
	}

	if email := strings.TrimSpace(reg.ContactEmail); email != "" {
		if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
			fields["contact_email"] = "Enter a valid email address"
		}
	}
	if phone := strings.TrimSpace(reg.ContactPhone); phone != "" && !phonePattern.MatchString(phone) {
		fields["contact_phone"] = "Enter a 10 to 13 digit phone number"
	}

	if reg.MemberCount <= 0 {
		fields["member_count"] = "Member count must be greater than zero"
	}
}

func validateLocation(reg model.FPORegistration, districts []model.StateDistricts, fields map[string]string) {
	state := strings.TrimSpace(reg.State)
	district := strings.TrimSpace(reg.District)

	if state == "" {
		fields["state"] = "State is required"
	}
	if district == "" {
		fields["district"] = "District is required"
	}
	if state == "" || district == "" || len(districts) == 0 {
		return
	}

	for _, group := range districts {
		if !strings.EqualFold(group.State, state) {
			continue
		}
		for _, name := range group.Districts {
			if strings.EqualFold(name, district) {
				return
			}
		}
		fields["district"] = "District does not belong to the selected state"
		return
	}
	fields["state"] = "Unknown state"
}

func validateBoard(members []model.BoardMember, fields map[string]string) {
	if len(members) == 0 {
		fields["board_members"] = "Add at least one director"
		return
	}

	for i, member := range members {
		if strings.TrimSpace(member.Name) == "" {
			fields[boardField(i, "name")] = "Name is required"
		}
		if strings.TrimSpace(member.Designation) == "" {
			fields[boardField(i, "designation")] = "Designation is required"
		}
		if phone := strings.TrimSpace(member.Phone); phone != "" && !phonePattern.MatchString(phone) {
			fields[boardField(i, "phone")] = "Enter a 10 to 13 digit phone number"
		}
	}
}

func boardField(index int, name string) string {
	return "board_members." + strconv.Itoa(index) + "." + name
}

// Register validates every step and submits the registration upstream.
func (s *FPOService) Register(ctx context.Context, src FPOSource, actor string, reg model.FPORegistration, districts []model.StateDistricts) (model.FPO, error) {
	reg = normalizeRegistration(reg)

	fields := map[string]string{}
	for _, step := range []int{StepOrganization, StepLocation, StepBoard} {
		for k, v := range s.ValidateStep(step, reg, districts) {
			fields[k] = v
		}
	}
	if len(fields) > 0 {
		return model.FPO{}, apierror.Validation(fields)
	}

	created, err := src.CreateFPO(ctx, reg)
	if err != nil {
		return model.FPO{}, err
	}

	s.publish(event.TypeFPORegistered, actor, map[string]any{"fpo_id": created.ID, "name": reg.Name})
	slog.Info("fpo registered", "fpo_id", created.ID, "name", reg.Name, "actor", actor)
	return created, nil
}

func normalizeRegistration(reg model.FPORegistration) model.FPORegistration {
	reg.Name = strings.TrimSpace(reg.Name)
	reg.RegistrationNumber = strings.TrimSpace(reg.RegistrationNumber)
	reg.RegistrationDate = strings.TrimSpace(reg.RegistrationDate)
	reg.ContactEmail = strings.TrimSpace(reg.ContactEmail)
	reg.ContactPhone = strings.TrimSpace(reg.ContactPhone)
	reg.State = strings.TrimSpace(reg.State)
	reg.District = strings.TrimSpace(reg.District)
	reg.Block = strings.TrimSpace(reg.Block)
	reg.Village = strings.TrimSpace(reg.Village)

	members := make([]model.BoardMember, 0, len(reg.BoardMembers))
	for _, m := range reg.BoardMembers {
		m.Name = strings.TrimSpace(m.Name)
		m.Designation = strings.TrimSpace(m.Designation)
		m.Phone = strings.TrimSpace(m.Phone)
		m.DIN = strings.TrimSpace(m.DIN)
		members = append(members, m)
	}
	reg.BoardMembers = members
	return reg
}

func (s *FPOService) publish(kind event.Type, actor string, payload map[string]any) {
	if s.events == nil {
		return
	}
	s.events.Publish(event.New(kind, actor, payload))
}
