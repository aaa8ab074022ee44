package service

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"fpc-portal/internal/event"
	"fpc-portal/internal/model"
	"fpc-portal/pkg/apierror"
)

type AgriBusinessSource interface {
	ListAgriBusiness(ctx context.Context) ([]model.AgriBusinessRecord, error)
	CreateAgriBusiness(ctx context.Context, record model.AgriBusinessRecord) (model.AgriBusinessRecord, error)
}

// Financial years are written 2024-25.
var financialYearPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

type AgriBusinessService struct {
	events event.Bus
}

func NewAgriBusinessService(events event.Bus) *AgriBusinessService {
	return &AgriBusinessService{events: events}
}

// List returns the records for financialYear, or all records when it is
// empty, together with every financial year present, newest first.
func (s *AgriBusinessService) List(ctx context.Context, src AgriBusinessSource, financialYear string) ([]model.AgriBusinessRecord, []string, error) {
	records, err := src.ListAgriBusiness(ctx)
	if err != nil {
		return []model.AgriBusinessRecord{}, []string{}, err
	}

	years := FinancialYears(records)
	financialYear = strings.TrimSpace(financialYear)
	if financialYear == "" {
		return records, years, nil
	}

	out := make([]model.AgriBusinessRecord, 0, len(records))
	for _, r := range records {
		if r.FinancialYear == financialYear {
			out = append(out, r)
		}
	}
	return out, years, nil
}

func FinancialYears(records []model.AgriBusinessRecord) []string {
	seen := make(map[string]struct{}, len(records))
	years := make([]string, 0)
	for _, r := range records {
		fy := strings.TrimSpace(r.FinancialYear)
		if fy == "" {
			continue
		}
		if _, ok := seen[fy]; ok {
			continue
		}
		seen[fy] = struct{}{}
		years = append(years, fy)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(years)))
	return years
}

// Create validates record and submits it upstream.
func (s *AgriBusinessService) Create(ctx context.Context, src AgriBusinessSource, actor string, record model.AgriBusinessRecord) (model.AgriBusinessRecord, error) {
	record.FinancialYear = strings.TrimSpace(record.FinancialYear)
	record.Commodity = strings.TrimSpace(record.Commodity)
	record.Unit = strings.TrimSpace(record.Unit)

	if fields := ValidateTurnover(record); len(fields) > 0 {
		return model.AgriBusinessRecord{}, apierror.Validation(fields)
	}

	created, err := src.CreateAgriBusiness(ctx, record)
	if err != nil {
		return model.AgriBusinessRecord{}, err
	}

	if s.events != nil {
		s.events.Publish(event.New(event.TypeTurnoverRecorded, actor, map[string]any{
			"fpo_id":         record.FPOID,
			"financial_year": record.FinancialYear,
			"commodity":      record.Commodity,
		}))
	}
	slog.Info("turnover recorded", "fpo_id", record.FPOID, "financial_year", record.FinancialYear, "actor", actor)
	return created, nil
}

func ValidateTurnover(record model.AgriBusinessRecord) map[string]string {
	fields := map[string]string{}

	if record.FPOID <= 0 {
		fields["fpo_id"] = "FPO is required"
	}
	if !validFinancialYear(record.FinancialYear) {
		fields["financial_year"] = "Use the 2024-25 format"
	}
	if record.Commodity == "" {
		fields["commodity"] = "Commodity is required"
	}
	if record.Quantity <= 0 {
		fields["quantity"] = "Quantity must be greater than zero"
	}
	if record.Unit == "" {
		fields["unit"] = "Unit is required"
	}
	if record.Turnover < 0 {
		fields["turnover"] = "Turnover cannot be negative"
	}

	return fields
}

// validFinancialYear accepts YYYY-YY where YY is the year after YYYY.
func validFinancialYear(fy string) bool {
	m := financialYearPattern.FindStringSubmatch(fy)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return (start+1)%100 == end
}
