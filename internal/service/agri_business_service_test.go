package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"fpc-portal/internal/model"
	"fpc-portal/pkg/apierror"
)

type fakeAgri struct {
	records []model.AgriBusinessRecord
	created []model.AgriBusinessRecord
}

func (f *fakeAgri) ListAgriBusiness(context.Context) ([]model.AgriBusinessRecord, error) {
	return f.records, nil
}

func (f *fakeAgri) CreateAgriBusiness(_ context.Context, r model.AgriBusinessRecord) (model.AgriBusinessRecord, error) {
	f.created = append(f.created, r)
	r.ID = 9
	return r, nil
}

func TestAgriBusinessListFiltersByYear(t *testing.T) {
	t.Parallel()

	src := &fakeAgri{records: []model.AgriBusinessRecord{
		{ID: 1, FinancialYear: "2023-24", Commodity: "Onion"},
		{ID: 2, FinancialYear: "2024-25", Commodity: "Grapes"},
		{ID: 3, FinancialYear: "2024-25", Commodity: "Tomato"},
	}}
	svc := NewAgriBusinessService(nil)

	all, years, err := svc.List(context.Background(), src, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"2024-25", "2023-24"}, years)

	filtered, _, err := svc.List(context.Background(), src, "2024-25")
	require.NoError(t, err)
	require.Len(t, filtered, 2)
}

func TestValidateTurnover(t *testing.T) {
	t.Parallel()

	valid := model.AgriBusinessRecord{FPOID: 1, FinancialYear: "2024-25", Commodity: "Onion", Quantity: 120, Unit: "quintal", Turnover: 250000}
	require.Empty(t, ValidateTurnover(valid))

	centuryTurn := valid
	centuryTurn.FinancialYear = "2099-00"
	require.Empty(t, ValidateTurnover(centuryTurn))

	bad := model.AgriBusinessRecord{FinancialYear: "2024-26", Quantity: 0, Turnover: -1}
	fields := ValidateTurnover(bad)
	for _, key := range []string{"fpo_id", "financial_year", "commodity", "quantity", "unit", "turnover"} {
		require.Contains(t, fields, key)
	}
}

func TestAgriBusinessCreate(t *testing.T) {
	t.Parallel()

	src := &fakeAgri{}
	svc := NewAgriBusinessService(nil)

	created, err := svc.Create(context.Background(), src, "ab@fpc.test", model.AgriBusinessRecord{
		FPOID: 4, FinancialYear: " 2024-25 ", Commodity: " Soybean ", Quantity: 40, Unit: "tonne",
	})
	require.NoError(t, err)
	require.Equal(t, int64(9), created.ID)
	require.Equal(t, "Soybean", src.created[0].Commodity)

	_, err = svc.Create(context.Background(), src, "ab@fpc.test", model.AgriBusinessRecord{})
	require.True(t, apierror.IsKind(err, apierror.KindValidation))
	require.Len(t, src.created, 1)
}
