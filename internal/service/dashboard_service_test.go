package service

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"fpc-portal/internal/model"
	"fpc-portal/pkg/apierror"
)

type fakeDashboard struct {
	stats     map[string]int64
	failing   map[string]error
	annual    []model.AnnualStat
	annualErr error
	calls     atomic.Int32
}

func (f *fakeDashboard) Stat(_ context.Context, key string) (int64, error) {
	f.calls.Add(1)
	if err := f.failing[key]; err != nil {
		return 0, err
	}
	return f.stats[key], nil
}

func (f *fakeDashboard) AnnualStats(context.Context) ([]model.AnnualStat, error) {
	f.calls.Add(1)
	return f.annual, f.annualErr
}

func TestDashboardLoadsEveryStatistic(t *testing.T) {
	t.Parallel()

	src := &fakeDashboard{
		stats:  map[string]int64{"total_fpos": 40, "approved_fpos": 31, "pending_fpos": 9, "total_members": 5120},
		annual: []model.AnnualStat{{FinancialYear: "2024-25", TotalTurnover: 1.5e7, RecordCount: 12}},
	}

	dash := NewDashboardService().Load(context.Background(), src)

	require.Equal(t, int32(5), src.calls.Load())
	require.Empty(t, dash.Notices)
	require.Len(t, dash.Cards, 4)
	require.Equal(t, "total_fpos", dash.Cards[0].Key)
	require.Equal(t, int64(40), dash.Cards[0].Value)
	require.Equal(t, int64(5120), dash.Cards[3].Value)
	require.Len(t, dash.AnnualStats, 1)
}

func TestDashboardFailedStatisticRendersZero(t *testing.T) {
	t.Parallel()

	src := &fakeDashboard{
		stats: map[string]int64{"total_fpos": 40, "approved_fpos": 31, "pending_fpos": 9, "total_members": 5120},
		failing: map[string]error{
			"pending_fpos":  apierror.Server("/api/dashboard/{stat}", http.StatusInternalServerError, ""),
			"total_members": apierror.Network("/api/dashboard/{stat}", errors.New("connection refused")),
		},
		annualErr: apierror.Server("/api/dashboard/agri_business_annual_stats", http.StatusInternalServerError, "boom"),
	}

	dash := NewDashboardService().Load(context.Background(), src)

	require.Equal(t, int64(40), dash.Cards[0].Value)
	require.Equal(t, int64(31), dash.Cards[1].Value)
	require.Zero(t, dash.Cards[2].Value)
	require.Zero(t, dash.Cards[3].Value)
	require.NotNil(t, dash.AnnualStats)
	require.Empty(t, dash.AnnualStats)

	require.Equal(t, []string{
		"Pending FPOs could not be loaded: the FPC service answered 500",
		"Total Members could not be loaded: the FPC service could not be reached",
		"Annual agri-business statistics could not be loaded: boom",
	}, dash.Notices)
	require.False(t, dash.Unauthorized)
}

func TestDashboardFlagsRejectedToken(t *testing.T) {
	t.Parallel()

	src := &fakeDashboard{
		stats:   map[string]int64{"total_fpos": 40},
		failing: map[string]error{"approved_fpos": apierror.Authentication("Not authenticated")},
	}

	dash := NewDashboardService().Load(context.Background(), src)

	require.True(t, dash.Unauthorized)
	require.Equal(t, int64(40), dash.Cards[0].Value)

	src = &fakeDashboard{annualErr: apierror.Authentication("Not authenticated")}
	require.True(t, NewDashboardService().Load(context.Background(), src).Unauthorized)
}
