package service

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"fpc-portal/internal/model"
	"fpc-portal/pkg/apierror"
)

// DashboardSource is the upstream surface the dashboard reads.
type DashboardSource interface {
	Stat(ctx context.Context, key string) (int64, error)
	AnnualStats(ctx context.Context) ([]model.AnnualStat, error)
}

type statDef struct {
	key   string
	label string
}

var dashboardStats = []statDef{
	{key: "total_fpos", label: "Total FPOs"},
	{key: "approved_fpos", label: "Approved FPOs"},
	{key: "pending_fpos", label: "Pending FPOs"},
	{key: "total_members", label: "Total Members"},
}

type DashboardService struct{}

func NewDashboardService() *DashboardService {
	return &DashboardService{}
}

// Load fetches every headline statistic and the annual table concurrently.
// Each fetch fails on its own: a failed statistic renders as 0 and a failed
// table as empty, each with a notice. Load itself never fails.
func (s *DashboardService) Load(ctx context.Context, src DashboardSource) model.Dashboard {
	dash := model.Dashboard{
		Cards:       make([]model.StatCard, len(dashboardStats)),
		AnnualStats: []model.AnnualStat{},
	}

	// One slot per fetch keeps notices in card order whatever finishes first.
	notices := make([]string, len(dashboardStats)+1)
	rejected := make([]bool, len(dashboardStats)+1)

	// A plain Group: one failure must not cancel its siblings.
	var g errgroup.Group

	for i, def := range dashboardStats {
		dash.Cards[i] = model.StatCard{Key: def.key, Label: def.label}
		g.Go(func() error {
			value, err := src.Stat(ctx, def.key)
			if err != nil {
				slog.Warn("dashboard statistic unavailable", "stat", def.key, "error", err)
				rejected[i] = apierror.IsKind(err, apierror.KindAuthentication)
				notices[i] = fmt.Sprintf("%s could not be loaded: %s", def.label, apierror.UserMessage(err))
				return nil
			}
			dash.Cards[i].Value = value
			return nil
		})
	}

	g.Go(func() error {
		stats, err := src.AnnualStats(ctx)
		if err != nil {
			slog.Warn("annual statistics unavailable", "error", err)
			rejected[len(dashboardStats)] = apierror.IsKind(err, apierror.KindAuthentication)
			notices[len(dashboardStats)] = "Annual agri-business statistics could not be loaded: " + apierror.UserMessage(err)
			return nil
		}
		if stats != nil {
			dash.AnnualStats = stats
		}
		return nil
	})

	_ = g.Wait()

	for i, n := range notices {
		if n != "" {
			dash.Notices = append(dash.Notices, n)
		}
		dash.Unauthorized = dash.Unauthorized || rejected[i]
	}
	return dash
}
