package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"fpc-portal/internal/event"
	"fpc-portal/internal/model"
	"fpc-portal/internal/service"
	"fpc-portal/internal/session"
)

func TestRunReleasesBackendWhenPurgeScheduleIsInvalid(t *testing.T) {
	t.Parallel()

	bus := event.NewBus()
	auditStore := service.NewMemoryAuditStore(10)
	closed := 0

	a := &App{
		server:       &http.Server{Addr: "127.0.0.1:0"},
		janitor:      session.NewJanitor(session.NewMemoryStorage(), time.Hour, nil),
		audit:        service.NewAuditService(auditStore, bus),
		cleanupFuncs: []func(){func() { closed++ }},
	}

	err := a.Run("every now and then")
	require.Error(t, err)
	require.Contains(t, err.Error(), "schedule session purge")
	require.Equal(t, 1, closed)

	bus.Publish(event.New(event.TypeSessionLogin, "rm@fpc.test", nil))
	require.Never(t, func() bool {
		entries, _ := auditStore.Recent(context.Background(), model.AuditQuery{})
		return len(entries) > 0
	}, 100*time.Millisecond, 10*time.Millisecond)
}
