package housekeeping_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/jrsteele09/nutrition-site/internal/housekeeping"
	"github.com/jrsteele09/nutrition-site/server/loginsession"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNewRejectsBadSchedule(t *testing.T) {
	_, err := housekeeping.New("every now and then", zerolog.Nop())
	require.Error(t, err)
}

func TestRunOnce(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 7, 1, 12, 0, 0, 0, time.UTC)

	sessions := loginsession.NewInMemoryLoginSessionRepo()
	require.NoError(t, sessions.Upsert(ctx, loginsession.Session{ID: "old", ExpiresAt: now.Add(-time.Minute)}))
	require.NoError(t, sessions.Upsert(ctx, loginsession.Session{ID: "live", ExpiresAt: now.Add(time.Hour)}))

	s, err := housekeeping.New("@every 10m", zerolog.Nop(),
		housekeeping.Task{Name: "sessions", Run: func(ctx context.Context) (int, error) {
			return sessions.DeleteExpired(ctx, now)
		}},
		housekeeping.Task{Name: "broken", Run: func(context.Context) (int, error) {
			return 0, errors.New("boom")
		}},
	)
	require.NoError(t, err)

	removed := s.RunOnce(ctx)
	require.Equal(t, map[string]int{"sessions": 1}, removed)

	_, err = sessions.Get(ctx, "live")
	require.NoError(t, err)
	_, err = sessions.Get(ctx, "old")
	require.Error(t, err)
}

func TestStartStop(t *testing.T) {
	var runs atomic.Int32
	s, err := housekeeping.New("@every 1s", zerolog.Nop(), housekeeping.Task{
		Name: "count",
		Run: func(context.Context) (int, error) {
			runs.Add(1)
			return 0, nil
		},
	})
	require.NoError(t, err)

	s.Start()
	s.Start()
	require.Eventually(t, func() bool { return runs.Load() > 0 }, 5*time.Second, 50*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}
