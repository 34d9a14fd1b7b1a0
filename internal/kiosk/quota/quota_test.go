package quota_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fitaccess/kiosk/internal/kiosk/quota"
	"github.com/fitaccess/kiosk/internal/kiosk/store/memory"
	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestWeekOf_MidWeek(t *testing.T) {
	// Wednesday 2026-03-04.
	now := time.Date(2026, 3, 4, 15, 45, 0, 0, time.Local)

	win := quota.WeekOf(now)

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local), win.Start)
	assert.Equal(t, time.Date(2026, 3, 9, 0, 0, 0, 0, time.Local), win.End)
}

func TestWeekOf_MondayMidnightStartsItsOwnWeek(t *testing.T) {
	monday := time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local)

	win := quota.WeekOf(monday)

	assert.Equal(t, monday, win.Start)
	assert.True(t, win.Contains(monday))
}

func TestWeekOf_SundayBelongsToPrecedingMonday(t *testing.T) {
	sunday := time.Date(2026, 3, 8, 23, 0, 0, 0, time.Local)

	win := quota.WeekOf(sunday)

	assert.Equal(t, time.Date(2026, 3, 2, 0, 0, 0, 0, time.Local), win.Start)
	assert.True(t, win.Contains(sunday))
}

// seedWeek records events on the week's Monday and Wednesday.
func seedWeek(t *testing.T, st *memory.Store, clientID string) quota.Window {
	t.Helper()

	win := quota.WeekOf(time.Date(2026, 3, 4, 12, 0, 0, 0, time.Local))
	stamps := []time.Time{
		win.Start.Add(8 * time.Hour),
		win.Start.AddDate(0, 0, 2).Add(9 * time.Hour),
	}
	for _, ts := range stamps {
		_, _, err := st.InsertDay(context.Background(), types.AttendanceEvent{
			ClientID:   clientID,
			RecordedAt: ts,
			Day:        types.DayOf(ts),
			Source:     types.SourceCode,
		})
		require.NoError(t, err)
	}
	return win
}

func TestAggregateAndListSources_AgreeOnDistinctDays(t *testing.T) {
	st := memory.New()
	win := seedWeek(t, st, "cli-001")
	ctx := context.Background()

	agg, err := quota.AggregateSource{Store: st}.WeeklyCount(ctx, "cli-001", win)
	require.NoError(t, err)

	lst, err := quota.ListSource{Store: st}.WeeklyCount(ctx, "cli-001", win)
	require.NoError(t, err)

	assert.Equal(t, 2, agg, "two distinct days were attended")
	assert.Equal(t, agg, lst, "both strategies must agree")
}

func TestCalculator_UsesAggregateWhenHealthy(t *testing.T) {
	st := memory.New()
	win := seedWeek(t, st, "cli-001")

	calc := quota.NewCalculator(st, discard())

	n, err := calc.WeeklyCount(context.Background(), "cli-001", win)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

type erringSource struct{ err error }

func (s erringSource) WeeklyCount(context.Context, string, quota.Window) (int, error) {
	return 0, s.err
}

type fixedSource struct{ n int }

func (s fixedSource) WeeklyCount(context.Context, string, quota.Window) (int, error) {
	return s.n, nil
}

func TestCalculator_FallsBackWhenAggregateFails(t *testing.T) {
	calc := quota.NewCalculatorWithSources(
		erringSource{err: errors.New("aggregate unavailable")},
		fixedSource{n: 2},
		discard(),
	)

	n, err := calc.WeeklyCount(context.Background(), "cli-001", quota.Window{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestCalculator_BothPathsFailing_SurfacesBothErrors(t *testing.T) {
	primaryErr := errors.New("aggregate unavailable")
	fallbackErr := errors.New("list unavailable")

	calc := quota.NewCalculatorWithSources(
		erringSource{err: primaryErr},
		erringSource{err: fallbackErr},
		discard(),
	)

	_, err := calc.WeeklyCount(context.Background(), "cli-001", quota.Window{})
	require.Error(t, err)
	assert.ErrorIs(t, err, primaryErr)
	assert.ErrorIs(t, err, fallbackErr)
}

func TestCountIgnoresOtherClientsAndOtherWeeks(t *testing.T) {
	st := memory.New()
	win := seedWeek(t, st, "cli-001")
	ctx := context.Background()

	// Another client in the same week.
	other := win.Start.Add(10 * time.Hour)
	_, _, err := st.InsertDay(ctx, types.AttendanceEvent{
		ClientID: "cli-002", RecordedAt: other, Day: types.DayOf(other),
	})
	require.NoError(t, err)

	// Same client, previous week.
	prev := win.Start.AddDate(0, 0, -3)
	_, _, err = st.InsertDay(ctx, types.AttendanceEvent{
		ClientID: "cli-001", RecordedAt: prev, Day: types.DayOf(prev),
	})
	require.NoError(t, err)

	n, err := quota.NewCalculator(st, discard()).WeeklyCount(ctx, "cli-001", win)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
