// Package quota computes a client's distinct-day attendance count for the
// current week.  The count is derived per decision and never cached: a
// stale count could wrongly deny an alternate-day member.
package quota

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/fitaccess/kiosk/internal/kiosk/store"
)

// Source produces the weekly distinct-day count for one client.
type Source interface {
	WeeklyCount(ctx context.Context, clientID string, win Window) (int, error)
}

// AggregateSource asks the store to count distinct days in one query.
type AggregateSource struct {
	Store store.AttendanceStore
}

func (s AggregateSource) WeeklyCount(ctx context.Context, clientID string, win Window) (int, error) {
	return s.Store.CountDistinctDays(ctx, clientID, win.Start, win.End)
}

// ListSource fetches every event day in the window and counts distinct
// day keys locally.  Same semantics as AggregateSource, distinct days
// rather than raw events, just computed on this side of the wire.
type ListSource struct {
	Store store.AttendanceStore
}

func (s ListSource) WeeklyCount(ctx context.Context, clientID string, win Window) (int, error) {
	days, err := s.Store.ListDays(ctx, clientID, win.Start, win.End)
	if err != nil {
		return 0, err
	}

	distinct := make(map[string]struct{}, len(days))
	for _, d := range days {
		distinct[d] = struct{}{}
	}
	return len(distinct), nil
}

// Calculator tries the aggregate query first and falls back to the local
// count when it fails.
type Calculator struct {
	primary  Source
	fallback Source
	logger   *slog.Logger
}

func NewCalculator(st store.AttendanceStore, logger *slog.Logger) *Calculator {
	return &Calculator{
		primary:  AggregateSource{Store: st},
		fallback: ListSource{Store: st},
		logger:   logger,
	}
}

// NewCalculatorWithSources is the test seam for injecting failing sources.
func NewCalculatorWithSources(primary, fallback Source, logger *slog.Logger) *Calculator {
	return &Calculator{primary: primary, fallback: fallback, logger: logger}
}

func (c *Calculator) WeeklyCount(ctx context.Context, clientID string, win Window) (int, error) {
	n, err := c.primary.WeeklyCount(ctx, clientID, win)
	if err == nil {
		return n, nil
	}

	c.logger.Warn("aggregate weekly count failed, falling back to local count",
		slog.String("client_id", clientID),
		slog.String("error", err.Error()))

	n, ferr := c.fallback.WeeklyCount(ctx, clientID, win)
	if ferr != nil {
		return 0, fmt.Errorf("weekly count: aggregate: %w; fallback: %w", err, ferr)
	}
	return n, nil
}
