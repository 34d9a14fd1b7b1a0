// Package service wires one scan through the full admission pipeline:
// normalize → lookup → quota → decide → {ledger, actuator, overlay}.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/fitaccess/kiosk/internal/kiosk/actuator"
	"github.com/fitaccess/kiosk/internal/kiosk/engine"
	"github.com/fitaccess/kiosk/internal/kiosk/overlay"
	"github.com/fitaccess/kiosk/internal/kiosk/quota"
	"github.com/fitaccess/kiosk/internal/kiosk/scan"
	"github.com/fitaccess/kiosk/internal/kiosk/store"
	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

// ErrLookupFailed marks a scan abandoned because the membership backend
// could not answer.  No overlay or actuator state changes: the failure is
// made visible to the operator and the kiosk simply does not admit.
var ErrLookupFailed = errors.New("membership lookup failed")

const (
	DefaultLookupTimeout = 5 * time.Second
	DefaultWriteTimeout  = 5 * time.Second
)

// Dependencies carries everything an Admission needs.  Overlay and Door
// are optional; a nil Door (e.g. in tests or a kiosk without a lock)
// simply skips actuation.
type Dependencies struct {
	Logger      *slog.Logger
	Memberships store.MembershipStore
	Attendance  store.AttendanceStore
	Overlay     *overlay.Scheduler
	Door        *actuator.Controller
	Notifier    Notifier

	WeeklyLimit    int
	DebounceWindow time.Duration
	ActuatorHold   time.Duration
	LookupTimeout  time.Duration
	WriteTimeout   time.Duration
}

// Admission runs the scan pipeline.  A single admission mutex is held from
// lookup through the ledger write so two decisions for the same client can
// never interleave in-process; across kiosks the store's (client, day)
// uniqueness constraint closes the same race.
type Admission struct {
	logger   *slog.Logger
	norm     *scan.Normalizer
	members  store.MembershipStore
	ledger   *Ledger
	quota    *quota.Calculator
	engine   *engine.Engine
	overlay  *overlay.Scheduler
	door     *actuator.Controller
	notifier Notifier

	hold          time.Duration
	lookupTimeout time.Duration
	writeTimeout  time.Duration

	mu  sync.Mutex
	now func() time.Time
}

func NewAdmission(d Dependencies) *Admission {
	if d.Notifier == nil {
		d.Notifier = LogNotifier{Logger: d.Logger}
	}
	if d.LookupTimeout <= 0 {
		d.LookupTimeout = DefaultLookupTimeout
	}
	if d.WriteTimeout <= 0 {
		d.WriteTimeout = DefaultWriteTimeout
	}

	return &Admission{
		logger:        d.Logger,
		norm:          scan.New(d.DebounceWindow),
		members:       d.Memberships,
		ledger:        NewLedger(d.Attendance),
		quota:         quota.NewCalculator(d.Attendance, d.Logger),
		engine:        engine.New(d.WeeklyLimit),
		overlay:       d.Overlay,
		door:          d.Door,
		notifier:      d.Notifier,
		hold:          d.ActuatorHold,
		lookupTimeout: d.LookupTimeout,
		writeTimeout:  d.WriteTimeout,
	}
}

// HandleScan processes one raw credential.  It returns (nil, nil) when the
// input was empty or debounced, meaning no decision was made.  On ErrLookupFailed
// the scan was abandoned with no state change.
func (a *Admission) HandleScan(ctx context.Context, raw string, src types.ScanSource) (*types.Decision, error) {
	code, ok := a.norm.Accept(raw, a.clock()())
	if !ok {
		return nil, nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	in, err := a.gather(ctx, code)
	if err != nil {
		a.notifier.Notify(ctx, "lookup failed, scan ignored: "+err.Error())
		a.logger.ErrorContext(ctx, "scan abandoned",
			slog.String("code", code),
			slog.String("error", err.Error()))
		return nil, err
	}

	decision := a.engine.Decide(in)
	a.logDecision(ctx, code, decision)

	if decision.IsGranted() {
		a.recordEntry(ctx, decision.Record.ID, src)
	}

	// Door and overlay are independent fire-and-forget effects: neither
	// can block the pipeline or alter the decision.
	if decision.IsGranted() && a.door != nil {
		go func() {
			if err := a.door.TriggerOpen(a.hold); err != nil {
				a.logger.Error("door trigger failed", slog.String("error", err.Error()))
			}
		}()
	}
	if a.overlay != nil {
		a.overlay.Show(decision)
	}

	return &decision, nil
}

// gather resolves the code and, for a single match, the today-flag and
// weekly count the engine needs.  Any backend failure aborts the scan.
func (a *Admission) gather(ctx context.Context, code string) (engine.Input, error) {
	rctx, cancel := context.WithTimeout(ctx, a.lookupTimeout)
	defer cancel()

	records, err := a.members.FindByCode(rctx, code)
	if err != nil {
		return engine.Input{}, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}

	in := engine.Input{Records: records}
	if len(records) != 1 {
		return in, nil
	}

	clientID := records[0].ID

	today, err := a.ledger.TodayEntry(rctx, clientID)
	if err != nil {
		return engine.Input{}, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	in.AttendedToday = today != nil

	count, err := a.quota.WeeklyCount(rctx, clientID, quota.WeekOf(a.clock()()))
	if err != nil {
		return engine.Input{}, fmt.Errorf("%w: %w", ErrLookupFailed, err)
	}
	in.WeeklyCount = count

	return in, nil
}

// recordEntry writes the admission.  A failed write is a reconciliation
// concern, not a denial: the person was already told they may enter.
func (a *Admission) recordEntry(ctx context.Context, clientID string, src types.ScanSource) {
	wctx, cancel := context.WithTimeout(ctx, a.writeTimeout)
	defer cancel()

	if _, _, err := a.ledger.Record(wctx, clientID, src); err != nil {
		a.notifier.Notify(ctx, "entry granted but attendance write failed for client "+clientID)
		a.logger.ErrorContext(ctx, "attendance write failed, entry not recorded",
			slog.String("client_id", clientID),
			slog.String("error", err.Error()))
	}
}

func (a *Admission) logDecision(ctx context.Context, code string, d types.Decision) {
	attrs := []any{
		slog.String("code", code),
		slog.String("outcome", string(d.Outcome)),
	}
	if d.Reason != "" {
		attrs = append(attrs, slog.String("reason", string(d.Reason)))
	}
	if d.Record != nil {
		attrs = append(attrs, slog.String("client_id", d.Record.ID))
	}
	if d.Reason == types.ReasonDuplicateCredential {
		attrs = append(attrs, slog.Bool("security_fault", true))
	}
	a.logger.InfoContext(ctx, "admission decision", attrs...)
}

// clock returns the time source; tests override engine/ledger clocks via
// SetClock.
func (a *Admission) clock() func() time.Time {
	if a.now != nil {
		return a.now
	}
	return time.Now
}

// SetClock pins every time source in the pipeline.  Test-only helper.
func (a *Admission) SetClock(now func() time.Time) {
	a.now = now
	a.engine.Now = now
	a.ledger.now = now
}
