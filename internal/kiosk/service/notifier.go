package service

import (
	"context"
	"log/slog"
)

// Notifier is the operator channel: lookup outages, unrecorded entries and
// other conditions a human at the front desk should see.  The kiosk UI
// renders these as toasts; headless deployments fall back to the log.
type Notifier interface {
	Notify(ctx context.Context, msg string)
}

// LogNotifier reports operator notices through the structured log.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, msg string) {
	n.Logger.WarnContext(ctx, "operator notice", slog.String("notice", msg))
}
