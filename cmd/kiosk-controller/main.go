package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fitaccess/kiosk/internal/config"
	"github.com/fitaccess/kiosk/internal/db"
	"github.com/fitaccess/kiosk/internal/httpapi"
	"github.com/fitaccess/kiosk/internal/kiosk/actuator"
	"github.com/fitaccess/kiosk/internal/kiosk/overlay"
	"github.com/fitaccess/kiosk/internal/kiosk/service"
	"github.com/fitaccess/kiosk/internal/kiosk/store"
	"github.com/fitaccess/kiosk/internal/kiosk/store/memory"
	"github.com/fitaccess/kiosk/internal/kiosk/store/postgres"
	"github.com/fitaccess/kiosk/internal/kiosk/store/sqlite"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := newLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	memberships, attendance, closeStore, err := openStores(ctx, cfg, logger)
	if err != nil {
		logger.Error("store init failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer closeStore()

	door := openActuator(cfg, logger)
	if door != nil {
		defer func() { _ = door.Close() }()
	}

	ovl := overlay.New(cfg.Overlay.TTL)
	defer ovl.Stop()

	adm := service.NewAdmission(service.Dependencies{
		Logger:         logger,
		Memberships:    memberships,
		Attendance:     attendance,
		Overlay:        ovl,
		Door:           door,
		WeeklyLimit:    cfg.Rules.WeeklyLimit,
		DebounceWindow: cfg.Scan.DebounceWindow,
		ActuatorHold:   cfg.Actuator.Hold,
		LookupTimeout:  cfg.Store.LookupTimeout,
		WriteTimeout:   cfg.Store.WriteTimeout,
	})

	srv := httpapi.NewServer(httpapi.Dependencies{
		Logger:    logger,
		Addr:      cfg.HTTPAddr,
		Admission: adm,
		Overlay:   ovl,
		Actuator:  door,
	})

	go func() {
		logger.Info("listening", slog.String("addr", cfg.HTTPAddr), slog.String("env", cfg.Env))
		if err := srv.Start(); err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

func newLogger(env string) *slog.Logger {
	if env == "prod" {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// openStores builds the membership and attendance backends for the
// configured driver and returns a cleanup func.
func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (store.MembershipStore, store.AttendanceStore, func(), error) {
	switch cfg.Store.Driver {
	case "postgres":
		pool, err := postgres.NewPool(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, nil, err
		}
		att := postgres.NewAttendanceStore(pool)
		if err := att.EnsureIndexes(ctx); err != nil {
			pool.Close()
			return nil, nil, nil, err
		}
		return postgres.NewMembershipStore(pool), att, pool.Close, nil

	case "sqlite":
		sqlDB, err := db.Open(ctx, db.Config{Path: cfg.Store.DBPath, Env: cfg.Env})
		if err != nil {
			return nil, nil, nil, err
		}
		if cfg.Env == "dev" {
			if err := db.SeedDev(ctx, sqlDB); err != nil {
				logger.Warn("dev seed failed", slog.String("error", err.Error()))
			}
		}
		writer := db.NewWorker(sqlDB)
		cleanup := func() {
			writer.Close()
			_ = sqlDB.Close()
		}
		return sqlite.NewMembershipStore(sqlDB), sqlite.NewAttendanceStore(sqlDB, writer), cleanup, nil

	default: // "memory", validated by config.Load
		st := memory.New()
		return st, st, func() {}, nil
	}
}

// openActuator dials the door relay when a serial device is configured.
// A failed handshake leaves the controller in its error state; the
// operator can retry via POST /v1/actuator/reconnect.
func openActuator(cfg *config.Config, logger *slog.Logger) *actuator.Controller {
	if cfg.Actuator.SerialDevice == "" {
		logger.Info("no serial device configured, door actuation disabled")
		return nil
	}

	dial := actuator.SerialDialer(cfg.Actuator.SerialDevice, cfg.Actuator.SerialBaud)
	door := actuator.New(dial, cfg.Actuator.Hold, logger)
	if err := door.Connect(); err != nil {
		logger.Error("actuator connect failed",
			slog.String("device", cfg.Actuator.SerialDevice),
			slog.String("error", err.Error()))
	}
	return door
}
