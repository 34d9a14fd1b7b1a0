package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	dbpkg "github.com/fitaccess/kiosk/internal/db"
	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

type AttendanceStore struct {
	db     *sql.DB
	writer *dbpkg.Worker
}

func NewAttendanceStore(db *sql.DB, writer *dbpkg.Worker) *AttendanceStore {
	return &AttendanceStore{db: db, writer: writer}
}

func (s *AttendanceStore) FindOnDay(ctx context.Context, clientID, day string) (*types.AttendanceEvent, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, recorded_at_ms, COALESCE(notas, '')
FROM asistencias
WHERE cliente_id = ? AND dia = ?;
`, clientID, day)

	var (
		id         string
		recordedMs int64
		notas      string
	)
	err := row.Scan(&id, &recordedMs, &notas)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindOnDay: %w", err)
	}

	return &types.AttendanceEvent{
		ID:         id,
		ClientID:   clientID,
		RecordedAt: time.UnixMilli(recordedMs),
		Day:        day,
		Source:     types.ScanSource(notas),
	}, nil
}

// InsertDay records ev unless the (cliente_id, dia) unique index says a
// first entry already exists, in which case that row is returned instead.
// Both steps run inside one writer transaction, so a concurrent insert for
// the same day cannot slip between them.
func (s *AttendanceStore) InsertDay(ctx context.Context, ev types.AttendanceEvent) (types.AttendanceEvent, bool, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = time.Now()
	}

	var (
		out      = ev
		inserted bool
	)
	err := s.writer.Do(ctx, func(ctx context.Context, tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, `
INSERT OR IGNORE INTO asistencias(id, cliente_id, recorded_at_ms, dia, estado, notas)
VALUES (?, ?, ?, ?, 'presente', ?);
`, ev.ID, ev.ClientID, ev.RecordedAt.UnixMilli(), ev.Day, string(ev.Source))
		if err != nil {
			return fmt.Errorf("InsertDay insert: %w", err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("InsertDay rows affected: %w", err)
		}
		if n > 0 {
			inserted = true
			return nil
		}

		// Lost the race (or a re-entry): hand back the existing event.
		var (
			id         string
			recordedMs int64
			notas      string
		)
		if err := tx.QueryRowContext(ctx, `
SELECT id, recorded_at_ms, COALESCE(notas, '')
FROM asistencias
WHERE cliente_id = ? AND dia = ?;
`, ev.ClientID, ev.Day).Scan(&id, &recordedMs, &notas); err != nil {
			return fmt.Errorf("InsertDay fetch existing: %w", err)
		}
		out = types.AttendanceEvent{
			ID:         id,
			ClientID:   ev.ClientID,
			RecordedAt: time.UnixMilli(recordedMs),
			Day:        ev.Day,
			Source:     types.ScanSource(notas),
		}
		return nil
	})
	if err != nil {
		return types.AttendanceEvent{}, false, err
	}
	return out, inserted, nil
}

func (s *AttendanceStore) CountDistinctDays(ctx context.Context, clientID string, from, to time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(DISTINCT dia)
FROM asistencias
WHERE cliente_id = ? AND recorded_at_ms >= ? AND recorded_at_ms < ?;
`, clientID, from.UnixMilli(), to.UnixMilli()).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountDistinctDays: %w", err)
	}
	return n, nil
}

func (s *AttendanceStore) ListDays(ctx context.Context, clientID string, from, to time.Time) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT dia
FROM asistencias
WHERE cliente_id = ? AND recorded_at_ms >= ? AND recorded_at_ms < ?;
`, clientID, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("ListDays: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("ListDays scan: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}
