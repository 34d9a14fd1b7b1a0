package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

type AttendanceStore struct {
	pool *pgxpool.Pool
}

func NewAttendanceStore(pool *pgxpool.Pool) *AttendanceStore {
	return &AttendanceStore{pool: pool}
}

// EnsureIndexes applies the (cliente_id, dia) uniqueness hardening on the
// shared backend.  The management system's original schema relied on
// check-then-insert; with several kiosks on one backend the constraint is
// the only thing that actually closes that race.  Idempotent; run at
// startup.
func (s *AttendanceStore) EnsureIndexes(ctx context.Context) error {
	stmts := []string{
		`ALTER TABLE asistencias ADD COLUMN IF NOT EXISTS dia date;`,
		`UPDATE asistencias SET dia = fecha_asistencia::date WHERE dia IS NULL;`,
		`CREATE UNIQUE INDEX IF NOT EXISTS ux_asistencias_cliente_dia
		   ON asistencias(cliente_id, dia);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure attendance indexes: %w", err)
		}
	}
	return nil
}

func (s *AttendanceStore) FindOnDay(ctx context.Context, clientID, day string) (*types.AttendanceEvent, error) {
	row := s.pool.QueryRow(ctx, `
SELECT id::text, fecha_asistencia, COALESCE(notas, '')
FROM asistencias
WHERE cliente_id = $1::uuid AND dia = $2::date;
`, clientID, day)

	var (
		id       string
		recorded time.Time
		notas    string
	)
	err := row.Scan(&id, &recorded, &notas)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("FindOnDay: %w", err)
	}

	return &types.AttendanceEvent{
		ID:         id,
		ClientID:   clientID,
		RecordedAt: recorded,
		Day:        day,
		Source:     types.ScanSource(notas),
	}, nil
}

// InsertDay inserts the event and lets the unique index arbitrate races:
// a concurrent first write from another kiosk surfaces as a unique
// violation, answered by handing back the winner's row.
func (s *AttendanceStore) InsertDay(ctx context.Context, ev types.AttendanceEvent) (types.AttendanceEvent, bool, error) {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.RecordedAt.IsZero() {
		ev.RecordedAt = time.Now()
	}

	_, err := s.pool.Exec(ctx, `
INSERT INTO asistencias(id, cliente_id, fecha_asistencia, dia, estado, notas)
VALUES ($1::uuid, $2::uuid, $3, $4::date, 'presente', $5);
`, ev.ID, ev.ClientID, ev.RecordedAt, ev.Day, string(ev.Source))
	if err == nil {
		return ev, true, nil
	}

	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgerrcode.UniqueViolation {
		return types.AttendanceEvent{}, false, fmt.Errorf("InsertDay insert: %w", err)
	}

	existing, ferr := s.FindOnDay(ctx, ev.ClientID, ev.Day)
	if ferr != nil {
		return types.AttendanceEvent{}, false, fmt.Errorf("InsertDay fetch after conflict: %w", ferr)
	}
	if existing == nil {
		return types.AttendanceEvent{}, false, fmt.Errorf("InsertDay: conflicting row vanished: %w", err)
	}
	return *existing, false, nil
}

func (s *AttendanceStore) CountDistinctDays(ctx context.Context, clientID string, from, to time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `
SELECT COUNT(DISTINCT dia)
FROM asistencias
WHERE cliente_id = $1::uuid AND fecha_asistencia >= $2 AND fecha_asistencia < $3;
`, clientID, from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountDistinctDays: %w", err)
	}
	return n, nil
}

func (s *AttendanceStore) ListDays(ctx context.Context, clientID string, from, to time.Time) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
SELECT dia::text
FROM asistencias
WHERE cliente_id = $1::uuid AND fecha_asistencia >= $2 AND fecha_asistencia < $3;
`, clientID, from, to)
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
