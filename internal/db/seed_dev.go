package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// SeedDev loads a demo plan and client so a dev kiosk admits the
// credential "ABC123" out of the box.  Idempotent; dev environments only.
func SeedDev(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, `
INSERT OR IGNORE INTO membresias(id, nombre, modalidad)
VALUES ('mem_diario', 'Plan Diario', 'diario'),
       ('mem_alterno', 'Plan Alterno', 'dia_alterno');`); err != nil {
		return fmt.Errorf("seed membresias: %w", err)
	}

	// End of a day one year out, so the demo membership stays valid.
	end := time.Now().AddDate(1, 0, 0)
	y, m, d := end.Date()
	endMs := time.Date(y, m, d, 23, 59, 59, 0, end.Location()).UnixMilli()

	if _, err := db.ExecContext(ctx, `
INSERT INTO clientes(id, nombre, codigo, estado, fecha_fin_ms, membresia_id)
VALUES ('cli_demo', 'Cliente Demo', 'ABC123', 'activa', ?, 'mem_diario')
ON CONFLICT(id) DO UPDATE SET
  fecha_fin_ms = excluded.fecha_fin_ms,
  estado = excluded.estado;`, endMs); err != nil {
		return fmt.Errorf("seed clientes: %w", err)
	}

	return nil
}
