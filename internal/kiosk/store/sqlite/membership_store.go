// Package sqlite implements the store interfaces on the embedded
// single-kiosk database.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

type MembershipStore struct {
	db *sql.DB
}

func NewMembershipStore(db *sql.DB) *MembershipStore {
	return &MembershipStore{db: db}
}

func (s *MembershipStore) FindByCode(ctx context.Context, code string) ([]types.MembershipRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT c.id, c.nombre, c.codigo, c.estado, c.fecha_fin_ms, c.membresia_id,
       COALESCE(m.nombre, ''), COALESCE(m.modalidad, '')
FROM clientes c
LEFT JOIN membresias m ON m.id = c.membresia_id
WHERE c.codigo = ?;
`, code)
	if err != nil {
		return nil, fmt.Errorf("FindByCode query: %w", err)
	}
	defer rows.Close()

	var out []types.MembershipRecord
	for rows.Next() {
		var (
			rec      types.MembershipRecord
			estado   string
			finMs    sql.NullInt64
			planID   sql.NullString
			modality string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Code, &estado, &finMs,
			&planID, &rec.PlanName, &modality); err != nil {
			return nil, fmt.Errorf("FindByCode scan: %w", err)
		}

		rec.State = types.ParseMembershipState(estado)
		rec.Modality = types.ParseModality(modality)
		if finMs.Valid {
			t := normalizeEndDate(time.UnixMilli(finMs.Int64))
			rec.EndDate = &t
		}
		if planID.Valid {
			v := planID.String
			rec.PlanID = &v
		}

		out = append(out, rec)
	}
	return out, rows.Err()
}

// normalizeEndDate widens a midnight-valued fecha_fin_ms to the end of
// that local day.  Imported data may carry plain dates; a membership
// ending today must keep admitting until closing time.
func normalizeEndDate(t time.Time) time.Time {
	if h, m, sec := t.Clock(); h != 0 || m != 0 || sec != 0 || t.Nanosecond() != 0 {
		return t
	}
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 23, 59, 59, 0, time.Local)
}
