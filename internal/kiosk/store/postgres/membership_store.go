package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fitaccess/kiosk/internal/kiosk/types"
)

type MembershipStore struct {
	pool *pgxpool.Pool
}

func NewMembershipStore(pool *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{pool: pool}
}

func (s *MembershipStore) FindByCode(ctx context.Context, code string) ([]types.MembershipRecord, error) {
	rows, err := s.pool.Query(ctx, `
SELECT c.id::text, c.nombre, c.codigo, c.estado, c.fecha_fin, c.membresia_id::text,
       COALESCE(m.nombre, ''), COALESCE(m.modalidad, '')
FROM clientes c
LEFT JOIN membresias m ON m.id = c.membresia_id
WHERE c.codigo = $1;
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
			fin      *time.Time
			planID   *string
			modality string
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Code, &estado, &fin,
			&planID, &rec.PlanName, &modality); err != nil {
			return nil, fmt.Errorf("FindByCode scan: %w", err)
		}

		rec.State = types.ParseMembershipState(estado)
		rec.Modality = types.ParseModality(modality)
		rec.PlanID = planID
		if fin != nil {
			t := normalizeEndDate(*fin)
			rec.EndDate = &t
		}

		out = append(out, rec)
	}
	return out, rows.Err()
}

// normalizeEndDate widens a date-valued fecha_fin to the end of that local
// day.  The management system stores plain dates; a membership ending
// today must keep admitting until closing time.
func normalizeEndDate(t time.Time) time.Time {
	if h, m, sec := t.Clock(); h != 0 || m != 0 || sec != 0 || t.Nanosecond() != 0 {
		return t
	}
	y, mo, d := t.Date()
	return time.Date(y, mo, d, 23, 59, 59, 0, time.Local)
}
