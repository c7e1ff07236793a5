package jobs

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PgSnapshotter copies stock_balances into stock_snapshots for all tenants
// in one statement.
type PgSnapshotter struct {
	pool *pgxpool.Pool
}

func NewPgSnapshotter(pool *pgxpool.Pool) *PgSnapshotter {
	return &PgSnapshotter{pool: pool}
}

func (s *PgSnapshotter) Snapshot(ctx context.Context, takenAt time.Time) (int64, error) {
	if takenAt.IsZero() {
		takenAt = time.Now().UTC()
	}
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO stock_snapshots (company_id, item_code, on_hand, reserved, avg_cost, taken_at)
		 SELECT company_id, item_code, on_hand, reserved, avg_cost, $1
		 FROM stock_balances`, takenAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
