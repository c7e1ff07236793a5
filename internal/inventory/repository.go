package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/texfab-erp/texfab-erp/internal/platform/db"
)

// ErrNotFound indicates a missing balance row.
var ErrNotFound = errors.New("inventory: not found")

type repository struct {
	pool *pgxpool.Pool
}

type txRepository struct {
	tx pgx.Tx
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) RepositoryPort {
	return &repository{pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

func (r *repository) GetBalance(ctx context.Context, companyID int64, itemCode string) (Balance, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT company_id, item_code, on_hand, reserved, avg_cost, updated_at
		 FROM stock_balances WHERE company_id = $1 AND item_code = $2`,
		companyID, itemCode)
	var b Balance
	err := row.Scan(&b.CompanyID, &b.ItemCode, &b.OnHand, &b.Reserved, &b.AvgCost, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Balance{}, fmt.Errorf("%w: item %s", ErrNotFound, itemCode)
		}
		return Balance{}, err
	}
	return b, nil
}

func (r *repository) ListBalances(ctx context.Context, companyID int64, search string, limit, offset int) ([]Balance, int, error) {
	where := "WHERE company_id = $1"
	args := []any{companyID}
	if search != "" {
		where += " AND item_code ILIKE $2"
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM stock_balances "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT company_id, item_code, on_hand, reserved, avg_cost, updated_at
		FROM stock_balances %s ORDER BY item_code LIMIT $%d OFFSET $%d`,
		where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var balances []Balance
	for rows.Next() {
		var b Balance
		if err := rows.Scan(&b.CompanyID, &b.ItemCode, &b.OnHand, &b.Reserved, &b.AvgCost, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		balances = append(balances, b)
	}
	return balances, total, rows.Err()
}

func (r *repository) ListMovements(ctx context.Context, filter MovementFilter) ([]Movement, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{filter.CompanyID}
	argPos := 2

	if filter.ItemCode != "" {
		conditions = append(conditions, fmt.Sprintf("item_code = $%d", argPos))
		args = append(args, filter.ItemCode)
		argPos++
	}
	if filter.Type != "" {
		conditions = append(conditions, fmt.Sprintf("movement_type = $%d", argPos))
		args = append(args, string(filter.Type))
		argPos++
	}
	if filter.RefModule != "" {
		conditions = append(conditions, fmt.Sprintf("ref_module = $%d", argPos))
		args = append(args, filter.RefModule)
		argPos++
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, fmt.Sprintf("posted_at >= $%d", argPos))
		args = append(args, filter.From)
		argPos++
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, fmt.Sprintf("posted_at < $%d", argPos))
		args = append(args, filter.To)
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM stock_movements "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT id, company_id, item_code, movement_type, qty, unit_cost,
			from_location, to_location, ref_module, ref_id, note, posted_by, posted_at
		FROM stock_movements %s ORDER BY posted_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		where, argPos, argPos+1)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var movements []Movement
	for rows.Next() {
		var m Movement
		if err := rows.Scan(&m.ID, &m.CompanyID, &m.ItemCode, &m.Type, &m.Qty, &m.UnitCost,
			&m.FromLocation, &m.ToLocation, &m.RefModule, &m.RefID, &m.Note, &m.PostedBy, &m.PostedAt); err != nil {
			return nil, 0, err
		}
		movements = append(movements, m)
	}
	return movements, total, rows.Err()
}

func (t *txRepository) GetBalanceForUpdate(ctx context.Context, companyID int64, itemCode string) (Balance, error) {
	row := t.tx.QueryRow(ctx,
		`SELECT company_id, item_code, on_hand, reserved, avg_cost, updated_at
		 FROM stock_balances WHERE company_id = $1 AND item_code = $2 FOR UPDATE`,
		companyID, itemCode)
	var b Balance
	err := row.Scan(&b.CompanyID, &b.ItemCode, &b.OnHand, &b.Reserved, &b.AvgCost, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// First movement for this item: start from a zero balance.
			return Balance{CompanyID: companyID, ItemCode: itemCode, UpdatedAt: time.Now().UTC()}, nil
		}
		return Balance{}, err
	}
	return b, nil
}

func (t *txRepository) SaveBalance(ctx context.Context, balance Balance) error {
	_, err := t.tx.Exec(ctx,
		`INSERT INTO stock_balances (company_id, item_code, on_hand, reserved, avg_cost, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (company_id, item_code)
		 DO UPDATE SET on_hand = $3, reserved = $4, avg_cost = $5, updated_at = $6`,
		balance.CompanyID, balance.ItemCode, balance.OnHand, balance.Reserved, balance.AvgCost, balance.UpdatedAt)
	return err
}

func (t *txRepository) InsertMovement(ctx context.Context, movement Movement) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx,
		`INSERT INTO stock_movements
			(company_id, item_code, movement_type, qty, unit_cost, from_location, to_location,
			 ref_module, ref_id, note, posted_by, posted_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		movement.CompanyID, movement.ItemCode, string(movement.Type), movement.Qty, movement.UnitCost,
		movement.FromLocation, movement.ToLocation, movement.RefModule, movement.RefID,
		movement.Note, movement.PostedBy, movement.PostedAt).Scan(&id)
	return id, err
}
