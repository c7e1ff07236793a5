package production

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/texfab-erp/texfab-erp/internal/platform/db"
)

// RepositoryPort abstracts repository usage for the service. Stage mutations
// run through WithTx so the stage row and the parent order always move
// together.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	Get(ctx context.Context, companyID, id int64) (*ProductionOrder, error)
	List(ctx context.Context, req ListOrdersRequest) ([]ProductionOrder, int, error)
	Create(ctx context.Context, order ProductionOrder) (int64, error)
	NextProdNo(ctx context.Context, companyID int64) (string, error)
}

// TxRepository is the repository surface available inside a transaction.
type TxRepository interface {
	GetForUpdate(ctx context.Context, companyID, id int64) (*ProductionOrder, error)
	UpdateStage(ctx context.Context, stage ProductionStage) error
	UpdateOrder(ctx context.Context, order ProductionOrder) error
}

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

const orderColumns = `id, company_id, prod_no, sales_order_id, item_code, qty, unit, status,
	started_at, completed_at, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, companyID, id int64) (*ProductionOrder, error) {
	return getOrder(ctx, r.pool, companyID, id, "")
}

func (t *txRepository) GetForUpdate(ctx context.Context, companyID, id int64) (*ProductionOrder, error) {
	return getOrder(ctx, t.tx, companyID, id, " FOR UPDATE")
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func getOrder(ctx context.Context, q querier, companyID, id int64, lock string) (*ProductionOrder, error) {
	row := q.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM production_orders WHERE company_id = $1 AND id = $2`+lock,
		companyID, id)

	var o ProductionOrder
	err := row.Scan(&o.ID, &o.CompanyID, &o.ProdNo, &o.SalesOrderID, &o.ItemCode, &o.Qty, &o.Unit,
		&o.Status, &o.StartedAt, &o.CompletedAt, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := q.Query(ctx,
		`SELECT id, order_id, seq, name, status, started_at, completed_at, hold_reason, operator_id,
			output_qty, defect_qty, quality_grade, notes
		 FROM production_stages WHERE order_id = $1 ORDER BY seq`, o.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var st ProductionStage
		if err := rows.Scan(&st.ID, &st.OrderID, &st.Seq, &st.Name, &st.Status, &st.StartedAt,
			&st.CompletedAt, &st.HoldReason, &st.OperatorID, &st.OutputQty, &st.DefectQty,
			&st.QualityGrade, &st.Notes); err != nil {
			return nil, err
		}
		o.Stages = append(o.Stages, st)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *repository) List(ctx context.Context, req ListOrdersRequest) ([]ProductionOrder, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.SalesOrderID != nil {
		conditions = append(conditions, fmt.Sprintf("sales_order_id = $%d", argPos))
		args = append(args, *req.SalesOrderID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(prod_no ILIKE $%d OR item_code ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM production_orders "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT "+orderColumns+" FROM production_orders %s ORDER BY id DESC LIMIT $%d OFFSET $%d",
		where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []ProductionOrder
	for rows.Next() {
		var o ProductionOrder
		if err := rows.Scan(&o.ID, &o.CompanyID, &o.ProdNo, &o.SalesOrderID, &o.ItemCode, &o.Qty,
			&o.Unit, &o.Status, &o.StartedAt, &o.CompletedAt, &o.Notes, &o.CreatedBy,
			&o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// Create inserts the order and its full stage route in one transaction.
func (r *repository) Create(ctx context.Context, order ProductionOrder) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO production_orders
				(company_id, prod_no, sales_order_id, item_code, qty, unit, status, notes, created_by)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			 RETURNING id`,
			order.CompanyID, order.ProdNo, order.SalesOrderID, order.ItemCode, order.Qty,
			order.Unit, order.Status, order.Notes, order.CreatedBy).Scan(&id)
		if err != nil {
			return err
		}
		for _, st := range order.Stages {
			_, err := tx.Exec(ctx,
				`INSERT INTO production_stages (order_id, seq, name, status)
				 VALUES ($1, $2, $3, $4)`,
				id, st.Seq, st.Name, st.Status)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (t *txRepository) UpdateStage(ctx context.Context, stage ProductionStage) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE production_stages SET
			status = $2, started_at = $3, completed_at = $4, hold_reason = $5,
			operator_id = $6, output_qty = $7, defect_qty = $8, quality_grade = $9, notes = $10
		 WHERE id = $1`,
		stage.ID, stage.Status, stage.StartedAt, stage.CompletedAt, stage.HoldReason,
		stage.OperatorID, stage.OutputQty, stage.DefectQty, stage.QualityGrade, stage.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStageNotFound
	}
	return nil
}

func (t *txRepository) UpdateOrder(ctx context.Context, order ProductionOrder) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE production_orders SET
			status = $3, started_at = $4, completed_at = $5, updated_at = NOW()
		 WHERE company_id = $1 AND id = $2`,
		order.CompanyID, order.ID, order.Status, order.StartedAt, order.CompletedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextProdNo suggests PRD-{YYMM}{SEQ} per company.
func (r *repository) NextProdNo(ctx context.Context, companyID int64) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM production_orders WHERE company_id = $1`, companyID).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("PRD-%s%04d", time.Now().Format("0601"), count+1), nil
}
