package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists sales orders and their lines.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (*SalesOrder, error)
	List(ctx context.Context, req ListOrdersRequest) ([]SalesOrder, int, error)
	Create(ctx context.Context, order SalesOrder) (int64, error)
	ReplaceDraft(ctx context.Context, order SalesOrder) error
	UpdateStatus(ctx context.Context, companyID, id int64, from, to Status) error
	NextOrderNo(ctx context.Context, companyID int64) (string, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const orderColumns = `id, company_id, order_no, customer_id, status, order_date, delivery_date,
	currency, total_amount, notes, created_by, created_at, updated_at`

func (r *repository) Get(ctx context.Context, companyID, id int64) (*SalesOrder, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+orderColumns+` FROM sales_orders WHERE company_id = $1 AND id = $2`, companyID, id)

	var o SalesOrder
	err := row.Scan(&o.ID, &o.CompanyID, &o.OrderNo, &o.CustomerID, &o.Status, &o.OrderDate,
		&o.DeliveryDate, &o.Currency, &o.TotalAmount, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	lines, err := r.loadLines(ctx, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return &o, nil
}

func (r *repository) loadLines(ctx context.Context, orderID int64) ([]SalesOrderLine, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, order_id, item_code, description, material_source, qty, unit, unit_price, line_total
		 FROM sales_order_lines WHERE order_id = $1 ORDER BY id`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []SalesOrderLine
	for rows.Next() {
		var l SalesOrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ItemCode, &l.Description, &l.MaterialSource,
			&l.Qty, &l.Unit, &l.UnitPrice, &l.LineTotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

func (r *repository) List(ctx context.Context, req ListOrdersRequest) ([]SalesOrder, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.CustomerID != nil {
		conditions = append(conditions, fmt.Sprintf("customer_id = $%d", argPos))
		args = append(args, *req.CustomerID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("order_no ILIKE $%d", argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}
	if req.From != nil {
		conditions = append(conditions, fmt.Sprintf("order_date >= $%d", argPos))
		args = append(args, *req.From)
		argPos++
	}
	if req.To != nil {
		conditions = append(conditions, fmt.Sprintf("order_date <= $%d", argPos))
		args = append(args, *req.To)
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales_orders "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT "+orderColumns+" FROM sales_orders %s ORDER BY order_date DESC, id DESC LIMIT $%d OFFSET $%d",
		where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []SalesOrder
	for rows.Next() {
		var o SalesOrder
		if err := rows.Scan(&o.ID, &o.CompanyID, &o.OrderNo, &o.CustomerID, &o.Status, &o.OrderDate,
			&o.DeliveryDate, &o.Currency, &o.TotalAmount, &o.Notes, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	return out, total, rows.Err()
}

// Create inserts the header and all lines in one transaction.
func (r *repository) Create(ctx context.Context, order SalesOrder) (int64, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	err = tx.QueryRow(ctx,
		`INSERT INTO sales_orders
			(company_id, order_no, customer_id, status, order_date, delivery_date, currency,
			 total_amount, notes, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id`,
		order.CompanyID, order.OrderNo, order.CustomerID, order.Status, order.OrderDate,
		order.DeliveryDate, order.Currency, order.TotalAmount, order.Notes, order.CreatedBy).Scan(&id)
	if err != nil {
		return 0, err
	}

	if err := insertLines(ctx, tx, id, order.Lines); err != nil {
		return 0, err
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

// ReplaceDraft rewrites header fields and lines. Callers must have verified
// the order is still in draft.
func (r *repository) ReplaceDraft(ctx context.Context, order SalesOrder) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE sales_orders SET
			customer_id = $3, delivery_date = $4, total_amount = $5, notes = $6, updated_at = NOW()
		 WHERE company_id = $1 AND id = $2 AND status = 'draft'`,
		order.CompanyID, order.ID, order.CustomerID, order.DeliveryDate, order.TotalAmount, order.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM sales_order_lines WHERE order_id = $1`, order.ID); err != nil {
		return err
	}
	if err := insertLines(ctx, tx, order.ID, order.Lines); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpdateStatus performs a compare-and-set so two concurrent transitions cannot
// both succeed from the same source status.
func (r *repository) UpdateStatus(ctx context.Context, companyID, id int64, from, to Status) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE sales_orders SET status = $4, updated_at = NOW()
		 WHERE company_id = $1 AND id = $2 AND status = $3`,
		companyID, id, from, to)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// NextOrderNo suggests SO-{YY}{SEQ} per company.
func (r *repository) NextOrderNo(ctx context.Context, companyID int64) (string, error) {
	var count int64
	if err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM sales_orders WHERE company_id = $1`, companyID).Scan(&count); err != nil {
		return "", err
	}
	return fmt.Sprintf("SO-%06d", count+1), nil
}

func insertLines(ctx context.Context, tx pgx.Tx, orderID int64, lines []SalesOrderLine) error {
	for _, l := range lines {
		_, err := tx.Exec(ctx,
			`INSERT INTO sales_order_lines
				(order_id, item_code, description, material_source, qty, unit, unit_price, line_total)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			orderID, l.ItemCode, l.Description, l.MaterialSource, l.Qty, l.Unit, l.UnitPrice, l.LineTotal)
		if err != nil {
			return err
		}
	}
	return nil
}
