package gate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/texfab-erp/texfab-erp/internal/platform/db"
)

// Repository persists vehicles and gate passes.
type Repository interface {
	RegisterVehicle(ctx context.Context, v Vehicle) (int64, error)
	GetVehicle(ctx context.Context, companyID, id int64) (*Vehicle, error)
	ListVehicles(ctx context.Context, companyID int64, search string, limit, offset int) ([]Vehicle, int, error)

	CreatePass(ctx context.Context, p GatePass) (int64, error)
	GetPass(ctx context.Context, companyID, id int64) (*GatePass, error)
	ListPasses(ctx context.Context, req ListPassesRequest) ([]GatePass, int, error)
	UpdatePassStatus(ctx context.Context, companyID, id int64, from, to PassStatus, checkIn, checkOut *time.Time) error
	ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) RegisterVehicle(ctx context.Context, v Vehicle) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO vehicles
			(company_id, plate_no, vehicle_type, driver_name, driver_phone, transporter_name, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		v.CompanyID, v.PlateNo, v.VehicleType, v.DriverName, v.DriverPhone,
		v.TransporterName, v.IsActive).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicatePlate
		}
		return 0, err
	}
	return id, nil
}

func (r *repository) GetVehicle(ctx context.Context, companyID, id int64) (*Vehicle, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, company_id, plate_no, vehicle_type, driver_name, driver_phone, transporter_name,
			is_active, created_at
		 FROM vehicles WHERE company_id = $1 AND id = $2`, companyID, id)

	var v Vehicle
	err := row.Scan(&v.ID, &v.CompanyID, &v.PlateNo, &v.VehicleType, &v.DriverName,
		&v.DriverPhone, &v.TransporterName, &v.IsActive, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return &v, nil
}

func (r *repository) ListVehicles(ctx context.Context, companyID int64, search string, limit, offset int) ([]Vehicle, int, error) {
	where := "WHERE company_id = $1"
	args := []any{companyID}
	if search != "" {
		where += " AND (plate_no ILIKE $2 OR driver_name ILIKE $2)"
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM vehicles "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT id, company_id, plate_no, vehicle_type, driver_name, driver_phone,
		transporter_name, is_active, created_at
		FROM vehicles %s ORDER BY plate_no LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		var v Vehicle
		if err := rows.Scan(&v.ID, &v.CompanyID, &v.PlateNo, &v.VehicleType, &v.DriverName,
			&v.DriverPhone, &v.TransporterName, &v.IsActive, &v.CreatedAt); err != nil {
			return nil, 0, err
		}
		out = append(out, v)
	}
	return out, total, rows.Err()
}

const passColumns = `id, company_id, pass_no, direction, purpose, vehicle_id, ref_module, ref_id,
	status, issued_by, issued_at, expires_at, check_in_at, check_out_at, notes`

func (r *repository) CreatePass(ctx context.Context, p GatePass) (int64, error) {
	var id int64
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO gate_passes
				(company_id, pass_no, direction, purpose, vehicle_id, ref_module, ref_id, status,
				 issued_by, issued_at, expires_at, notes)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			 RETURNING id`,
			p.CompanyID, p.PassNo, p.Direction, p.Purpose, p.VehicleID, p.RefModule, p.RefID,
			p.Status, p.IssuedBy, p.IssuedAt, p.ExpiresAt, p.Notes).Scan(&id)
		if err != nil {
			return err
		}
		for _, item := range p.Items {
			_, err := tx.Exec(ctx,
				`INSERT INTO gate_pass_items (pass_id, item_code, description, qty, unit)
				 VALUES ($1, $2, $3, $4, $5)`,
				id, item.ItemCode, item.Description, item.Qty, item.Unit)
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

func (r *repository) GetPass(ctx context.Context, companyID, id int64) (*GatePass, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+passColumns+` FROM gate_passes WHERE company_id = $1 AND id = $2`, companyID, id)

	var p GatePass
	err := row.Scan(&p.ID, &p.CompanyID, &p.PassNo, &p.Direction, &p.Purpose, &p.VehicleID,
		&p.RefModule, &p.RefID, &p.Status, &p.IssuedBy, &p.IssuedAt, &p.ExpiresAt,
		&p.CheckInAt, &p.CheckOutAt, &p.Notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPassNotFound
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, pass_id, item_code, description, qty, unit
		 FROM gate_pass_items WHERE pass_id = $1 ORDER BY id`, p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var item GatePassItem
		if err := rows.Scan(&item.ID, &item.PassID, &item.ItemCode, &item.Description,
			&item.Qty, &item.Unit); err != nil {
			return nil, err
		}
		p.Items = append(p.Items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) ListPasses(ctx context.Context, req ListPassesRequest) ([]GatePass, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{req.CompanyID}
	argPos := 2

	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}
	if req.Direction != nil {
		conditions = append(conditions, fmt.Sprintf("direction = $%d", argPos))
		args = append(args, *req.Direction)
		argPos++
	}
	if req.VehicleID != nil {
		conditions = append(conditions, fmt.Sprintf("vehicle_id = $%d", argPos))
		args = append(args, *req.VehicleID)
		argPos++
	}
	if req.Search != "" {
		conditions = append(conditions, fmt.Sprintf("pass_no ILIKE $%d", argPos))
		args = append(args, "%"+req.Search+"%")
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM gate_passes "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT "+passColumns+" FROM gate_passes %s ORDER BY issued_at DESC, id DESC LIMIT $%d OFFSET $%d",
		where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []GatePass
	for rows.Next() {
		var p GatePass
		if err := rows.Scan(&p.ID, &p.CompanyID, &p.PassNo, &p.Direction, &p.Purpose, &p.VehicleID,
			&p.RefModule, &p.RefID, &p.Status, &p.IssuedBy, &p.IssuedAt, &p.ExpiresAt,
			&p.CheckInAt, &p.CheckOutAt, &p.Notes); err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

// UpdatePassStatus performs a compare-and-set, stamping the timestamps the
// transition carries.
func (r *repository) UpdatePassStatus(ctx context.Context, companyID, id int64, from, to PassStatus, checkIn, checkOut *time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE gate_passes SET status = $4,
			check_in_at = COALESCE($5, check_in_at),
			check_out_at = COALESCE($6, check_out_at)
		 WHERE company_id = $1 AND id = $2 AND status = $3`,
		companyID, id, from, to, checkIn, checkOut)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrPassNotFound
	}
	return nil
}

// ExpireOverdue cancels issued passes whose validity window has lapsed.
// Passes already inside the plant are untouched.
func (r *repository) ExpireOverdue(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE gate_passes SET status = 'cancelled'
		 WHERE status = 'issued' AND expires_at < $1`, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
