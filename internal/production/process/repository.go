package process

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists process records, quality checks and issues.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (*Record, error)
	List(ctx context.Context, req ListRecordsRequest) ([]Record, int, error)
	Create(ctx context.Context, record Record) (int64, error)
	Update(ctx context.Context, record Record) error
	AddQualityCheck(ctx context.Context, check QualityCheck) (int64, error)
	AddIssue(ctx context.Context, issue Issue) (int64, error)
	ResolveIssue(ctx context.Context, companyID, recordID, issueID int64, at time.Time) error
	Aggregate(ctx context.Context, companyID int64, processCode string) (Analytics, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const recordColumns = `id, company_id, production_order_id, process_code, status, params,
	operator_id, started_at, completed_at, output_qty, wastage_qty, cost_breakdown, total_cost,
	notes, created_by, created_at`

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Record, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+recordColumns+` FROM process_records WHERE company_id = $1 AND id = $2`, companyID, id)

	var rec Record
	var params, costs []byte
	err := row.Scan(&rec.ID, &rec.CompanyID, &rec.ProductionOrderID, &rec.ProcessCode, &rec.Status,
		&params, &rec.OperatorID, &rec.StartedAt, &rec.CompletedAt, &rec.OutputQty, &rec.WastageQty,
		&costs, &rec.TotalCost, &rec.Notes, &rec.CreatedBy, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if len(params) > 0 {
		if err := json.Unmarshal(params, &rec.Params); err != nil {
			return nil, fmt.Errorf("decode params: %w", err)
		}
	}
	if len(costs) > 0 {
		if err := json.Unmarshal(costs, &rec.CostBreakdown); err != nil {
			return nil, fmt.Errorf("decode cost breakdown: %w", err)
		}
	}

	if err := r.loadChecks(ctx, &rec); err != nil {
		return nil, err
	}
	if err := r.loadIssues(ctx, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) loadChecks(ctx context.Context, rec *Record) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, record_id, result, score, remarks, checked_by, checked_at
		 FROM process_quality_checks WHERE record_id = $1 ORDER BY id`, rec.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var qc QualityCheck
		if err := rows.Scan(&qc.ID, &qc.RecordID, &qc.Result, &qc.Score, &qc.Remarks,
			&qc.CheckedBy, &qc.CheckedAt); err != nil {
			return err
		}
		rec.QualityChecks = append(rec.QualityChecks, qc)
	}
	return rows.Err()
}

func (r *repository) loadIssues(ctx context.Context, rec *Record) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, record_id, severity, description, reported_by, reported_at, resolved_at
		 FROM process_issues WHERE record_id = $1 ORDER BY id`, rec.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var is Issue
		if err := rows.Scan(&is.ID, &is.RecordID, &is.Severity, &is.Description,
			&is.ReportedBy, &is.ReportedAt, &is.ResolvedAt); err != nil {
			return err
		}
		rec.Issues = append(rec.Issues, is)
	}
	return rows.Err()
}

func (r *repository) List(ctx context.Context, req ListRecordsRequest) ([]Record, int, error) {
	conditions := []string{"company_id = $1", "process_code = $2"}
	args := []any{req.CompanyID, req.ProcessCode}
	argPos := 3

	if req.ProductionOrderID != nil {
		conditions = append(conditions, fmt.Sprintf("production_order_id = $%d", argPos))
		args = append(args, *req.ProductionOrderID)
		argPos++
	}
	if req.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argPos))
		args = append(args, *req.Status)
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM process_records "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT "+recordColumns+" FROM process_records %s ORDER BY id DESC LIMIT $%d OFFSET $%d",
		where, argPos, argPos+1)
	args = append(args, req.Limit, req.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var params, costs []byte
		if err := rows.Scan(&rec.ID, &rec.CompanyID, &rec.ProductionOrderID, &rec.ProcessCode,
			&rec.Status, &params, &rec.OperatorID, &rec.StartedAt, &rec.CompletedAt,
			&rec.OutputQty, &rec.WastageQty, &costs, &rec.TotalCost,
			&rec.Notes, &rec.CreatedBy, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		if len(params) > 0 {
			if err := json.Unmarshal(params, &rec.Params); err != nil {
				return nil, 0, fmt.Errorf("decode params: %w", err)
			}
		}
		if len(costs) > 0 {
			if err := json.Unmarshal(costs, &rec.CostBreakdown); err != nil {
				return nil, 0, fmt.Errorf("decode cost breakdown: %w", err)
			}
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, record Record) (int64, error) {
	params, err := json.Marshal(record.Params)
	if err != nil {
		return 0, fmt.Errorf("encode params: %w", err)
	}
	var id int64
	err = r.pool.QueryRow(ctx,
		`INSERT INTO process_records
			(company_id, production_order_id, process_code, status, params, notes, created_by)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		record.CompanyID, record.ProductionOrderID, record.ProcessCode, record.Status,
		params, record.Notes, record.CreatedBy).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, record Record) error {
	params, err := json.Marshal(record.Params)
	if err != nil {
		return fmt.Errorf("encode params: %w", err)
	}
	var costs []byte
	if record.CostBreakdown != nil {
		costs, err = json.Marshal(record.CostBreakdown)
		if err != nil {
			return fmt.Errorf("encode cost breakdown: %w", err)
		}
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE process_records SET
			status = $3, params = $4, operator_id = $5, started_at = $6, completed_at = $7,
			output_qty = $8, wastage_qty = $9, cost_breakdown = $10, total_cost = $11, notes = $12
		 WHERE company_id = $1 AND id = $2`,
		record.CompanyID, record.ID, record.Status, params, record.OperatorID,
		record.StartedAt, record.CompletedAt, record.OutputQty, record.WastageQty,
		costs, record.TotalCost, record.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repository) AddQualityCheck(ctx context.Context, check QualityCheck) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO process_quality_checks (record_id, result, score, remarks, checked_by, checked_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		check.RecordID, check.Result, check.Score, check.Remarks, check.CheckedBy, check.CheckedAt).Scan(&id)
	return id, err
}

func (r *repository) AddIssue(ctx context.Context, issue Issue) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO process_issues (record_id, severity, description, reported_by, reported_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		issue.RecordID, issue.Severity, issue.Description, issue.ReportedBy, issue.ReportedAt).Scan(&id)
	return id, err
}

func (r *repository) ResolveIssue(ctx context.Context, companyID, recordID, issueID int64, at time.Time) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE process_issues i SET resolved_at = $4
		 FROM process_records rec
		 WHERE i.id = $3 AND i.record_id = $2 AND rec.id = i.record_id AND rec.company_id = $1
		   AND i.resolved_at IS NULL`,
		companyID, recordID, issueID, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Aggregate computes the analytics snapshot straight from the tables. The
// service layer caches the result.
func (r *repository) Aggregate(ctx context.Context, companyID int64, processCode string) (Analytics, error) {
	a := Analytics{ProcessCode: processCode}

	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'in_progress'),
			COUNT(*) FILTER (WHERE status = 'completed'),
			COALESCE(AVG(EXTRACT(EPOCH FROM (completed_at - started_at)) / 60)
				FILTER (WHERE completed_at IS NOT NULL AND started_at IS NOT NULL), 0),
			COALESCE(AVG(output_qty / NULLIF(output_qty + COALESCE(wastage_qty, 0), 0))
				FILTER (WHERE output_qty IS NOT NULL), 0),
			COALESCE(SUM(total_cost), 0)
		 FROM process_records WHERE company_id = $1 AND process_code = $2`,
		companyID, processCode).Scan(&a.TotalRecords, &a.Pending, &a.InProgress, &a.Completed,
		&a.AvgDurationMins, &a.AvgEfficiency, &a.TotalCost)
	if err != nil {
		return Analytics{}, err
	}

	var checks, passes int
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE qc.result = 'pass')
		 FROM process_quality_checks qc
		 JOIN process_records rec ON rec.id = qc.record_id
		 WHERE rec.company_id = $1 AND rec.process_code = $2`,
		companyID, processCode).Scan(&checks, &passes)
	if err != nil {
		return Analytics{}, err
	}
	if checks > 0 {
		a.PassRate = float64(passes) / float64(checks)
	}

	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM process_issues i
		 JOIN process_records rec ON rec.id = i.record_id
		 WHERE rec.company_id = $1 AND rec.process_code = $2 AND i.resolved_at IS NULL`,
		companyID, processCode).Scan(&a.OpenIssues)
	if err != nil {
		return Analytics{}, err
	}
	return a, nil
}
