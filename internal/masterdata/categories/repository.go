package categories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	// ErrNotFound indicates a missing category (or one owned by another tenant).
	ErrNotFound = errors.New("category not found")
	// ErrDuplicateCode indicates the code is taken within the company.
	ErrDuplicateCode = errors.New("category code already exists")
)

// Repository persists categories.
type Repository interface {
	Get(ctx context.Context, companyID, id int64) (*Category, error)
	GetByCode(ctx context.Context, companyID int64, kind Kind, code string) (*Category, error)
	List(ctx context.Context, companyID int64, kind Kind, search string, limit, offset int) ([]Category, int, error)
	Create(ctx context.Context, category Category) (int64, error)
	Update(ctx context.Context, category Category) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the pgx-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const categoryColumns = `id, company_id, code, name, kind, description, is_active, created_at, updated_at`

func (r *repository) Get(ctx context.Context, companyID, id int64) (*Category, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE company_id = $1 AND id = $2`, companyID, id)
	return scanCategory(row)
}

func (r *repository) GetByCode(ctx context.Context, companyID int64, kind Kind, code string) (*Category, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE company_id = $1 AND kind = $2 AND code = $3`,
		companyID, string(kind), code)
	return scanCategory(row)
}

func (r *repository) List(ctx context.Context, companyID int64, kind Kind, search string, limit, offset int) ([]Category, int, error) {
	conditions := []string{"company_id = $1"}
	args := []any{companyID}
	argPos := 2

	if kind != "" {
		conditions = append(conditions, fmt.Sprintf("kind = $%d", argPos))
		args = append(args, string(kind))
		argPos++
	}
	if search != "" {
		conditions = append(conditions, fmt.Sprintf("(code ILIKE $%d OR name ILIKE $%d)", argPos, argPos))
		args = append(args, "%"+search+"%")
		argPos++
	}

	where := "WHERE " + conditions[0]
	for _, c := range conditions[1:] {
		where += " AND " + c
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM categories "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf("SELECT "+categoryColumns+" FROM categories %s ORDER BY code LIMIT $%d OFFSET $%d", where, argPos, argPos+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Kind,
			&c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, err
		}
		categories = append(categories, c)
	}
	return categories, total, rows.Err()
}

func (r *repository) Create(ctx context.Context, category Category) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO categories (company_id, code, name, kind, description, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6) RETURNING id`,
		category.CompanyID, category.Code, category.Name, string(category.Kind),
		category.Description, category.IsActive).Scan(&id)
	return id, err
}

func (r *repository) Update(ctx context.Context, category Category) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE categories SET name = $3, description = $4, is_active = $5, updated_at = NOW()
		 WHERE company_id = $1 AND id = $2`,
		category.CompanyID, category.ID, category.Name, category.Description, category.IsActive)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*Category, error) {
	var c Category
	err := row.Scan(&c.ID, &c.CompanyID, &c.Code, &c.Name, &c.Kind,
		&c.Description, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
