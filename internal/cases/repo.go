package cases

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gavelhq/gavel/internal/shared"
)

// Repository is the persistence surface for the docket. Every method takes
// the court id and applies it in the query; there is no unscoped variant.
type Repository interface {
	Insert(ctx context.Context, c *Case) error
	FindByID(ctx context.Context, courtID string, id int64) (*Case, error)
	List(ctx context.Context, courtID string, page, perPage int) ([]Case, int, error)
	UpdateStatus(ctx context.Context, courtID string, id int64, status string) error
}

// PGRepository implements Repository on Postgres.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository returns a Postgres-backed repository.
func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) Insert(ctx context.Context, c *Case) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO cases (court_id, case_number, title, status, filed_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		c.CourtID, c.CaseNumber, c.Title, c.Status, c.FiledBy,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("cases: insert: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, courtID string, id int64) (*Case, error) {
	var c Case
	err := r.pool.QueryRow(ctx, `
		SELECT id, court_id, case_number, title, status, filed_by, created_at, updated_at
		FROM cases WHERE court_id = $1 AND id = $2`,
		courtID, id,
	).Scan(&c.ID, &c.CourtID, &c.CaseNumber, &c.Title, &c.Status, &c.FiledBy, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("cases: find by id: %w", err)
	}
	return &c, nil
}

func (r *PGRepository) List(ctx context.Context, courtID string, page, perPage int) ([]Case, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM cases WHERE court_id = $1`, courtID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("cases: count: %w", err)
	}

	offset := (page - 1) * perPage
	rows, err := r.pool.Query(ctx, `
		SELECT id, court_id, case_number, title, status, filed_by, created_at, updated_at
		FROM cases WHERE court_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`,
		courtID, perPage, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("cases: list: %w", err)
	}
	defer rows.Close()

	var items []Case
	for rows.Next() {
		var c Case
		if err := rows.Scan(&c.ID, &c.CourtID, &c.CaseNumber, &c.Title, &c.Status, &c.FiledBy, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, 0, fmt.Errorf("cases: scan: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("cases: iterate: %w", err)
	}
	return items, total, nil
}

func (r *PGRepository) UpdateStatus(ctx context.Context, courtID string, id int64, status string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE cases SET status = $3, updated_at = NOW()
		WHERE court_id = $1 AND id = $2`,
		courtID, id, status,
	)
	if err != nil {
		return fmt.Errorf("cases: update status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
