package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"leadagent_backend/internal/leads/domain"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `id, name, company, role, need, pain_point, budget, timeline,
	product_interest, email, phone, stage, qualified, summary, created_at, updated_at`

func scanLead(row pgx.Row) (domain.Lead, error) {
	var l domain.Lead
	err := row.Scan(
		&l.ID, &l.Name, &l.Company, &l.Role, &l.Need, &l.PainPoint,
		&l.Budget, &l.Timeline, &l.ProductInterest, &l.Email, &l.Phone,
		&l.Stage, &l.Qualified, &l.Summary, &l.CreatedAt, &l.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, domain.ErrLeadNotFound
	}
	return l, err
}

// Create inserts an empty lead positioned at the given stage.
func (r *Repository) Create(ctx context.Context, stage string) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO leads (id, stage)
		VALUES ($1, $2)
		RETURNING `+leadColumns+`
	`, uuid.New(), stage)
	return scanLead(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE id = $1
	`, id)
	return scanLead(row)
}

// Update persists the full mutable state of the lead.
func (r *Repository) Update(ctx context.Context, l domain.Lead) (domain.Lead, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE leads
		SET name = $2, company = $3, role = $4, need = $5, pain_point = $6,
			budget = $7, timeline = $8, product_interest = $9, email = $10,
			phone = $11, stage = $12, qualified = $13, summary = $14,
			updated_at = now()
		WHERE id = $1
		RETURNING `+leadColumns+`
	`, l.ID, l.Name, l.Company, l.Role, l.Need, l.PainPoint, l.Budget,
		l.Timeline, l.ProductInterest, l.Email, l.Phone, l.Stage, l.Qualified, l.Summary)
	return scanLead(row)
}

// List returns leads newest first. When qualifiedOnly is set, leads
// that never completed qualification are filtered out.
func (r *Repository) List(ctx context.Context, limit, offset int, qualifiedOnly bool) ([]domain.Lead, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+leadColumns+`
		FROM leads
		WHERE ($3 = false OR qualified = true)
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset, qualifiedOnly)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Lead, 0)
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}
