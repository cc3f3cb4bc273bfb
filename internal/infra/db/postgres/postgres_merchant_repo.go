package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"purchase-token-gateway/internal/domain"
	"purchase-token-gateway/internal/domain/model"
	"purchase-token-gateway/internal/domain/ports/repository"
)

// PostgresMerchantRepo implements repository.MerchantRepository using Postgres.
type PostgresMerchantRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresMerchantRepo(pool *pgxpool.Pool) *PostgresMerchantRepo {
	return &PostgresMerchantRepo{pool: pool}
}

func (r *PostgresMerchantRepo) FindByID(ctx context.Context, id int64) (*model.Merchant, error) {
	const sqlq = `SELECT id, password, date_created FROM merchant WHERE id = $1;`

	var m model.Merchant
	row := r.pool.QueryRow(ctx, sqlq, id)
	if err := row.Scan(&m.ID, &m.PasswordHash, &m.DateCreated); err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres FindByID merchant scan: %w", err)
	}
	return &m, nil
}

// Ensure interface compliance at compile time
var _ repository.MerchantRepository = (*PostgresMerchantRepo)(nil)
