package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"purchase-token-gateway/internal/domain"
	"purchase-token-gateway/internal/domain/model"
	"purchase-token-gateway/internal/domain/ports/repository"
)

// PostgresTokenRepo implements repository.TokenRepository using Postgres.
type PostgresTokenRepo struct {
	pool *pgxpool.Pool
}

func NewPostgresTokenRepo(pool *pgxpool.Pool) *PostgresTokenRepo {
	return &PostgresTokenRepo{pool: pool}
}

const tokenColumns = `id, token, transaction_id, price, description, is_success, is_client_failure,
success_url, cancel_url, failure_url, webhook_url, is_purchased,
stripe_id, stripe_payment_intent, stripe_customer, date_created`

// Save inserts the token and fills in the assigned id.
func (r *PostgresTokenRepo) Save(ctx context.Context, t *model.PurchaseToken) error {
	const sqlq = `
INSERT INTO purchase_token
  (token, transaction_id, price, description, is_success, is_client_failure,
   success_url, cancel_url, failure_url, webhook_url, is_purchased,
   stripe_id, stripe_payment_intent, stripe_customer, date_created)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
RETURNING id;
`
	row := r.pool.QueryRow(ctx, sqlq,
		t.Token,
		t.TransactionID,
		t.Price,
		t.Description,
		t.IsSuccess,
		t.IsClientFailure,
		t.SuccessURL,
		t.CancelURL,
		t.FailureURL,
		t.WebhookURL,
		t.IsPurchased,
		t.StripeID,
		t.StripePaymentIntent,
		t.StripeCustomer,
		t.DateCreated,
	)
	if err := row.Scan(&t.ID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("duplicate token value: %w", domain.ErrInvalidArgument)
		}
		return fmt.Errorf("postgres Save token: %w", err)
	}
	return nil
}

// FindByID loads by numeric code, in any state. Returns domain.ErrNotFound if missing.
func (r *PostgresTokenRepo) FindByID(ctx context.Context, id int64) (*model.PurchaseToken, error) {
	sqlq := `SELECT ` + tokenColumns + ` FROM purchase_token WHERE id = $1;`
	return r.scanOne(r.pool.QueryRow(ctx, sqlq, id))
}

// FindByToken loads by secret token, only while unpurchased and unexpired.
// The expiry check lives in SQL so a stale row behaves exactly like a missing one.
func (r *PostgresTokenRepo) FindByToken(ctx context.Context, token string) (*model.PurchaseToken, error) {
	sqlq := `SELECT ` + tokenColumns + `
FROM purchase_token
WHERE token = $1 AND is_purchased = FALSE AND date_created > $2;`
	cutoff := time.Now().Add(-model.ExpirationWindow)
	return r.scanOne(r.pool.QueryRow(ctx, sqlq, token, cutoff))
}

// FindByClientFailure lists tokens awaiting webhook retry, oldest first.
func (r *PostgresTokenRepo) FindByClientFailure(ctx context.Context) ([]*model.PurchaseToken, error) {
	sqlq := `SELECT ` + tokenColumns + `
FROM purchase_token
WHERE is_client_failure = TRUE
ORDER BY date_created;`
	rows, err := r.pool.Query(ctx, sqlq)
	if err != nil {
		return nil, fmt.Errorf("postgres FindByClientFailure: %w", err)
	}
	defer rows.Close()

	var out []*model.PurchaseToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// MarkPurchased persists the completion transition with a check-then-set
// guard: a row already purchased is left untouched and reported as such, so
// double completion cannot apply side effects twice.
func (r *PostgresTokenRepo) MarkPurchased(ctx context.Context, t *model.PurchaseToken) error {
	const sqlq = `
UPDATE purchase_token
SET is_purchased = TRUE,
    is_success = $2,
    stripe_id = $3,
    stripe_payment_intent = $4,
    stripe_customer = $5
WHERE id = $1 AND is_purchased = FALSE;
`
	tag, err := r.pool.Exec(ctx, sqlq, t.ID, t.IsSuccess, t.StripeID, t.StripePaymentIntent, t.StripeCustomer)
	if err != nil {
		return fmt.Errorf("postgres MarkPurchased: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyPurchased
	}
	return nil
}

func (r *PostgresTokenRepo) SetClientFailure(ctx context.Context, id int64, failed bool) error {
	const sqlq = `UPDATE purchase_token SET is_client_failure = $2 WHERE id = $1;`
	if _, err := r.pool.Exec(ctx, sqlq, id, failed); err != nil {
		return fmt.Errorf("postgres SetClientFailure: %w", err)
	}
	return nil
}

func (r *PostgresTokenRepo) ClearClientFailureBatch(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	const sqlq = `UPDATE purchase_token SET is_client_failure = FALSE WHERE id = ANY($1);`
	if _, err := r.pool.Exec(ctx, sqlq, ids); err != nil {
		return fmt.Errorf("postgres ClearClientFailureBatch: %w", err)
	}
	return nil
}

func (r *PostgresTokenRepo) scanOne(row pgx.Row) (*model.PurchaseToken, error) {
	t, err := scanToken(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("postgres token scan: %w", err)
	}
	return t, nil
}

func scanToken(row pgx.Row) (*model.PurchaseToken, error) {
	var (
		t             model.PurchaseToken
		isSuccess     sql.NullBool
		stripeID      sql.NullString
		paymentIntent sql.NullString
		customer      sql.NullString
	)
	err := row.Scan(
		&t.ID,
		&t.Token,
		&t.TransactionID,
		&t.Price,
		&t.Description,
		&isSuccess,
		&t.IsClientFailure,
		&t.SuccessURL,
		&t.CancelURL,
		&t.FailureURL,
		&t.WebhookURL,
		&t.IsPurchased,
		&stripeID,
		&paymentIntent,
		&customer,
		&t.DateCreated,
	)
	if err != nil {
		return nil, err
	}
	if isSuccess.Valid {
		t.IsSuccess = &isSuccess.Bool
	}
	if stripeID.Valid {
		t.StripeID = &stripeID.String
	}
	if paymentIntent.Valid {
		t.StripePaymentIntent = &paymentIntent.String
	}
	if customer.Valid {
		t.StripeCustomer = &customer.String
	}
	return &t, nil
}

// Ensure interface compliance at compile time
var _ repository.TokenRepository = (*PostgresTokenRepo)(nil)
