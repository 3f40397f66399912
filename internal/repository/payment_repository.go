package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/property-market/internal/domain"
)

// PaymentRepository persists append-only settlement records.
type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) error
	LinkOffer(ctx context.Context, paymentID, offerID string) error
	ListSoldByAgent(ctx context.Context, agentEmail string) ([]domain.Payment, error)
	// ListUnlinked returns payments without an offer ordered by (paid_at, id),
	// starting strictly after the cursor.
	ListUnlinked(ctx context.Context, after PaymentCursor, limit int) ([]domain.Payment, error)
}

// PaymentCursor is a position in the (paid_at, id) ordering of payments.
// The zero value points before the first payment.
type PaymentCursor struct {
	PaidAt time.Time
	ID     string
}

// IsZero reports whether the cursor is at the start.
func (c PaymentCursor) IsZero() bool {
	return c.ID == "" && c.PaidAt.IsZero()
}

// CursorAt returns the cursor positioned on p.
func CursorAt(p domain.Payment) PaymentCursor {
	return PaymentCursor{PaidAt: p.PaidAt, ID: p.ID}
}

// After reports whether p sorts strictly after the cursor.
func (c PaymentCursor) After(p domain.Payment) bool {
	if !p.PaidAt.Equal(c.PaidAt) {
		return p.PaidAt.After(c.PaidAt)
	}
	return p.ID > c.ID
}

type paymentRepository struct {
	db DBTX
}

// NewPaymentRepository instantiates the repository.
func NewPaymentRepository(db DBTX) PaymentRepository {
	return &paymentRepository{db: db}
}

const paymentColumns = `id, property_id, offer_id, buyer_email, agent_email, transaction_id, amount, status, paid_at`

func (r *paymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	const query = `
        INSERT INTO payments (property_id, offer_id, buyer_email, agent_email, transaction_id, amount, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, paid_at`
	err := r.db.QueryRow(ctx, query,
		payment.PropertyID,
		payment.OfferID,
		payment.BuyerEmail,
		payment.AgentEmail,
		payment.TransactionID,
		payment.Amount,
		payment.Status,
	).Scan(&payment.ID, &payment.PaidAt)
	return translateError(err)
}

// LinkOffer records which offer a payment reconciled. Only an unlinked
// payment can be linked, keeping the record otherwise immutable.
func (r *paymentRepository) LinkOffer(ctx context.Context, paymentID, offerID string) error {
	cmd, err := r.db.Exec(ctx, `UPDATE payments SET offer_id=$1 WHERE id=$2 AND offer_id IS NULL`, offerID, paymentID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *paymentRepository) ListSoldByAgent(ctx context.Context, agentEmail string) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE agent_email=$1 AND status=$2 ORDER BY paid_at DESC, id DESC`
	return r.list(ctx, query, agentEmail, domain.PaymentStatusBought)
}

func (r *paymentRepository) ListUnlinked(ctx context.Context, after PaymentCursor, limit int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = 100
	}
	if after.IsZero() {
		query := `SELECT ` + paymentColumns + ` FROM payments WHERE offer_id IS NULL ORDER BY paid_at ASC, id ASC LIMIT $1`
		return r.list(ctx, query, limit)
	}
	query := `SELECT ` + paymentColumns + ` FROM payments
        WHERE offer_id IS NULL AND (paid_at, id) > ($1, $2)
        ORDER BY paid_at ASC, id ASC LIMIT $3`
	return r.list(ctx, query, after.PaidAt, after.ID, limit)
}

func (r *paymentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPayments(rows)
}

func scanPayments(rows pgx.Rows) ([]domain.Payment, error) {
	result := []domain.Payment{}
	for rows.Next() {
		var p domain.Payment
		if err := rows.Scan(
			&p.ID,
			&p.PropertyID,
			&p.OfferID,
			&p.BuyerEmail,
			&p.AgentEmail,
			&p.TransactionID,
			&p.Amount,
			&p.Status,
			&p.PaidAt,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
