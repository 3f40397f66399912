package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/property-market/internal/domain"
)

// OfferRepository encapsulates offer persistence.
type OfferRepository interface {
	Create(ctx context.Context, offer *domain.Offer) error
	GetByID(ctx context.Context, id string) (*domain.Offer, error)
	// ListByPropertyForUpdate returns every offer on the property, oldest
	// first, locking the rows for the rest of the transaction.
	ListByPropertyForUpdate(ctx context.Context, propertyID string) ([]domain.Offer, error)
	// FindByPropertyAndBuyer returns matches oldest first, locking them.
	FindByPropertyAndBuyer(ctx context.Context, propertyID, buyerEmail string) ([]domain.Offer, error)
	UpdateStatus(ctx context.Context, id string, status domain.OfferStatus) error
	RejectSiblings(ctx context.Context, propertyID, exceptID string) (int64, error)
	MarkBought(ctx context.Context, id, transactionID string) (matched, modified int64, err error)
	// RejectLiveByProperties rejects pending and accepted offers on the given
	// properties and returns them as rejected.
	RejectLiveByProperties(ctx context.Context, propertyIDs []string) ([]domain.Offer, error)
	ListByBuyer(ctx context.Context, buyerEmail string) ([]domain.Offer, error)
	ListByAgent(ctx context.Context, agentEmail string) ([]domain.Offer, error)
}

type offerRepository struct {
	db DBTX
}

// NewOfferRepository instantiates the repository.
func NewOfferRepository(db DBTX) OfferRepository {
	return &offerRepository{db: db}
}

const offerColumns = `id, property_id, property_title, property_location, agent_name, agent_email,
               buyer_email, buyer_name, offer_amount, buying_date, images, status, transaction_id,
               created_at, updated_at`

func (r *offerRepository) Create(ctx context.Context, offer *domain.Offer) error {
	const query = `
        INSERT INTO offers (property_id, property_title, property_location, agent_name, agent_email,
            buyer_email, buyer_name, offer_amount, buying_date, images, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	images := offer.Images
	if images == nil {
		images = []string{}
	}
	err := r.db.QueryRow(ctx, query,
		offer.PropertyID,
		offer.PropertyTitle,
		offer.PropertyLocation,
		offer.AgentName,
		offer.AgentEmail,
		offer.BuyerEmail,
		offer.BuyerName,
		offer.OfferAmount,
		offer.BuyingDate,
		images,
		offer.Status,
	).Scan(&offer.ID, &offer.CreatedAt, &offer.UpdatedAt)
	return translateError(err)
}

func (r *offerRepository) GetByID(ctx context.Context, id string) (*domain.Offer, error) {
	offers, err := r.list(ctx, `SELECT `+offerColumns+` FROM offers WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	if len(offers) == 0 {
		return nil, ErrNotFound
	}
	return &offers[0], nil
}

func (r *offerRepository) ListByPropertyForUpdate(ctx context.Context, propertyID string) ([]domain.Offer, error) {
	return r.list(ctx, `SELECT `+offerColumns+` FROM offers WHERE property_id=$1
        ORDER BY created_at ASC, id ASC FOR UPDATE`, propertyID)
}

func (r *offerRepository) FindByPropertyAndBuyer(ctx context.Context, propertyID, buyerEmail string) ([]domain.Offer, error) {
	return r.list(ctx, `SELECT `+offerColumns+` FROM offers WHERE property_id=$1 AND buyer_email=$2
        ORDER BY created_at ASC, id ASC FOR UPDATE`, propertyID, buyerEmail)
}

func (r *offerRepository) UpdateStatus(ctx context.Context, id string, status domain.OfferStatus) error {
	cmd, err := r.db.Exec(ctx, `UPDATE offers SET status=$1, updated_at=NOW() WHERE id=$2`, status, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *offerRepository) RejectSiblings(ctx context.Context, propertyID, exceptID string) (int64, error) {
	const query = `
        UPDATE offers SET status=$1, updated_at=NOW()
        WHERE property_id=$2 AND id<>$3 AND status<>$1`
	cmd, err := r.db.Exec(ctx, query, domain.OfferStatusRejected, propertyID, exceptID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *offerRepository) MarkBought(ctx context.Context, id, transactionID string) (int64, int64, error) {
	const query = `
        WITH target AS (SELECT id, status, transaction_id FROM offers WHERE id=$1)
        UPDATE offers o SET status=$2, transaction_id=$3, updated_at=NOW()
        FROM target t
        WHERE o.id=t.id
        RETURNING (t.status IS DISTINCT FROM $2 OR t.transaction_id IS DISTINCT FROM $3)`
	var modified bool
	err := r.db.QueryRow(ctx, query, id, domain.OfferStatusBought, transactionID).Scan(&modified)
	if err != nil {
		err = translateError(err)
		if err == ErrNotFound {
			return 0, 0, nil
		}
		return 0, 0, err
	}
	if modified {
		return 1, 1, nil
	}
	return 1, 0, nil
}

func (r *offerRepository) RejectLiveByProperties(ctx context.Context, propertyIDs []string) ([]domain.Offer, error) {
	if len(propertyIDs) == 0 {
		return []domain.Offer{}, nil
	}
	query := `
        UPDATE offers SET status=$1, updated_at=NOW()
        WHERE property_id = ANY($2) AND status IN ($3, $4)
        RETURNING ` + offerColumns
	return r.list(ctx, query,
		domain.OfferStatusRejected,
		propertyIDs,
		domain.OfferStatusPending,
		domain.OfferStatusAccepted,
	)
}

func (r *offerRepository) ListByBuyer(ctx context.Context, buyerEmail string) ([]domain.Offer, error) {
	return r.list(ctx, `SELECT `+offerColumns+` FROM offers WHERE buyer_email=$1 ORDER BY created_at DESC, id DESC`, buyerEmail)
}

func (r *offerRepository) ListByAgent(ctx context.Context, agentEmail string) ([]domain.Offer, error) {
	return r.list(ctx, `SELECT `+offerColumns+` FROM offers WHERE agent_email=$1 ORDER BY created_at DESC, id DESC`, agentEmail)
}

func (r *offerRepository) list(ctx context.Context, query string, args ...any) ([]domain.Offer, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanOffers(rows)
}

func scanOffers(rows pgx.Rows) ([]domain.Offer, error) {
	result := []domain.Offer{}
	for rows.Next() {
		var o domain.Offer
		if err := rows.Scan(
			&o.ID,
			&o.PropertyID,
			&o.PropertyTitle,
			&o.PropertyLocation,
			&o.AgentName,
			&o.AgentEmail,
			&o.BuyerEmail,
			&o.BuyerName,
			&o.OfferAmount,
			&o.BuyingDate,
			&o.Images,
			&o.Status,
			&o.TransactionID,
			&o.CreatedAt,
			&o.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, o)
	}
	return result, rows.Err()
}
