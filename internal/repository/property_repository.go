package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/property-market/internal/domain"
)

// PropertyRepository encapsulates listing persistence.
type PropertyRepository interface {
	Create(ctx context.Context, property *domain.Property) error
	Update(ctx context.Context, property *domain.Property) error
	GetByID(ctx context.Context, id string) (*domain.Property, error)
	ListByAgent(ctx context.Context, agentEmail string) ([]domain.Property, error)
	DeleteByAgent(ctx context.Context, agentEmail string) ([]string, error)
}

type propertyRepository struct {
	db DBTX
}

// NewPropertyRepository instantiates the repository.
func NewPropertyRepository(db DBTX) PropertyRepository {
	return &propertyRepository{db: db}
}

const propertyColumns = `id, agent_email, agent_name, title, location, description, image_url,
               price_range, verification_status, created_at, updated_at`

func (r *propertyRepository) Create(ctx context.Context, property *domain.Property) error {
	const query = `
        INSERT INTO properties (agent_email, agent_name, title, location, description, image_url, price_range, verification_status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, created_at, updated_at`
	err := r.db.QueryRow(ctx, query,
		property.AgentEmail,
		property.AgentName,
		property.Title,
		property.Location,
		property.Description,
		property.ImageURL,
		property.PriceRange,
		property.VerificationStatus,
	).Scan(&property.ID, &property.CreatedAt, &property.UpdatedAt)
	return translateError(err)
}

func (r *propertyRepository) Update(ctx context.Context, property *domain.Property) error {
	const query = `
        UPDATE properties SET title=$1, location=$2, description=$3, image_url=$4, price_range=$5,
            verification_status=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	err := r.db.QueryRow(ctx, query,
		property.Title,
		property.Location,
		property.Description,
		property.ImageURL,
		property.PriceRange,
		property.VerificationStatus,
		property.ID,
	).Scan(&property.UpdatedAt)
	return translateError(err)
}

func (r *propertyRepository) GetByID(ctx context.Context, id string) (*domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE id=$1`
	rows, err := r.db.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	properties, err := scanProperties(rows)
	if err != nil {
		return nil, err
	}
	if len(properties) == 0 {
		return nil, ErrNotFound
	}
	return &properties[0], nil
}

func (r *propertyRepository) ListByAgent(ctx context.Context, agentEmail string) ([]domain.Property, error) {
	query := `SELECT ` + propertyColumns + ` FROM properties WHERE agent_email=$1 ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query, agentEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanProperties(rows)
}

func (r *propertyRepository) DeleteByAgent(ctx context.Context, agentEmail string) ([]string, error) {
	rows, err := r.db.Query(ctx, `DELETE FROM properties WHERE agent_email=$1 RETURNING id`, agentEmail)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func scanProperties(rows pgx.Rows) ([]domain.Property, error) {
	result := []domain.Property{}
	for rows.Next() {
		var p domain.Property
		if err := rows.Scan(
			&p.ID,
			&p.AgentEmail,
			&p.AgentName,
			&p.Title,
			&p.Location,
			&p.Description,
			&p.ImageURL,
			&p.PriceRange,
			&p.VerificationStatus,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	return result, rows.Err()
}
