package service

import (
	"context"
	"strings"

	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/pricing"
	"github.com/spec-kit/property-market/internal/repository"
	apperrors "github.com/spec-kit/property-market/pkg/util/errorutil"
)

// PropertyService owns listing records.
type PropertyService struct {
	store repository.Store
}

// PropertyCreateInput describes a new listing.
type PropertyCreateInput struct {
	Title       string
	Location    string
	Description string
	ImageURL    string
	PriceRange  string
}

// NewPropertyService builds the service.
func NewPropertyService(store repository.Store) *PropertyService {
	return &PropertyService{store: store}
}

// Create stores a pending listing owned by agent.
func (s *PropertyService) Create(ctx context.Context, agent *domain.User, input PropertyCreateInput) (*domain.Property, error) {
	if err := requireFields(map[string]string{
		"title":      input.Title,
		"location":   input.Location,
		"priceRange": input.PriceRange,
	}); err != nil {
		return nil, err
	}
	if err := validatePriceRange(input.PriceRange); err != nil {
		return nil, err
	}

	property := &domain.Property{
		AgentEmail:         normalizeEmail(agent.Email),
		AgentName:          agent.Name,
		Title:              strings.TrimSpace(input.Title),
		Location:           strings.TrimSpace(input.Location),
		Description:        strings.TrimSpace(input.Description),
		ImageURL:           strings.TrimSpace(input.ImageURL),
		PriceRange:         strings.TrimSpace(input.PriceRange),
		VerificationStatus: domain.VerificationPending,
	}
	if err := s.store.Properties().Create(ctx, property); err != nil {
		return nil, err
	}
	return property, nil
}

// Get returns a listing.
func (s *PropertyService) Get(ctx context.Context, id string) (*domain.Property, error) {
	property, err := s.store.Properties().GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "property", id)
	}
	return property, nil
}

// Update applies owner edits. Only the owning agent may edit.
func (s *PropertyService) Update(ctx context.Context, callerEmail, id string, patch domain.PropertyPatch) (*domain.Property, error) {
	if patch.PriceRange != nil {
		if err := validatePriceRange(*patch.PriceRange); err != nil {
			return nil, err
		}
	}

	var property *domain.Property
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		property, err = tx.Properties().GetByID(ctx, id)
		if err != nil {
			return notFound(err, "property", id)
		}
		if property.AgentEmail != normalizeEmail(callerEmail) {
			return apperrors.NewForbidden("only the owning agent can edit this property")
		}
		applyPatch(property, patch)
		return tx.Properties().Update(ctx, property)
	})
	if err != nil {
		return nil, err
	}
	return property, nil
}

// SetVerification records an admin review outcome.
func (s *PropertyService) SetVerification(ctx context.Context, id string, status domain.VerificationStatus) (*domain.Property, error) {
	if status != domain.VerificationVerified && status != domain.VerificationRejected {
		return nil, apperrors.NewValidationError("verification status must be verified or rejected",
			map[string]any{"status": string(status)})
	}
	var property *domain.Property
	err := s.store.WithinTx(ctx, func(tx repository.Store) error {
		var err error
		property, err = tx.Properties().GetByID(ctx, id)
		if err != nil {
			return notFound(err, "property", id)
		}
		property.VerificationStatus = status
		return tx.Properties().Update(ctx, property)
	})
	if err != nil {
		return nil, err
	}
	return property, nil
}

// ListByAgent returns the agent's listings, newest first.
func (s *PropertyService) ListByAgent(ctx context.Context, agentEmail string) ([]domain.Property, error) {
	if strings.TrimSpace(agentEmail) == "" {
		return nil, apperrors.NewValidationError("email is required", nil)
	}
	properties, err := s.store.Properties().ListByAgent(ctx, normalizeEmail(agentEmail))
	if err != nil {
		return nil, err
	}
	if properties == nil {
		properties = []domain.Property{}
	}
	return properties, nil
}

func applyPatch(p *domain.Property, patch domain.PropertyPatch) {
	if patch.Title != nil {
		p.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Location != nil {
		p.Location = strings.TrimSpace(*patch.Location)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.ImageURL != nil {
		p.ImageURL = strings.TrimSpace(*patch.ImageURL)
	}
	if patch.PriceRange != nil {
		p.PriceRange = strings.TrimSpace(*patch.PriceRange)
	}
}

func validatePriceRange(raw string) error {
	if _, err := pricing.ParseRange(raw); err != nil {
		return apperrors.NewValidationError("price range must look like $100-$200",
			map[string]any{"priceRange": raw})
	}
	return nil
}
