package dto

import (
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/spec-kit/property-market/pkg/util/errorutil"
)

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(&PropertyCreateRequest{Title: "Flat", ImageURL: "not a url"})
	require.True(t, apperrors.HasCode(err, "VALIDATION_FAILED"))
	fields := apperrors.ToDomainError(err).Details["fields"].(map[string]string)
	require.Equal(t, "required", fields["location"])
	require.Equal(t, "required", fields["priceRange"])
	require.Equal(t, "url", fields["imageUrl"])
	require.NotContains(t, fields, "title")
}

func TestValidateAcceptsGoodPayloads(t *testing.T) {
	require.NoError(t, Validate(&RoleUpdateRequest{Role: "agent"}))
	require.Error(t, Validate(&RoleUpdateRequest{Role: "owner"}))
	require.NoError(t, Validate(&OfferCreateRequest{BuyerEmail: "a@x.test"}))
	require.Error(t, Validate(&OfferCreateRequest{BuyerEmail: "nope"}))
}
