package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOfferStatusTerminal(t *testing.T) {
	require.False(t, OfferStatusPending.Terminal())
	require.False(t, OfferStatusAccepted.Terminal())
	require.True(t, OfferStatusRejected.Terminal())
	require.True(t, OfferStatusBought.Terminal())
}

func TestUserRoleValid(t *testing.T) {
	require.True(t, RoleAgent.Valid())
	require.False(t, UserRole("owner").Valid())
}
