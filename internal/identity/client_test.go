package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/spec-kit/property-market/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	c, err := NewClient(config.IdentityConfig{BaseURL: srv.URL + "/admin", APIKey: "secret"})
	require.NoError(t, err)
	return c
}

func TestResolveAndDelete(t *testing.T) {
	var deleted string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/admin/accounts":
			require.Equal(t, "a@x.test", r.URL.Query().Get("email"))
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "acct-1", "email": "a@x.test"})
		case r.Method == http.MethodDelete && r.URL.Path == "/admin/accounts/acct-1":
			deleted = "acct-1"
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusTeapot)
		}
	})

	id, err := c.ResolveByEmail(context.Background(), "a@x.test")
	require.NoError(t, err)
	require.Equal(t, "acct-1", id)
	require.NoError(t, c.Delete(context.Background(), id))
	require.Equal(t, "acct-1", deleted)
}

func TestErrorsAreTyped(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := c.ResolveByEmail(context.Background(), "missing@x.test")
	require.ErrorIs(t, err, ErrAccountNotFound)

	err = c.Delete(context.Background(), "acct-1")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	require.Equal(t, "upstream down", statusErr.Body)
}

func TestUnconfiguredClient(t *testing.T) {
	c, err := NewClient(config.IdentityConfig{})
	require.NoError(t, err)
	_, err = c.ResolveByEmail(context.Background(), "a@x.test")
	require.ErrorIs(t, err, ErrNotConfigured)
	require.Equal(t, config.IdentityConfig{}.Timeout(), c.Timeout())
}
