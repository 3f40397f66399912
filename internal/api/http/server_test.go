package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/property-market/internal/api/http/handlers"
	"github.com/spec-kit/property-market/internal/auth"
	"github.com/spec-kit/property-market/internal/domain"
	"github.com/spec-kit/property-market/internal/events"
	"github.com/spec-kit/property-market/internal/observability"
	"github.com/spec-kit/property-market/internal/repository"
	"github.com/spec-kit/property-market/internal/service"
)

type testServer struct {
	app    *fiber.App
	store  repository.Store
	tokens *auth.TokenManager
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	store := repository.NewMemoryStore()
	tokens := auth.NewTokenManager("test-secret", 10)
	dispatcher := events.NewInMemoryDispatcher(nil)
	metrics := observability.NewMetrics()

	app := NewServer(ServerDependencies{
		ServiceName: "property-market",
		Version:     "test",
		Metrics:     metrics,
		Store:       store,
		Tokens:      tokens,
		Readiness:   map[string]handlers.Pinger{"store": store},
		Users:       service.NewUserService(store, tokens),
		Properties:  service.NewPropertyService(store),
		Offers:      service.NewOfferService(service.OfferDependencies{Store: store, Dispatcher: dispatcher, Metrics: metrics}),
		Payments: service.NewPaymentService(service.PaymentDependencies{
			Store:                store,
			Dispatcher:           dispatcher,
			Metrics:              metrics,
			RequireAcceptedOffer: true,
		}),
		Trust: service.NewTrustService(service.TrustDependencies{Store: store, Dispatcher: dispatcher, Metrics: metrics}),
	})
	return &testServer{app: app, store: store, tokens: tokens}
}

func (s *testServer) user(t *testing.T, email string, role domain.UserRole) (*domain.User, string) {
	t.Helper()
	u := &domain.User{Email: email, Name: "Name " + email, Role: role}
	require.NoError(t, s.store.Users().Create(context.Background(), u))
	token, _, err := s.tokens.GenerateToken(u)
	require.NoError(t, err)
	return u, token
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (int, map[string]any, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out, raw
}

func errorCode(body map[string]any) string {
	errObj, _ := body["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestOfferWorkflowOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin@x.test", domain.RoleAdmin)
	agent, agentToken := s.user(t, "agent@x.test", domain.RoleAgent)
	_, buyerToken := s.user(t, "buyer@x.test", domain.RoleCustomer)
	rival, rivalToken := s.user(t, "rival@x.test", domain.RoleCustomer)

	status, body, _ := s.do(t, nethttp.MethodPost, "/properties", agentToken, map[string]any{
		"title": "Lake house", "location": "Dhaka", "priceRange": "$100-$200",
	})
	require.Equal(t, nethttp.StatusCreated, status)
	propertyID := body["data"].(map[string]any)["id"].(string)

	offer := func(token string, amount float64) (int, map[string]any) {
		status, body, _ := s.do(t, nethttp.MethodPost, "/offers", token, map[string]any{
			"propertyId":  propertyID,
			"offerAmount": amount,
			"buyingDate":  "2024-06-01",
			"agentEmail":  agent.Email,
		})
		return status, body
	}

	status, body = offer(buyerToken, 150)
	require.Equal(t, nethttp.StatusCreated, status)
	winnerID := body["insertedId"].(string)

	status, body = offer(buyerToken, 50)
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "RANGE_VIOLATION", errorCode(body))
	message := body["error"].(map[string]any)["message"].(string)
	require.Contains(t, message, "100")
	require.Contains(t, message, "200")

	status, _ = offer(agentToken, 150)
	require.Equal(t, nethttp.StatusForbidden, status)

	status, _ = offer(rivalToken, 180)
	require.Equal(t, nethttp.StatusCreated, status)

	status, body, _ = s.do(t, nethttp.MethodPatch, "/offers/"+winnerID+"/status", agentToken, map[string]any{
		"status": "accepted", "propertyId": propertyID,
	})
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, float64(1), body["siblingsRejected"])

	status, _, raw := s.do(t, nethttp.MethodGet, "/buyer-offers?buyerEmail="+rival.Email, rivalToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var rivalOffers []domain.Offer
	require.NoError(t, json.Unmarshal(raw, &rivalOffers))
	require.Len(t, rivalOffers, 1)
	require.Equal(t, domain.OfferStatusRejected, rivalOffers[0].Status)

	status, body, _ = s.do(t, nethttp.MethodPost, "/payments", buyerToken, map[string]any{
		"propertyId": propertyID, "agentEmail": agent.Email, "transactionId": "pi_http",
	})
	require.Equal(t, nethttp.StatusCreated, status)
	require.Equal(t, float64(1), body["matchedCount"])
	require.Equal(t, float64(1), body["modifiedCount"])
	require.Equal(t, "pi_http", body["transactionId"])

	status, _, raw = s.do(t, nethttp.MethodGet, "/sold-properties?email="+agent.Email, agentToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var sold []domain.Payment
	require.NoError(t, json.Unmarshal(raw, &sold))
	require.Len(t, sold, 1)
	require.Equal(t, "bought", sold[0].Status)

	status, _, raw = s.do(t, nethttp.MethodGet, "/agent-offers?agentEmail="+agent.Email, agentToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	var agentOffers []domain.Offer
	require.NoError(t, json.Unmarshal(raw, &agentOffers))
	require.Len(t, agentOffers, 2)
	require.Equal(t, domain.OfferStatusRejected, agentOffers[0].Status)
	require.Equal(t, domain.OfferStatusBought, agentOffers[1].Status)

	status, body, _ = s.do(t, nethttp.MethodPatch, "/user/"+agent.ID+"/fraud", adminToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, float64(1), body["deletedCount"])

	status, body, _ = s.do(t, nethttp.MethodGet, "/agent-properties", agentToken, nil)
	require.Equal(t, nethttp.StatusForbidden, status)
	require.Equal(t, "FORBIDDEN", errorCode(body))

	status, body, _ = s.do(t, nethttp.MethodDelete, "/user/"+rival.ID, adminToken, nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, false, body["identityDeleted"])
}

func TestTrustAndValidationErrorsOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin@x.test", domain.RoleAdmin)
	customer, customerToken := s.user(t, "cust@x.test", domain.RoleCustomer)

	status, body, _ := s.do(t, nethttp.MethodPatch, "/user/"+customer.ID+"/fraud", adminToken, nil)
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body, _ = s.do(t, nethttp.MethodPatch, "/user/missing/fraud", adminToken, nil)
	require.Equal(t, nethttp.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", errorCode(body))

	status, _, _ = s.do(t, nethttp.MethodPatch, "/user/"+customer.ID+"/fraud", customerToken, nil)
	require.Equal(t, nethttp.StatusForbidden, status)

	status, body, _ = s.do(t, nethttp.MethodPatch, "/offers/missing/status", adminToken, map[string]any{"status": "accepted"})
	require.Equal(t, nethttp.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", errorCode(body))

	status, body, _ = s.do(t, nethttp.MethodPatch, "/offers/missing/status", adminToken, map[string]any{"status": "sold"})
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body, _ = s.do(t, nethttp.MethodPost, "/offers", customerToken, map[string]any{"offerAmount": 10})
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body, _ = s.do(t, nethttp.MethodPost, "/offers", customerToken, map[string]any{
		"propertyId": "missing", "offerAmount": 10, "buyingDate": "2024-06-01", "agentEmail": "a@x.test",
	})
	require.Equal(t, nethttp.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", errorCode(body))

	status, body, _ = s.do(t, nethttp.MethodGet, "/buyer-offers", "", nil)
	require.Equal(t, nethttp.StatusUnauthorized, status)
	require.Equal(t, "UNAUTHORIZED", errorCode(body))

	status, _, _ = s.do(t, nethttp.MethodGet, "/buyer-offers", "garbage", nil)
	require.Equal(t, nethttp.StatusUnauthorized, status)

	status, body, _ = s.do(t, nethttp.MethodPost, "/create-payment-intent", customerToken, map[string]any{"price": 100})
	require.Equal(t, nethttp.StatusInternalServerError, status)
	require.Equal(t, "EXTERNAL_FAILURE", errorCode(body))
}

func TestUsersAndHealthOverHTTP(t *testing.T) {
	s := newTestServer(t)
	_, adminToken := s.user(t, "admin@x.test", domain.RoleAdmin)

	status, body, _ := s.do(t, nethttp.MethodGet, "/health/live", "", nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, "alive", body["status"])

	status, body, _ = s.do(t, nethttp.MethodGet, "/health/ready", "", nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, "ready", body["status"])

	status, body, _ = s.do(t, nethttp.MethodPost, "/users", "", map[string]any{"email": "new@x.test", "name": "New"})
	require.Equal(t, nethttp.StatusCreated, status)
	newID := body["data"].(map[string]any)["id"].(string)

	status, _, _ = s.do(t, nethttp.MethodPost, "/users", "", map[string]any{"email": "new@x.test"})
	require.Equal(t, nethttp.StatusOK, status)

	status, body, _ = s.do(t, nethttp.MethodPost, "/users", "", map[string]any{"email": "not-an-email"})
	require.Equal(t, nethttp.StatusBadRequest, status)
	require.Equal(t, "VALIDATION_FAILED", errorCode(body))

	status, body, _ = s.do(t, nethttp.MethodPost, "/jwt", "", map[string]any{"email": "new@x.test"})
	require.Equal(t, nethttp.StatusOK, status)
	token := body["token"].(string)
	require.Equal(t, "customer", body["role"])

	status, body, _ = s.do(t, nethttp.MethodGet, "/users/role/new@x.test", token, nil)
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, "customer", body["role"])

	status, _, _ = s.do(t, nethttp.MethodPatch, "/users/"+newID+"/role", token, map[string]any{"role": "admin"})
	require.Equal(t, nethttp.StatusForbidden, status)

	status, body, _ = s.do(t, nethttp.MethodPatch, "/users/"+newID+"/role", adminToken, map[string]any{"role": "agent"})
	require.Equal(t, nethttp.StatusOK, status)
	require.Equal(t, "agent", body["data"].(map[string]any)["role"])

	status, body, _ = s.do(t, nethttp.MethodGet, "/nope", "", nil)
	require.Equal(t, nethttp.StatusNotFound, status)
	require.Equal(t, "NOT_FOUND", errorCode(body))
}
