package verifyclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/checkout-orchestrator/internal/checkout"
	"github.com/yourorg/checkout-orchestrator/internal/session"
)

func completionPayload() checkout.GatewayCompletionPayload {
	return checkout.GatewayCompletionPayload{
		OrderID:   "gw_1",
		PaymentID: "pay_1",
		Signature: "sig",
	}
}

func TestVerifyPayment_Success(t *testing.T) {
	var captured map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/payments/verify", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success":        true,
			"order_number":   "ORD-1",
			"transaction_id": "TXN-1",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "/api/payments/verify", 5*time.Second)
	result, err := c.VerifyPayment(context.Background(), session.NewTraceContext(), completionPayload())
	require.NoError(t, err)

	assert.True(t, result.Success)
	assert.Equal(t, "ORD-1", result.OrderNumber)
	assert.Equal(t, "TXN-1", result.TransactionID)

	// The payload must be forwarded verbatim under the backend's keys.
	assert.Equal(t, "gw_1", captured["gateway_order_id"])
	assert.Equal(t, "pay_1", captured["gateway_payment_id"])
	assert.Equal(t, "sig", captured["gateway_signature"])
}

func TestVerifyPayment_Rejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"success": false,
			"message": "Signature mismatch",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "/verify", 5*time.Second)
	result, err := c.VerifyPayment(context.Background(), session.NewTraceContext(), completionPayload())
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Equal(t, "Signature mismatch", result.Message)
}

func TestVerifyPayment_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		json.NewEncoder(w).Encode(map[string]string{"detail": "upstream gateway down"})
	}))
	defer srv.Close()

	c := New(srv.URL, "/verify", 5*time.Second)
	_, err := c.VerifyPayment(context.Background(), session.NewTraceContext(), completionPayload())
	require.Error(t, err)

	var srvErr *checkout.ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, "upstream gateway down", srvErr.Detail)
}

func TestVerifyPayment_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := New(srv.URL, "/verify", time.Second)
	_, err := c.VerifyPayment(context.Background(), session.NewTraceContext(), completionPayload())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}
