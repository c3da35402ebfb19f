package orderclient

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

func paymentRequest() checkout.PaymentRequest {
	return checkout.PaymentRequest{
		Amount:     1000,
		Purpose:    "tuition_fee",
		PayerName:  "A",
		PayerEmail: "a@b.com",
		PayerPhone: "9999999999",
	}
}

func TestCreateOrder_Success(t *testing.T) {
	var captured map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/payments/orders", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		json.NewEncoder(w).Encode(map[string]interface{}{
			"order_number":     "ORD-1",
			"gateway_order_id": "gw_1",
			"total_amount":     1010.0,
			"currency":         "INR",
			"gateway_data":     map[string]string{"key_id": "rzp_test_key"},
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "/api/payments/orders", "INR", 5*time.Second, nil)
	order, err := c.CreateOrder(context.Background(), session.NewTraceContext(), paymentRequest())
	require.NoError(t, err)

	assert.Equal(t, "ORD-1", order.OrderNumber)
	assert.Equal(t, "gw_1", order.GatewayOrderID)
	assert.Equal(t, 1010.0, order.TotalAmount)
	assert.Equal(t, "INR", order.Currency)
	assert.Equal(t, "rzp_test_key", order.GatewayData.KeyID)

	assert.Equal(t, 1000.0, captured["amount"])
	assert.Equal(t, "INR", captured["currency"])
	assert.Equal(t, "9999999999", captured["payer_phone"])
}

func TestCreateOrder_ServerDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"detail": "Fee already settled"})
	}))
	defer srv.Close()

	c := New(srv.URL, "/orders", "INR", 5*time.Second, nil)
	_, err := c.CreateOrder(context.Background(), session.NewTraceContext(), paymentRequest())
	require.Error(t, err)

	var srvErr *checkout.ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Equal(t, http.StatusUnprocessableEntity, srvErr.StatusCode)
	assert.Equal(t, "Fee already settled", srvErr.Detail)
	assert.Equal(t, "Fee already settled", srvErr.Error())
}

func TestCreateOrder_ServerErrorNoDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "/orders", "INR", 5*time.Second, nil)
	_, err := c.CreateOrder(context.Background(), session.NewTraceContext(), paymentRequest())
	require.Error(t, err)

	var srvErr *checkout.ServerError
	require.ErrorAs(t, err, &srvErr)
	assert.Empty(t, srvErr.Detail)
	assert.Contains(t, srvErr.Error(), "500")
}

func TestCreateOrder_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // Refuse all connections.

	c := New(srv.URL, "/orders", "INR", time.Second, nil)
	_, err := c.CreateOrder(context.Background(), session.NewTraceContext(), paymentRequest())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrServiceUnavailable)
}

func TestCreateOrder_BreakerOpens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	breaker := NewBreakerWithSettings(2, time.Minute, 1)
	c := New(srv.URL, "/orders", "INR", time.Second, breaker)

	for i := 0; i < 2; i++ {
		_, err := c.CreateOrder(context.Background(), session.NewTraceContext(), paymentRequest())
		require.Error(t, err)
	}
	assert.Equal(t, BreakerOpen, breaker.State())

	_, err := c.CreateOrder(context.Background(), session.NewTraceContext(), paymentRequest())
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCreateOrder_RejectionDoesNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"detail": "bad request"})
	}))
	defer srv.Close()

	breaker := NewBreakerWithSettings(2, time.Minute, 1)
	c := New(srv.URL, "/orders", "INR", time.Second, breaker)

	for i := 0; i < 5; i++ {
		_, err := c.CreateOrder(context.Background(), session.NewTraceContext(), paymentRequest())
		require.Error(t, err)
	}
	assert.Equal(t, BreakerClosed, breaker.State())
}

func TestBreaker_HalfOpenRecovery(t *testing.T) {
	b := NewBreakerWithSettings(1, 10*time.Millisecond, 2)

	b.RecordFailure()
	assert.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow())

	time.Sleep(20 * time.Millisecond)
	assert.True(t, b.Allow())
	assert.Equal(t, BreakerHalfOpen, b.State())

	b.RecordSuccess()
	assert.Equal(t, BreakerHalfOpen, b.State())
	b.RecordSuccess()
	assert.Equal(t, BreakerClosed, b.State())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreakerWithSettings(1, 10*time.Millisecond, 2)

	b.RecordFailure()
	time.Sleep(20 * time.Millisecond)
	require.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, BreakerOpen, b.State())
	assert.False(t, b.Allow())
}
