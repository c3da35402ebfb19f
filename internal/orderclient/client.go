// Package orderclient calls the backend's order-creation endpoint and
// classifies its failures for the checkout flow.
package orderclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	json "github.com/json-iterator/go"
	"github.com/rs/zerolog/log"

	"github.com/yourorg/checkout-orchestrator/internal/checkout"
	"github.com/yourorg/checkout-orchestrator/internal/session"
)

var (
	// ErrServiceUnavailable covers transport failures and 5xx answers.
	ErrServiceUnavailable = errors.New("order service unavailable")
	// ErrCircuitOpen is returned without a network call while the
	// breaker holds the endpoint open.
	ErrCircuitOpen = errors.New("order service circuit open")
)

type createOrderRequest struct {
	Amount       float64 `json:"amount"`
	Currency     string  `json:"currency"`
	Purpose      string  `json:"purpose"`
	Description  string  `json:"description"`
	FeePaymentID string  `json:"fee_payment_id,omitempty"`
	StudentID    string  `json:"student_id,omitempty"`
	PayerName    string  `json:"payer_name"`
	PayerEmail   string  `json:"payer_email"`
	PayerPhone   string  `json:"payer_phone"`
}

type apiErrorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// Client is a thin HTTP client for the order-creation endpoint.
type Client struct {
	baseURL  string
	path     string
	currency string
	client   *http.Client
	breaker  *Breaker
}

// New creates a Client. currency is the tenant's billing currency sent
// with every order request.
func New(baseURL, path, currency string, timeout time.Duration, breaker *Breaker) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	if breaker == nil {
		breaker = NewBreaker()
	}
	return &Client{
		baseURL:  baseURL,
		path:     path,
		currency: currency,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
		breaker: breaker,
	}
}

// CreateOrder asks the backend to create a merchant order for the given
// payment request. On non-2xx answers the server's structured detail
// field, when present, is surfaced as a *checkout.ServerError.
func (c *Client) CreateOrder(ctx context.Context, traceCtx session.TraceContext, req checkout.PaymentRequest) (checkout.OrderDescriptor, error) {
	if !c.breaker.Allow() {
		return checkout.OrderDescriptor{}, ErrCircuitOpen
	}

	body, err := json.Marshal(createOrderRequest{
		Amount:       req.Amount,
		Currency:     c.currency,
		Purpose:      req.Purpose,
		Description:  req.Description,
		FeePaymentID: req.FeePaymentID,
		StudentID:    req.StudentID,
		PayerName:    req.PayerName,
		PayerEmail:   req.PayerEmail,
		PayerPhone:   req.PayerPhone,
	})
	if err != nil {
		return checkout.OrderDescriptor{}, fmt.Errorf("failed to marshal order request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewBuffer(body))
	if err != nil {
		return checkout.OrderDescriptor{}, fmt.Errorf("failed to create order request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		c.breaker.RecordFailure()
		log.Warn().Str("trace_id", traceCtx.TraceID).Err(err).Msg("order creation transport failure")
		return checkout.OrderDescriptor{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var order checkout.OrderDescriptor
		if err := json.NewDecoder(resp.Body).Decode(&order); err != nil {
			c.breaker.RecordFailure()
			return checkout.OrderDescriptor{}, fmt.Errorf("failed to decode order response: %w", err)
		}
		c.breaker.RecordSuccess()
		log.Info().
			Str("trace_id", traceCtx.TraceID).
			Str("order_number", order.OrderNumber).
			Str("gateway_order_id", order.GatewayOrderID).
			Float64("total_amount", order.TotalAmount).
			Msg("order created")
		return order, nil
	}

	if resp.StatusCode >= 500 {
		c.breaker.RecordFailure()
	} else {
		// 4xx is a definitive rejection of this request, not endpoint
		// ill health.
		c.breaker.RecordSuccess()
	}

	var errBody apiErrorBody
	_ = json.NewDecoder(resp.Body).Decode(&errBody)
	detail := checkout.FirstMessage("", errBody.Detail, errBody.Message)
	log.Warn().
		Str("trace_id", traceCtx.TraceID).
		Int("status", resp.StatusCode).
		Str("detail", detail).
		Msg("order creation rejected")
	return checkout.OrderDescriptor{}, &checkout.ServerError{StatusCode: resp.StatusCode, Detail: detail}
}
