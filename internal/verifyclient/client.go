// Package verifyclient calls the backend's payment-verification
// endpoint with the gateway's signed completion payload.
package verifyclient

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

// ErrServiceUnavailable covers transport failures and 5xx answers from
// the verification endpoint.
var ErrServiceUnavailable = errors.New("verification service unavailable")

// Client is a thin HTTP client for the verification endpoint. The
// completion payload is forwarded verbatim; the signature is only ever
// checked server-side.
type Client struct {
	baseURL string
	path    string
	client  *http.Client
}

func New(baseURL, path string, timeout time.Duration) *Client {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	return &Client{
		baseURL: baseURL,
		path:    path,
		client: &http.Client{
			Timeout:   timeout,
			Transport: transport,
		},
	}
}

type apiErrorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// VerifyPayment asks the backend to confirm a gateway completion. A
// definitive rejection comes back as a VerificationResult with
// Success=false, not as an error; errors mean the call itself failed.
func (c *Client) VerifyPayment(ctx context.Context, traceCtx session.TraceContext, payload checkout.GatewayCompletionPayload) (checkout.VerificationResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return checkout.VerificationResult{}, fmt.Errorf("failed to marshal verification request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.path, bytes.NewBuffer(body))
	if err != nil {
		return checkout.VerificationResult{}, fmt.Errorf("failed to create verification request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		log.Warn().Str("trace_id", traceCtx.TraceID).Err(err).Msg("verification transport failure")
		return checkout.VerificationResult{}, fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		var result checkout.VerificationResult
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return checkout.VerificationResult{}, fmt.Errorf("failed to decode verification response: %w", err)
		}
		log.Info().
			Str("trace_id", traceCtx.TraceID).
			Bool("success", result.Success).
			Str("order_number", result.OrderNumber).
			Msg("verification resolved")
		return result, nil
	}

	var errBody apiErrorBody
	_ = json.NewDecoder(resp.Body).Decode(&errBody)
	detail := checkout.FirstMessage("", errBody.Detail, errBody.Message)
	log.Warn().
		Str("trace_id", traceCtx.TraceID).
		Int("status", resp.StatusCode).
		Str("detail", detail).
		Msg("verification call rejected")
	return checkout.VerificationResult{}, &checkout.ServerError{StatusCode: resp.StatusCode, Detail: detail}
}
