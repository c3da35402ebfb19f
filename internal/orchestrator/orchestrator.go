// Package orchestrator owns the checkout state machine. It sequences
// payer validation, order creation, the gateway widget and server-side
// verification, and maps every outcome onto one of the fixed checkout
// statuses. One orchestrator instance carries at most one attempt at a
// time.
package orchestrator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"github.com/yourorg/checkout-orchestrator/internal/checkout"
	"github.com/yourorg/checkout-orchestrator/internal/gateway"
	"github.com/yourorg/checkout-orchestrator/internal/metrics"
	"github.com/yourorg/checkout-orchestrator/internal/policy"
	"github.com/yourorg/checkout-orchestrator/internal/session"
)

// OrderService creates a merchant order for a payment request.
type OrderService interface {
	CreateOrder(ctx context.Context, traceCtx session.TraceContext, req checkout.PaymentRequest) (checkout.OrderDescriptor, error)
}

// VerificationService confirms a gateway completion server-side.
type VerificationService interface {
	VerifyPayment(ctx context.Context, traceCtx session.TraceContext, payload checkout.GatewayCompletionPayload) (checkout.VerificationResult, error)
}

// Callbacks is the caller-facing notification surface. For a terminal
// attempt exactly one of OnSuccess/OnFailure fires, never both.
// Dismissing the widget fires neither.
type Callbacks struct {
	OnSuccess func(orderNumber, transactionID string)
	OnFailure func(message string)
	OnClose   func()
}

// Config carries the per-tenant checkout settings.
type Config struct {
	GatewayName  string
	MerchantName string
	ThemeColor   string

	// GatewayDeadline bounds how long an open widget may stay
	// unresolved before the attempt fails. Zero means wait forever.
	GatewayDeadline time.Duration
}

var (
	// ErrAttemptInFlight rejects startPayment while an attempt is
	// already running; the caller's state is untouched.
	ErrAttemptInFlight = errors.New("a checkout attempt is already in flight")
	// ErrPaymentInProgress rejects close while the widget is open; an
	// in-flight payment must not be abandoned mid-flow.
	ErrPaymentInProgress = errors.New("payment in progress, close ignored")
	// ErrNoFailedAttempt rejects retry when the attempt is not failed.
	ErrNoFailedAttempt = errors.New("no failed attempt to retry")
	// ErrRetryDenied means the retry policy exhausted the budget.
	ErrRetryDenied = errors.New("retry denied by policy")
)

// User-facing fallback messages, used only when neither a server detail
// nor an error message is available.
const (
	msgOrderCreationFailed = "Unable to create payment order. Please try again."
	msgVerificationFailed  = "Payment verification failed"
	msgGatewayUnavailable  = "Gateway SDK not loaded"
	msgCancelled           = "Payment was cancelled"
	msgTimedOut            = "Payment confirmation timed out"
)

// Snapshot is a read-only view of the attempt for status rendering.
type Snapshot struct {
	Status         checkout.Status `json:"status"`
	Message        string          `json:"message,omitempty"`
	Attempt        int             `json:"attempt"`
	TraceID        string          `json:"trace_id,omitempty"`
	OrderNumber    string          `json:"order_number,omitempty"`
	GatewayOrderID string          `json:"gateway_order_id,omitempty"`
	TransactionID  string          `json:"transaction_id,omitempty"`
	TotalAmount    float64         `json:"total_amount,omitempty"`
	Currency       string          `json:"currency,omitempty"`
}

// Orchestrator sequences one checkout attempt at a time.
type Orchestrator struct {
	orders   OrderService
	verifier VerificationService
	adapters *gateway.Registry
	retry    *policy.RetryPolicy
	cfg      Config
	cb       Callbacks

	mu        sync.Mutex
	status    checkout.Status
	message   string
	attemptID string // Epoch token; stale async resolutions are dropped
	attempt   int
	startedAt time.Time
	trace     session.TraceContext
	order     *checkout.OrderDescriptor
	result    *checkout.VerificationResult
	deadline  *time.Timer
}

// New creates an Orchestrator. The retry policy may be nil, in which
// case retries are always honored.
func New(orders OrderService, verifier VerificationService, adapters *gateway.Registry, retry *policy.RetryPolicy, cfg Config, cb Callbacks) *Orchestrator {
	if orders == nil {
		panic("OrderService cannot be nil")
	}
	if verifier == nil {
		panic("VerificationService cannot be nil")
	}
	if adapters == nil {
		panic("gateway registry cannot be nil")
	}
	return &Orchestrator{
		orders:   orders,
		verifier: verifier,
		adapters: adapters,
		retry:    retry,
		cfg:      cfg,
		cb:       cb,
		status:   checkout.StatusIdle,
	}
}

// StartPayment runs one checkout attempt: validate, create the order,
// then hand off to the gateway widget. Validation failures and an
// attempt already in flight are reported synchronously; every later
// outcome arrives through the status and the callbacks.
func (o *Orchestrator) StartPayment(ctx context.Context, req checkout.PaymentRequest) error {
	tracer := otel.Tracer("orchestrator")
	ctx, span := tracer.Start(ctx, "Orchestrator.StartPayment")
	defer span.End()

	o.mu.Lock()
	if o.status != checkout.StatusIdle {
		o.mu.Unlock()
		return ErrAttemptInFlight
	}
	if err := checkout.ValidateRequest(req); err != nil {
		// Validation precedes any state transition or network call;
		// the attempt stays idle with the message set.
		o.message = err.Error()
		o.mu.Unlock()
		return err
	}
	o.status = checkout.StatusCreating
	o.message = ""
	o.attempt++
	o.attemptID = uuid.NewString()
	o.startedAt = time.Now()
	o.trace = session.NewTraceContext()
	o.order = nil
	o.result = nil
	attemptID := o.attemptID
	traceCtx := o.trace
	o.mu.Unlock()

	metrics.RecordOutcome(metrics.OutcomeStarted)
	log.Info().
		Str("trace_id", traceCtx.TraceID).
		Float64("amount", req.Amount).
		Str("purpose", req.Purpose).
		Msg("checkout attempt started")

	order, err := o.orders.CreateOrder(ctx, traceCtx, req)
	if err != nil {
		o.failAttempt(attemptID, checkout.StatusCreating, failureMessage(err, msgOrderCreationFailed))
		return nil
	}

	o.mu.Lock()
	if o.attemptID != attemptID || o.status != checkout.StatusCreating {
		// Attempt was closed while the order call was in flight; the
		// descriptor is discarded.
		o.mu.Unlock()
		return nil
	}
	o.order = &order
	o.mu.Unlock()

	adapter, err := o.adapters.Get(o.cfg.GatewayName)
	if err != nil {
		o.failAttempt(attemptID, checkout.StatusCreating, msgGatewayUnavailable)
		return nil
	}
	if err := adapter.EnsureLoaded(ctx); err != nil {
		o.failAttempt(attemptID, checkout.StatusCreating, msgGatewayUnavailable)
		return nil
	}

	opts := gateway.BuildOptions(order, req, o.cfg.MerchantName, o.cfg.ThemeColor)

	o.mu.Lock()
	if o.attemptID != attemptID || o.status != checkout.StatusCreating {
		o.mu.Unlock()
		return nil
	}
	o.status = checkout.StatusProcessing
	if o.cfg.GatewayDeadline > 0 {
		o.deadline = time.AfterFunc(o.cfg.GatewayDeadline, func() {
			o.failAttempt(attemptID, checkout.StatusProcessing, msgTimedOut)
		})
	}
	o.mu.Unlock()

	err = adapter.Open(ctx, opts,
		func(payload checkout.GatewayCompletionPayload) { o.resolveCompletion(attemptID, payload) },
		func() { o.resolveDismissal(attemptID) },
	)
	if err != nil {
		o.failAttempt(attemptID, checkout.StatusProcessing, msgGatewayUnavailable)
	}
	return nil
}

// resolveCompletion handles a genuine gateway completion: the payload
// is forwarded to verification while the externally visible status
// stays processing, then the attempt terminates on the verdict.
func (o *Orchestrator) resolveCompletion(attemptID string, payload checkout.GatewayCompletionPayload) {
	tracer := otel.Tracer("orchestrator")
	ctx, span := tracer.Start(context.Background(), "Orchestrator.ResolveCompletion")
	defer span.End()

	o.mu.Lock()
	if o.attemptID != attemptID || o.status != checkout.StatusProcessing {
		o.mu.Unlock()
		return
	}
	traceCtx := o.trace
	o.mu.Unlock()

	result, err := o.verifier.VerifyPayment(ctx, traceCtx, payload)
	if err != nil {
		o.failAttempt(attemptID, checkout.StatusProcessing, failureMessage(err, msgVerificationFailed))
		return
	}
	if !result.Success {
		o.failAttempt(attemptID, checkout.StatusProcessing, checkout.FirstMessage(msgVerificationFailed, result.Message))
		return
	}

	o.mu.Lock()
	if o.attemptID != attemptID || o.status != checkout.StatusProcessing {
		o.mu.Unlock()
		return
	}
	o.status = checkout.StatusSuccess
	o.message = ""
	o.result = &result
	o.stopDeadlineLocked()
	elapsed := time.Since(o.startedAt)
	o.mu.Unlock()

	metrics.RecordOutcome(metrics.OutcomeSuccess)
	metrics.ObserveAttemptDuration(elapsed.Seconds())
	log.Info().
		Str("trace_id", traceCtx.TraceID).
		Str("order_number", result.OrderNumber).
		Str("transaction_id", result.TransactionID).
		Msg("checkout attempt succeeded")

	if o.cb.OnSuccess != nil {
		o.cb.OnSuccess(result.OrderNumber, result.TransactionID)
	}
}

// resolveDismissal handles the user closing the widget without paying.
// The attempt returns to idle with an informational message; neither
// caller callback fires.
func (o *Orchestrator) resolveDismissal(attemptID string) {
	o.mu.Lock()
	if o.attemptID != attemptID || o.status != checkout.StatusProcessing {
		o.mu.Unlock()
		return
	}
	o.status = checkout.StatusIdle
	o.message = msgCancelled
	o.order = nil
	o.result = nil
	o.attemptID = ""
	o.stopDeadlineLocked()
	traceID := o.trace.TraceID
	o.mu.Unlock()

	metrics.RecordOutcome(metrics.OutcomeCancelled)
	log.Info().Str("trace_id", traceID).Msg("checkout widget dismissed by payer")
}

// failAttempt moves the attempt from the expected status to failed and
// fires OnFailure. Stale attempt tokens and unexpected statuses make it
// a no-op, which is what guarantees at most one terminal callback.
func (o *Orchestrator) failAttempt(attemptID string, from checkout.Status, message string) {
	o.mu.Lock()
	if o.attemptID != attemptID || o.status != from {
		o.mu.Unlock()
		return
	}
	o.status = checkout.StatusFailed
	o.message = message
	o.stopDeadlineLocked()
	elapsed := time.Since(o.startedAt)
	traceID := o.trace.TraceID
	o.mu.Unlock()

	metrics.RecordOutcome(metrics.OutcomeFailed)
	metrics.ObserveAttemptDuration(elapsed.Seconds())
	log.Warn().
		Str("trace_id", traceID).
		Str("message", message).
		Msg("checkout attempt failed")

	if o.cb.OnFailure != nil {
		o.cb.OnFailure(message)
	}
}

// Retry clears a failed attempt back to idle so the payer can submit
// again. The retry policy may deny it once the budget is exhausted, in
// which case the attempt stays failed with the policy's reason.
func (o *Orchestrator) Retry() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.status != checkout.StatusFailed {
		return ErrNoFailedAttempt
	}
	if o.retry != nil {
		decision, err := o.retry.Evaluate(o.attempt, o.status.String(), time.Since(o.startedAt).Milliseconds())
		if err != nil {
			return err
		}
		if !decision.Allow {
			o.message = decision.Reason
			return ErrRetryDenied
		}
	}
	o.status = checkout.StatusIdle
	o.message = ""
	o.order = nil
	o.result = nil
	o.attemptID = ""
	return nil
}

// Close tears down the attempt and returns the orchestrator to a fresh
// idle state. While the widget is open the request is refused: state is
// unchanged and no callback fires.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.status == checkout.StatusProcessing {
		o.mu.Unlock()
		return ErrPaymentInProgress
	}
	o.status = checkout.StatusIdle
	o.message = ""
	o.order = nil
	o.result = nil
	o.attemptID = ""
	o.attempt = 0
	o.stopDeadlineLocked()
	o.mu.Unlock()

	if o.cb.OnClose != nil {
		o.cb.OnClose()
	}
	return nil
}

// Snapshot returns a consistent view of the attempt.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()

	snap := Snapshot{
		Status:  o.status,
		Message: o.message,
		Attempt: o.attempt,
		TraceID: o.trace.TraceID,
	}
	if o.order != nil {
		snap.OrderNumber = o.order.OrderNumber
		snap.GatewayOrderID = o.order.GatewayOrderID
		snap.TotalAmount = o.order.TotalAmount
		snap.Currency = o.order.Currency
	}
	if o.result != nil {
		snap.OrderNumber = o.result.OrderNumber
		snap.TransactionID = o.result.TransactionID
	}
	return snap
}

// GatewayName returns the gateway configured for this orchestrator.
func (o *Orchestrator) GatewayName() string {
	return o.cfg.GatewayName
}

func (o *Orchestrator) stopDeadlineLocked() {
	if o.deadline != nil {
		o.deadline.Stop()
		o.deadline = nil
	}
}

// failureMessage applies the fixed precedence for user-facing failure
// text: structured server detail, then the error's own message, then
// the hardcoded fallback.
func failureMessage(err error, fallback string) string {
	var srvErr *checkout.ServerError
	detail := ""
	if errors.As(err, &srvErr) {
		detail = srvErr.Detail
	}
	generic := ""
	if err != nil {
		generic = err.Error()
	}
	return checkout.FirstMessage(fallback, detail, generic)
}
