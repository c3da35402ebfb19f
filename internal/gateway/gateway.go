// Package gateway defines the port for payment-gateway checkout
// widgets. An Adapter bridges the widget's two asynchronous outcomes
// (user completed payment / user dismissed the widget) back into the
// orchestrator through injected continuations, so the orchestrator
// never touches a widget runtime directly.
package gateway

import (
	"context"
	"fmt"
	"math"

	"github.com/yourorg/checkout-orchestrator/internal/checkout"
)

// Prefill pre-populates the widget's payer fields.
type Prefill struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Contact string `json:"contact"`
}

// Theme configures the widget's appearance.
type Theme struct {
	Color string `json:"color"`
}

// Options is the invocation contract of the external widget. Amount is
// in the currency's minor units.
type Options struct {
	Key         string  `json:"key"`
	Amount      int64   `json:"amount"`
	Currency    string  `json:"currency"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	OrderID     string  `json:"order_id"`
	Prefill     Prefill `json:"prefill"`
	Theme       Theme   `json:"theme"`
}

// CompletionFunc receives the widget's signed completion payload.
type CompletionFunc func(payload checkout.GatewayCompletionPayload)

// DismissFunc fires when the user closes the widget without paying.
type DismissFunc func()

// Adapter is implemented by each gateway bridge.
type Adapter interface {
	// Name returns the gateway's registry name (e.g. "razorpay").
	Name() string

	// EnsureLoaded makes the gateway runtime available. It is
	// idempotent; repeated calls across checkout attempts are no-ops
	// once loaded.
	EnsureLoaded(ctx context.Context) error

	// Open starts a checkout invocation. Exactly one of onCompleted or
	// onDismissed is invoked, at most once, when the user resolves the
	// widget.
	Open(ctx context.Context, opts Options, onCompleted CompletionFunc, onDismissed DismissFunc) error
}

// BuildOptions maps a server-confirmed order to the widget's invocation
// options. The amount handed to the gateway is always the server's
// total converted to minor units, never the client-requested amount, so
// a server-side fee adjustment is honored without a second round trip.
func BuildOptions(order checkout.OrderDescriptor, req checkout.PaymentRequest, merchantName, themeColor string) Options {
	return Options{
		Key:         order.GatewayData.KeyID,
		Amount:      int64(math.Round(order.TotalAmount * 100)),
		Currency:    order.Currency,
		Name:        merchantName,
		Description: req.Description,
		OrderID:     order.GatewayOrderID,
		Prefill: Prefill{
			Name:    req.PayerName,
			Email:   req.PayerEmail,
			Contact: req.PayerPhone,
		},
		Theme: Theme{Color: themeColor},
	}
}

// Registry resolves adapters by the gateway name carried in tenant
// configuration.
type Registry struct {
	adapters map[string]Adapter
}

// NewRegistry creates a Registry over the given adapters.
func NewRegistry(adapters ...Adapter) *Registry {
	m := make(map[string]Adapter, len(adapters))
	for _, a := range adapters {
		m[a.Name()] = a
	}
	return &Registry{adapters: m}
}

// Get returns the adapter registered under name.
func (r *Registry) Get(name string) (Adapter, error) {
	a, ok := r.adapters[name]
	if !ok {
		return nil, fmt.Errorf("no gateway adapter registered for %q", name)
	}
	return a, nil
}
