// Package razorpay bridges the hosted Razorpay checkout widget. The
// widget itself runs in the payer's browser; this adapter keeps the
// pending invocation server-side and translates the browser's
// completion/dismissal callbacks into the continuations the
// orchestrator injected through Open.
package razorpay

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/yourorg/checkout-orchestrator/internal/checkout"
	"github.com/yourorg/checkout-orchestrator/internal/gateway"
)

const defaultCheckoutScriptURL = "https://checkout.razorpay.com/v1/checkout.js"

var (
	// ErrSDKUnavailable means the widget runtime cannot be mounted;
	// the orchestrator maps it to a failed attempt rather than letting
	// it surface as a fault.
	ErrSDKUnavailable = errors.New("gateway SDK not loaded")
	// ErrInvocationPending rejects opening a second widget while one is
	// still unresolved.
	ErrInvocationPending = errors.New("a checkout invocation is already pending")
	// ErrNoPendingInvocation rejects completion or dismissal callbacks
	// that have no open widget to resolve.
	ErrNoPendingInvocation = errors.New("no pending checkout invocation")
)

type invocation struct {
	opts        gateway.Options
	onCompleted gateway.CompletionFunc
	onDismissed gateway.DismissFunc
}

// Bridge implements gateway.Adapter for one checkout session. It holds
// at most one pending invocation and guarantees it resolves exactly
// once, whichever of the two callback routes fires first.
type Bridge struct {
	mu        sync.Mutex
	scriptURL string
	loaded    bool
	pending   *invocation
}

// New creates a Bridge. An empty scriptURL selects the default Razorpay
// checkout script.
func New(scriptURL string) *Bridge {
	if scriptURL == "" {
		scriptURL = defaultCheckoutScriptURL
	}
	return &Bridge{scriptURL: scriptURL}
}

// NewUnavailable creates a Bridge whose runtime can never load, for
// environments without the gateway script. Useful in tests and as the
// explicit "SDK absent" configuration.
func NewUnavailable() *Bridge {
	return &Bridge{}
}

func (b *Bridge) Name() string { return "razorpay" }

// EnsureLoaded marks the checkout script as injected. Calling it again
// on a loaded bridge is a no-op, so repeated checkout attempts never
// double-inject.
func (b *Bridge) EnsureLoaded(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.loaded {
		return nil
	}
	if b.scriptURL == "" {
		return ErrSDKUnavailable
	}
	b.loaded = true
	log.Debug().Str("script_url", b.scriptURL).Msg("razorpay checkout script loaded")
	return nil
}

// Open registers a widget invocation and parks the two continuations
// until HandleCompletion or HandleDismiss resolves it.
func (b *Bridge) Open(_ context.Context, opts gateway.Options, onCompleted gateway.CompletionFunc, onDismissed gateway.DismissFunc) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.loaded {
		return ErrSDKUnavailable
	}
	if b.pending != nil {
		return ErrInvocationPending
	}
	b.pending = &invocation{
		opts:        opts,
		onCompleted: onCompleted,
		onDismissed: onDismissed,
	}
	log.Info().
		Str("gateway_order_id", opts.OrderID).
		Int64("amount_minor", opts.Amount).
		Str("currency", opts.Currency).
		Msg("razorpay widget opened")
	return nil
}

// PendingOptions returns the options of the unresolved invocation, if
// any. The HTTP layer serves them to the browser to mount the widget.
func (b *Bridge) PendingOptions() (gateway.Options, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.pending == nil {
		return gateway.Options{}, false
	}
	return b.pending.opts, true
}

// HandleCompletion resolves the pending invocation with the widget's
// signed payload.
func (b *Bridge) HandleCompletion(payload checkout.GatewayCompletionPayload) error {
	b.mu.Lock()
	inv := b.pending
	b.pending = nil
	b.mu.Unlock()

	if inv == nil {
		return ErrNoPendingInvocation
	}
	// Invoked outside the lock: the continuation re-enters the
	// orchestrator and may call back into this bridge.
	inv.onCompleted(payload)
	return nil
}

// HandleDismiss resolves the pending invocation as user-dismissed.
func (b *Bridge) HandleDismiss() error {
	b.mu.Lock()
	inv := b.pending
	b.pending = nil
	b.mu.Unlock()

	if inv == nil {
		return ErrNoPendingInvocation
	}
	inv.onDismissed()
	return nil
}
