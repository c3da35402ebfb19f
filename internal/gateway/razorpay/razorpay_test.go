package razorpay

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourorg/checkout-orchestrator/internal/checkout"
	"github.com/yourorg/checkout-orchestrator/internal/gateway"
)

func noopCompletion(checkout.GatewayCompletionPayload) {}
func noopDismiss()                                     {}

func TestEnsureLoaded_Idempotent(t *testing.T) {
	b := New("")
	require.NoError(t, b.EnsureLoaded(context.Background()))
	require.NoError(t, b.EnsureLoaded(context.Background()))
	require.NoError(t, b.EnsureLoaded(context.Background()))
}

func TestEnsureLoaded_Unavailable(t *testing.T) {
	b := NewUnavailable()
	err := b.EnsureLoaded(context.Background())
	assert.ErrorIs(t, err, ErrSDKUnavailable)
}

func TestOpen_RequiresLoad(t *testing.T) {
	b := New("")
	err := b.Open(context.Background(), gateway.Options{}, noopCompletion, noopDismiss)
	assert.ErrorIs(t, err, ErrSDKUnavailable)
}

func TestOpen_Completion(t *testing.T) {
	b := New("")
	require.NoError(t, b.EnsureLoaded(context.Background()))

	var completed *checkout.GatewayCompletionPayload
	dismissed := false
	opts := gateway.Options{OrderID: "gw_1", Amount: 50000, Currency: "INR"}
	require.NoError(t, b.Open(context.Background(), opts,
		func(p checkout.GatewayCompletionPayload) { completed = &p },
		func() { dismissed = true },
	))

	pending, ok := b.PendingOptions()
	require.True(t, ok)
	assert.Equal(t, opts, pending)

	payload := checkout.GatewayCompletionPayload{OrderID: "gw_1", PaymentID: "pay_1", Signature: "sig"}
	require.NoError(t, b.HandleCompletion(payload))

	require.NotNil(t, completed)
	assert.Equal(t, payload, *completed)
	assert.False(t, dismissed)

	_, ok = b.PendingOptions()
	assert.False(t, ok)

	// The invocation resolved; a second callback has nothing to land on.
	assert.ErrorIs(t, b.HandleCompletion(payload), ErrNoPendingInvocation)
	assert.ErrorIs(t, b.HandleDismiss(), ErrNoPendingInvocation)
}

func TestOpen_Dismiss(t *testing.T) {
	b := New("")
	require.NoError(t, b.EnsureLoaded(context.Background()))

	completed := false
	dismissed := false
	require.NoError(t, b.Open(context.Background(), gateway.Options{OrderID: "gw_1"},
		func(checkout.GatewayCompletionPayload) { completed = true },
		func() { dismissed = true },
	))

	require.NoError(t, b.HandleDismiss())
	assert.True(t, dismissed)
	assert.False(t, completed)
}

func TestOpen_SecondInvocationRejected(t *testing.T) {
	b := New("")
	require.NoError(t, b.EnsureLoaded(context.Background()))
	require.NoError(t, b.Open(context.Background(), gateway.Options{OrderID: "gw_1"}, noopCompletion, noopDismiss))

	err := b.Open(context.Background(), gateway.Options{OrderID: "gw_2"}, noopCompletion, noopDismiss)
	assert.ErrorIs(t, err, ErrInvocationPending)
}

func TestCallbacksWithoutInvocation(t *testing.T) {
	b := New("")
	require.NoError(t, b.EnsureLoaded(context.Background()))
	assert.ErrorIs(t, b.HandleCompletion(checkout.GatewayCompletionPayload{}), ErrNoPendingInvocation)
	assert.ErrorIs(t, b.HandleDismiss(), ErrNoPendingInvocation)
}
