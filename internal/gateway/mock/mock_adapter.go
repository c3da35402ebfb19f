// Package mock provides a scriptable gateway.Adapter for tests.
package mock

import (
	"context"

	"github.com/yourorg/checkout-orchestrator/internal/checkout"
	"github.com/yourorg/checkout-orchestrator/internal/gateway"
)

// MockAdapter is a scriptable implementation of gateway.Adapter. Tests
// override EnsureLoadedFunc/OpenFunc to fail, or use Complete/Dismiss
// to resolve the captured invocation like a user would.
type MockAdapter struct {
	AdapterName      string
	EnsureLoadedFunc func(ctx context.Context) error
	OpenFunc         func(ctx context.Context, opts gateway.Options) error

	LoadCalls  int
	OpenCalls  int
	LastOpts   gateway.Options
	onComplete gateway.CompletionFunc
	onDismiss  gateway.DismissFunc
}

// NewMockAdapter creates a MockAdapter with the given registry name.
func NewMockAdapter(name string) *MockAdapter {
	return &MockAdapter{AdapterName: name}
}

func (m *MockAdapter) Name() string { return m.AdapterName }

// EnsureLoaded implements gateway.Adapter. Defaults to success.
func (m *MockAdapter) EnsureLoaded(ctx context.Context) error {
	m.LoadCalls++
	if m.EnsureLoadedFunc != nil {
		return m.EnsureLoadedFunc(ctx)
	}
	return nil
}

// Open implements gateway.Adapter. It captures the options and parks
// the continuations for Complete/Dismiss.
func (m *MockAdapter) Open(ctx context.Context, opts gateway.Options, onCompleted gateway.CompletionFunc, onDismissed gateway.DismissFunc) error {
	m.OpenCalls++
	m.LastOpts = opts
	if m.OpenFunc != nil {
		if err := m.OpenFunc(ctx, opts); err != nil {
			return err
		}
	}
	m.onComplete = onCompleted
	m.onDismiss = onDismissed
	return nil
}

// Complete resolves the captured invocation as a completed payment.
func (m *MockAdapter) Complete(payload checkout.GatewayCompletionPayload) {
	if m.onComplete != nil {
		m.onComplete(payload)
	}
}

// Dismiss resolves the captured invocation as user-dismissed.
func (m *MockAdapter) Dismiss() {
	if m.onDismiss != nil {
		m.onDismiss()
	}
}
