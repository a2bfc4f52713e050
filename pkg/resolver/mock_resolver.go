package resolver

import (
	"context"
	"sync"
)

// MockResolver is a mock implementation of the Resolver interface
// for testing purposes
type MockResolver struct {
	// ResolveFunc is called by Resolve when set
	ResolveFunc func(ctx context.Context, logicalPath string) (*ResolvedFile, error)

	mu    sync.Mutex
	calls []string
}

// Resolve implements the Resolver interface and records logicalPath
func (m *MockResolver) Resolve(ctx context.Context, logicalPath string) (*ResolvedFile, error) {
	m.mu.Lock()
	m.calls = append(m.calls, logicalPath)
	m.mu.Unlock()

	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, logicalPath)
	}
	return nil, &Error{Kind: KindNotFound, Path: logicalPath, Err: ErrNotFound}
}

// Calls returns the logical paths Resolve was called with, in order
func (m *MockResolver) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
