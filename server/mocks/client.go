package mocks

import (
	"context"
)

// MockClient implements provider.Client with a scriptable Complete. The
// Healthy flag feeds provider.HealthReporter.
type MockClient struct {
	CompleteFunc func(ctx context.Context, system, user string) (string, error)
	HealthyFlag  bool
}

// NewMockClient creates a healthy MockClient with the given completion
// function.
func NewMockClient(completeFunc func(ctx context.Context, system, user string) (string, error)) *MockClient {
	return &MockClient{
		CompleteFunc: completeFunc,
		HealthyFlag:  true,
	}
}

func (m *MockClient) Complete(ctx context.Context, system, user string) (string, error) {
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, system, user)
	}
	return "", nil
}

func (m *MockClient) Healthy() bool { return m.HealthyFlag }
