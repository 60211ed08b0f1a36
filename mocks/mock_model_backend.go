package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"contractinvoice/internal/port"
)

// MockModelBackend is a mock implementation of port.ModelBackend.
type MockModelBackend struct {
	mock.Mock
}

func (m *MockModelBackend) Chat(ctx context.Context, req port.ChatRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockModelBackend) Name() string {
	args := m.Called()
	return args.String(0)
}
