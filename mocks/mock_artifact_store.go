package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"contractinvoice/internal/domain"
)

// MockArtifactStore is a mock implementation of port.ArtifactStore.
type MockArtifactStore struct {
	mock.Mock
}

func (m *MockArtifactStore) Create(ctx context.Context, area domain.Area, name string, data []byte) error {
	args := m.Called(ctx, area, name, data)
	return args.Error(0)
}

func (m *MockArtifactStore) Put(ctx context.Context, area domain.Area, name string, data []byte) error {
	args := m.Called(ctx, area, name, data)
	return args.Error(0)
}

func (m *MockArtifactStore) Open(ctx context.Context, area domain.Area, name string) ([]byte, error) {
	args := m.Called(ctx, area, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockArtifactStore) LocalPath(ctx context.Context, area domain.Area, name string) (string, func(), error) {
	args := m.Called(ctx, area, name)
	cleanup, _ := args.Get(1).(func())
	if cleanup == nil {
		cleanup = func() {}
	}
	return args.String(0), cleanup, args.Error(2)
}
