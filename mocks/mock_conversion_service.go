package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"contractinvoice/internal/domain"
	"contractinvoice/internal/service"
)

// MockConversionService is a mock implementation of service.ConversionService.
type MockConversionService struct {
	mock.Mock
}

func (m *MockConversionService) Convert(ctx context.Context, input service.ConvertInput) (*service.ConvertOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ConvertOutput), args.Error(1)
}

func (m *MockConversionService) ConvertText(ctx context.Context, input service.ConvertTextInput) (*service.ConvertOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ConvertOutput), args.Error(1)
}

func (m *MockConversionService) Download(ctx context.Context, area domain.Area, filename string) ([]byte, error) {
	args := m.Called(ctx, area, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockConversionService) Record(ctx context.Context, filename string) (*domain.InvoiceRecord, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.InvoiceRecord), args.Error(1)
}
