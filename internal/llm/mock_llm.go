package llm

import (
	"context"

	"github.com/stretchr/testify/mock"
)

// MockClient is a mock implementation of Client using testify/mock.
type MockClient struct {
	mock.Mock
}

func (m *MockClient) ExtractFields(ctx context.Context, text string, fields []string) (string, error) {
	args := m.Called(ctx, text, fields)
	return args.String(0), args.Error(1)
}

func (m *MockClient) DescribeImage(ctx context.Context, image []byte, mimeType string) (string, error) {
	args := m.Called(ctx, image, mimeType)
	return args.String(0), args.Error(1)
}
