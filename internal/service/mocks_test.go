package service

import (
	"context"

	"groupreview-bot/internal/domain"

	"github.com/stretchr/testify/mock"
)

// MockResponder
type MockResponder struct {
	mock.Mock
}

func (m *MockResponder) SetGroupAddRequest(ctx context.Context, params domain.GroupAddRequestParams) error {
	args := m.Called(ctx, params)
	return args.Error(0)
}
