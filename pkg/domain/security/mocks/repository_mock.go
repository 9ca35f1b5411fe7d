package mocks

import (
	"context"

	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, evt *security.Event) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}
