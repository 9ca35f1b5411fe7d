package mocks

import (
	"context"

	"github.com/NeuralTrust/FormGate/pkg/app/contact"
	"github.com/stretchr/testify/mock"
)

type MockGate struct {
	mock.Mock
}

func (m *MockGate) Submit(ctx context.Context, in contact.SubmitInput) error {
	args := m.Called(ctx, in)
	return args.Error(0)
}
