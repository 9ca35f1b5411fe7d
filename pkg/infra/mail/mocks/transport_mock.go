package mocks

import (
	"context"

	"github.com/NeuralTrust/FormGate/pkg/infra/mail"
	"github.com/stretchr/testify/mock"
)

type MockTransport struct {
	mock.Mock
}

func (m *MockTransport) Name() string {
	return "mock"
}

func (m *MockTransport) Send(ctx context.Context, msg mail.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}
