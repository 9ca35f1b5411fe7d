package mocks

import (
	"context"

	"github.com/NeuralTrust/FormGate/pkg/domain/contact"
	"github.com/stretchr/testify/mock"
)

type MockCaptchaVerifier struct {
	mock.Mock
}

func (m *MockCaptchaVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	args := m.Called(ctx, token, remoteIP)
	return args.Bool(0), args.Error(1)
}

type MockRateLimiter struct {
	mock.Mock
}

func (m *MockRateLimiter) TryAcquire(ctx context.Context, clientID string) (contact.Decision, error) {
	args := m.Called(ctx, clientID)
	decision, _ := args.Get(0).(contact.Decision)
	return decision, args.Error(1)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) SendNotification(ctx context.Context, s contact.Submission) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockDispatcher) SendConfirmation(ctx context.Context, s contact.Submission) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}
