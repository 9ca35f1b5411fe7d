package mocks

import (
	"context"

	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/stretchr/testify/mock"
)

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, evt security.Event) security.Event {
	m.Called(ctx, evt)
	return evt
}
