package postgres_test

import (
	"context"
	"errors"
	"testing"

	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/NeuralTrust/FormGate/pkg/domain/security/mocks"
	"github.com/NeuralTrust/FormGate/pkg/infra/telemetry/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestPostgresExporter(t *testing.T) {
	repo := new(mocks.MockRepository)
	evt := &security.Event{Type: security.SecurityViolation}
	repo.On("Save", mock.Anything, evt).Return(nil).Once()
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection refused"))

	exp := postgres.NewPostgresExporter(repo)

	assert.NoError(t, exp.ValidateConfig(nil))
	assert.NoError(t, exp.Handle(context.Background(), evt))
	assert.Error(t, exp.Handle(context.Background(), &security.Event{}))
}

func TestPostgresExporter_RequiresRepository(t *testing.T) {
	assert.Error(t, postgres.NewPostgresExporter(nil).ValidateConfig(nil))
}
