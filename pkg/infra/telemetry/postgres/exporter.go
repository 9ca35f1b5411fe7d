package postgres

import (
	"context"
	"errors"

	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/NeuralTrust/FormGate/pkg/domain/telemetry"
)

const ExporterName = "postgres"

// Exporter persists events through the security event repository.
type Exporter struct {
	repo security.Repository
}

func NewPostgresExporter(repo security.Repository) *Exporter {
	return &Exporter{repo: repo}
}

func (e *Exporter) Name() string {
	return ExporterName
}

func (e *Exporter) ValidateConfig(map[string]interface{}) error {
	if e.repo == nil {
		return errors.New("postgres exporter requires database.enabled")
	}
	return nil
}

func (e *Exporter) WithSettings(map[string]interface{}) (telemetry.Exporter, error) {
	return e, nil
}

func (e *Exporter) Handle(ctx context.Context, evt *security.Event) error {
	return e.repo.Save(ctx, evt)
}

func (e *Exporter) Close() {}
