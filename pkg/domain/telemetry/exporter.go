package telemetry

import (
	"context"

	"github.com/NeuralTrust/FormGate/pkg/domain/security"
)

// Exporter ships security events to an external sink. A base exporter is
// registered once; WithSettings returns a configured copy.
type Exporter interface {
	Name() string
	ValidateConfig(settings map[string]interface{}) error
	Handle(ctx context.Context, evt *security.Event) error
	WithSettings(settings map[string]interface{}) (Exporter, error)
	Close()
}
