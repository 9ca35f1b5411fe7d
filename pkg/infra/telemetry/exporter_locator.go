package telemetry

import (
	"fmt"

	"github.com/NeuralTrust/FormGate/pkg/config"
	"github.com/NeuralTrust/FormGate/pkg/domain/telemetry"
)

type ExporterLocator struct {
	exporters map[string]telemetry.Exporter
}

func NewExporterLocator(opts ...ExporterLocatorOption) *ExporterLocator {
	el := &ExporterLocator{
		exporters: make(map[string]telemetry.Exporter),
	}
	for _, opt := range opts {
		opt(el)
	}
	return el
}

func (p *ExporterLocator) GetExporter(exporter config.ExporterConfig) (telemetry.Exporter, error) {
	base, ok := p.exporters[exporter.Name]
	if !ok {
		return nil, fmt.Errorf("unknown exporter: %s", exporter.Name)
	}
	if err := base.ValidateConfig(exporter.Settings); err != nil {
		return nil, err
	}
	configured, err := base.WithSettings(exporter.Settings)
	if err != nil {
		return nil, err
	}
	return configured, nil
}

// Build configures every exporter in order and stops at the first error.
func (p *ExporterLocator) Build(configs []config.ExporterConfig) ([]telemetry.Exporter, error) {
	exporters := make([]telemetry.Exporter, 0, len(configs))
	for _, c := range configs {
		exp, err := p.GetExporter(c)
		if err != nil {
			for _, built := range exporters {
				built.Close()
			}
			return nil, fmt.Errorf("exporter %s: %w", c.Name, err)
		}
		exporters = append(exporters, exp)
	}
	return exporters, nil
}
