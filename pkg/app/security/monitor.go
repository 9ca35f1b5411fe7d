package security

import (
	"context"
	"time"

	"github.com/NeuralTrust/FormGate/pkg/domain/security"
	"github.com/NeuralTrust/FormGate/pkg/domain/telemetry"
	"github.com/NeuralTrust/FormGate/pkg/infra/metrics"
	"github.com/NeuralTrust/FormGate/pkg/infra/prometheus"
	"github.com/NeuralTrust/FormGate/pkg/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const exportTimeout = 10 * time.Second

// Recorder accepts security events from handlers and middlewares.
type Recorder interface {
	Record(ctx context.Context, evt security.Event) security.Event
}

type MonitorOpts struct {
	TimeProvider func() time.Time
	UuidProvider func() uuid.UUID
}

type monitor struct {
	logger       *logrus.Logger
	worker       metrics.Worker
	exporters    []telemetry.Exporter
	timeProvider func() time.Time
	uuidProvider func() uuid.UUID
}

func NewMonitor(
	logger *logrus.Logger,
	worker metrics.Worker,
	exporters []telemetry.Exporter,
	opts *MonitorOpts,
) Recorder {
	m := &monitor{
		logger:       logger,
		worker:       worker,
		exporters:    exporters,
		timeProvider: time.Now,
		uuidProvider: uuid.New,
	}
	if opts != nil {
		if opts.TimeProvider != nil {
			m.timeProvider = opts.TimeProvider
		}
		if opts.UuidProvider != nil {
			m.uuidProvider = opts.UuidProvider
		}
	}
	return m
}

// Record completes the event, logs it and queues it for every exporter.
// It returns the completed event.
func (m *monitor) Record(ctx context.Context, evt security.Event) security.Event {
	if evt.ID == uuid.Nil {
		evt.ID = m.uuidProvider()
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = m.timeProvider().UTC()
	}
	if !evt.Type.Valid() {
		evt.Type = security.SecurityViolation
	}
	if !evt.Severity.Valid() {
		evt.Severity = evt.Type.DefaultSeverity()
	}
	if ua := utils.ParseUserAgent(evt.UserAgent, ""); ua != nil {
		evt.Device = ua.Device
		evt.Browser = ua.Browser
		evt.OS = ua.OS
	}

	prometheus.SecurityEventsTotal.WithLabelValues(string(evt.Type), string(evt.Severity)).Inc()
	m.log(evt)

	for _, exporter := range m.exporters {
		exp := exporter
		copied := evt
		m.worker.Enqueue(exp.Name(), func() {
			exportCtx, cancel := context.WithTimeout(context.Background(), exportTimeout)
			defer cancel()
			if err := exp.Handle(exportCtx, &copied); err != nil {
				m.logger.WithFields(logrus.Fields{
					"exporter": exp.Name(),
					"event_id": copied.ID.String(),
				}).WithError(err).Error("failed to export security event")
			}
		})
	}
	return evt
}

func (m *monitor) log(evt security.Event) {
	entry := m.logger.WithFields(logrus.Fields{
		"event_id":   evt.ID.String(),
		"event_type": evt.Type,
		"severity":   evt.Severity,
		"ip":         evt.IP,
		"path":       evt.Path,
		"user_id":    evt.UserID,
		"device":     evt.Device,
		"browser":    evt.Browser,
		"details":    evt.Details,
	})
	switch evt.Severity {
	case security.SeverityLow:
		entry.Info("security event")
	case security.SeverityMedium:
		entry.Warn("security event")
	default:
		entry.Error("security event")
	}
}
