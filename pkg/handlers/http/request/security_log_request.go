package request

import (
	"github.com/NeuralTrust/FormGate/pkg/domain/security"
)

type SecurityLogRequest struct {
	Type     string                 `json:"type"`
	Severity string                 `json:"severity"`
	Path     string                 `json:"path"`
	UserID   string                 `json:"userId"`
	Details  map[string]interface{} `json:"details"`
}

// ToEvent maps the client report onto an event. Unknown types are kept in
// the details and reported as suspicious activity.
func (r *SecurityLogRequest) ToEvent() security.Event {
	evt := security.Event{
		Type:     security.EventType(r.Type),
		Severity: security.Severity(r.Severity),
		Path:     r.Path,
		UserID:   r.UserID,
		Details:  r.Details,
	}
	if !evt.Type.Valid() {
		if evt.Details == nil {
			evt.Details = map[string]interface{}{}
		}
		evt.Details["reported_type"] = r.Type
		evt.Type = security.SuspiciousActivity
	}
	if !evt.Severity.Valid() {
		evt.Severity = ""
	}
	return evt
}
