package security

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	SuspiciousActivity EventType = "SUSPICIOUS_ACTIVITY"
	RateLimitViolation EventType = "RATE_LIMIT_VIOLATION"
	AuthFailure        EventType = "AUTH_FAILURE"
	APIMisuse          EventType = "API_MISUSE"
	SecurityViolation  EventType = "SECURITY_VIOLATION"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

func (t EventType) Valid() bool {
	switch t {
	case SuspiciousActivity, RateLimitViolation, AuthFailure, APIMisuse, SecurityViolation:
		return true
	}
	return false
}

// DefaultSeverity is used when the reporter does not set one.
func (t EventType) DefaultSeverity() Severity {
	switch t {
	case AuthFailure, SecurityViolation:
		return SeverityHigh
	case SuspiciousActivity, RateLimitViolation, APIMisuse:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

type Event struct {
	ID        uuid.UUID              `json:"id" gorm:"type:uuid;primaryKey"`
	Type      EventType              `json:"type" gorm:"index;size:32"`
	Severity  Severity               `json:"severity" gorm:"size:16"`
	Timestamp time.Time              `json:"timestamp" gorm:"index"`
	IP        string                 `json:"ip"`
	UserID    string                 `json:"userId,omitempty"`
	Path      string                 `json:"path"`
	UserAgent string                 `json:"userAgent,omitempty"`
	Device    string                 `json:"device,omitempty" gorm:"size:32"`
	Browser   string                 `json:"browser,omitempty" gorm:"size:64"`
	OS        string                 `json:"os,omitempty" gorm:"size:64"`
	Details   map[string]interface{} `json:"details,omitempty" gorm:"serializer:json"`
}

func (Event) TableName() string {
	return "security_events"
}

type Repository interface {
	Save(ctx context.Context, evt *Event) error
}
