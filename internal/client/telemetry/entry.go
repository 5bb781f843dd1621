package telemetry

import (
	"time"
)

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

type DeliveryState string

const (
	Pending DeliveryState = "pending"
	Sent    DeliveryState = "sent"
)

// Report types.
const (
	TypePanic       = "panic"
	TypeComponent   = "component_error"
	TypeAPI         = "api_error"
	TypeAuth        = "auth_error"
	TypePerformance = "performance_error"
	TypeUserAction  = "user_action_error"
)

// Report is what a caller knows about a failure.
type Report struct {
	Type    string
	Message string
	Stack   string
	Status  int
	Fields  map[string]any
}

// Entry is one queued telemetry record. Payload and Context are sanitized.
type Entry struct {
	ID            string         `json:"id"`
	Timestamp     time.Time      `json:"timestamp"`
	UserID        string         `json:"userId"`
	SessionID     string         `json:"sessionId"`
	Type          string         `json:"type"`
	Message       string         `json:"message"`
	Stack         string         `json:"stack,omitempty"`
	Severity      Severity       `json:"severity"`
	Environment   string         `json:"environment"`
	Payload       map[string]any `json:"payload,omitempty"`
	Context       map[string]any `json:"context,omitempty"`
	DeliveryState DeliveryState  `json:"deliveryState"`
}

// Classify assigns a severity from the report type and HTTP status.
func Classify(reportType string, status int) Severity {
	switch {
	case reportType == TypePanic || reportType == TypeComponent:
		return SeverityHigh
	case reportType == TypeAPI && status >= 500:
		return SeverityHigh
	case reportType == TypeAuth:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// Stats summarises the queue.
type Stats struct {
	Total        int
	RecentCount  int
	ByType       map[string]int
	BySeverity   map[Severity]int
	QueueSize    int
	MaxQueueSize int
}
