package events

import (
	"time"

	"github.com/Ramsey-B/fern/pkg/models"
)

// EventType defines the type of event
type EventType string

const (
	EventTypeMatchCreated        EventType = "match.created"
	EventTypeMatchConfirmed      EventType = "match.confirmed"
	EventTypeMatchRejected       EventType = "match.rejected"
	EventTypeNotificationCreated EventType = "notification.created"
	EventTypeReportStatusChanged EventType = "report.status_changed"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventType     EventType `json:"event_type"`
	SchemaVersion string    `json:"schema_version"`
	Timestamp     time.Time `json:"timestamp"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// MatchEvent is emitted when a match is created or reviewed
type MatchEvent struct {
	BaseEvent
	MatchID        string             `json:"match_id"`
	LostReportID   string             `json:"lost_report_id"`
	FoundReportID  string             `json:"found_report_id"`
	Status         models.MatchStatus `json:"status"`
	FinalScore     float64            `json:"final_score"`
	HighConfidence bool               `json:"high_confidence"`
}

// NotificationEvent is emitted for every stored notification so external
// delivery channels can pick it up
type NotificationEvent struct {
	BaseEvent
	NotificationID string                  `json:"notification_id"`
	UserID         string                  `json:"user_id"`
	Title          string                  `json:"title"`
	Message        string                  `json:"message"`
	Type           models.NotificationType `json:"type"`
	RelatedMatchID *string                 `json:"related_match_id,omitempty"`
}

// ReportStatusChangedEvent is emitted when the matcher moves a report
type ReportStatusChangedEvent struct {
	BaseEvent
	ReportID string              `json:"report_id"`
	Status   models.ReportStatus `json:"status"`
}
