package kafka

import (
	"encoding/json"
	"fmt"
	"time"
)

// Header names shared by producer and consumer
const (
	HeaderEventType     = "event_type"
	HeaderEntityType    = "entity_type"
	HeaderSchemaVersion = "schema_version"
)

// EventTypeReportCreated is the only inbound event the matcher acts on
const EventTypeReportCreated = "report.created"

// IncomingMessage is a fetched Kafka message with decoded headers
type IncomingMessage struct {
	Topic     string
	Partition int
	Offset    int64
	Key       string
	Value     []byte
	Headers   map[string]string
	Timestamp time.Time

	Report *ReportEvent
}

// ReportEvent announces a change to a report
type ReportEvent struct {
	EventType string `json:"event_type"`
	ReportID  string `json:"report_id"`
}

// ParseReportEvent decodes the body. The event_type header wins over the body field.
func (m *IncomingMessage) ParseReportEvent() error {
	var event ReportEvent
	if err := json.Unmarshal(m.Value, &event); err != nil {
		return fmt.Errorf("failed to parse report event: %w", err)
	}
	if header := m.Headers[HeaderEventType]; header != "" {
		event.EventType = header
	}
	if event.EventType == "" {
		return fmt.Errorf("report event has no event_type")
	}
	m.Report = &event
	return nil
}

// EventType returns the parsed event type, or the header when unparsed
func (m *IncomingMessage) EventType() string {
	if m.Report != nil {
		return m.Report.EventType
	}
	return m.Headers[HeaderEventType]
}

// IsReportCreated reports whether the message announces a new report
func (m *IncomingMessage) IsReportCreated() bool {
	return m.Report != nil && m.Report.EventType == EventTypeReportCreated && m.Report.ReportID != ""
}
