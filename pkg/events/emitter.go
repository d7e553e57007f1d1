// Package events publishes match lifecycle events
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Gobusters/ectologger"

	appctx "github.com/Ramsey-B/fern/pkg/context"
	"github.com/Ramsey-B/fern/pkg/kafka"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Sink delivers an encoded event. *kafka.Producer is the production sink.
type Sink interface {
	Publish(ctx context.Context, key string, headers map[string]string, value []byte) error
}

// Emitter encodes domain changes as events. A nil sink drops every event.
type Emitter struct {
	sink   Sink
	logger ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(sink Sink, logger ectologger.Logger) *Emitter {
	return &Emitter{
		sink:   sink,
		logger: logger,
	}
}

func (e *Emitter) base(ctx context.Context, eventType EventType) BaseEvent {
	return BaseEvent{
		EventType:     eventType,
		SchemaVersion: SchemaVersion,
		Timestamp:     time.Now().UTC(),
		CorrelationID: appctx.GetRequestID(ctx),
	}
}

// EmitMatch emits match.created, match.confirmed or match.rejected
func (e *Emitter) EmitMatch(ctx context.Context, eventType EventType, match *models.Match, highConfidence bool) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatch")
	defer span.End()

	event := &MatchEvent{
		BaseEvent:      e.base(ctx, eventType),
		MatchID:        match.ID,
		LostReportID:   match.LostReportID,
		FoundReportID:  match.FoundReportID,
		Status:         match.Status,
		FinalScore:     match.FinalScore,
		HighConfidence: highConfidence,
	}
	return e.publish(ctx, match.ID, "match", eventType, event)
}

// EmitNotificationCreated emits notification.created
func (e *Emitter) EmitNotificationCreated(ctx context.Context, n *models.Notification) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitNotificationCreated")
	defer span.End()

	event := &NotificationEvent{
		BaseEvent:      e.base(ctx, EventTypeNotificationCreated),
		NotificationID: n.ID,
		UserID:         n.UserID,
		Title:          n.Title,
		Message:        n.Message,
		Type:           n.Type,
		RelatedMatchID: n.RelatedMatchID,
	}
	return e.publish(ctx, n.UserID, "notification", EventTypeNotificationCreated, event)
}

// EmitReportStatusChanged emits report.status_changed
func (e *Emitter) EmitReportStatusChanged(ctx context.Context, reportID string, status models.ReportStatus) error {
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitReportStatusChanged")
	defer span.End()

	event := &ReportStatusChangedEvent{
		BaseEvent: e.base(ctx, EventTypeReportStatusChanged),
		ReportID:  reportID,
		Status:    status,
	}
	return e.publish(ctx, reportID, "report", EventTypeReportStatusChanged, event)
}

func (e *Emitter) publish(ctx context.Context, key, entityType string, eventType EventType, event any) error {
	if e == nil || e.sink == nil {
		return nil
	}

	data, err := json.Marshal(event)
	if err != nil {
		return err
	}

	headers := map[string]string{
		kafka.HeaderEventType:     string(eventType),
		kafka.HeaderEntityType:    entityType,
		kafka.HeaderSchemaVersion: SchemaVersion,
	}

	if err := e.sink.Publish(ctx, key, headers, data); err != nil {
		e.logger.WithContext(ctx).WithError(err).Errorf("Failed to emit %s event", eventType)
		return err
	}
	return nil
}
