// Package notify stores user notifications and announces them as events.
package notify

import (
	"context"

	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Notifier delivers notifications to users
type Notifier interface {
	Notify(ctx context.Context, n *models.Notification) error
	// NotifyReviewers addresses the template to every admin and moderator
	// and returns how many were notified.
	NotifyReviewers(ctx context.Context, t models.NotificationTemplate) (int, error)
}

// NotificationStore persists notifications
type NotificationStore interface {
	CreateBatch(ctx context.Context, notifications []*models.Notification) error
}

// UserStore resolves reviewers
type UserStore interface {
	ListByRoles(ctx context.Context, roles ...string) ([]models.User, error)
}

// StoreNotifier writes notifications to the database and emits
// notification.created for each
type StoreNotifier struct {
	notifications NotificationStore
	users         UserStore
	emitter       *events.Emitter
	logger        ectologger.Logger
}

func NewStoreNotifier(notifications NotificationStore, users UserStore, emitter *events.Emitter, logger ectologger.Logger) *StoreNotifier {
	return &StoreNotifier{
		notifications: notifications,
		users:         users,
		emitter:       emitter,
		logger:        logger,
	}
}

func (s *StoreNotifier) Notify(ctx context.Context, n *models.Notification) error {
	ctx, span := tracing.StartSpan(ctx, "notify.StoreNotifier.Notify")
	defer span.End()

	return s.deliver(ctx, []*models.Notification{n})
}

func (s *StoreNotifier) NotifyReviewers(ctx context.Context, t models.NotificationTemplate) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "notify.StoreNotifier.NotifyReviewers")
	defer span.End()

	reviewers, err := s.users.ListByRoles(ctx, models.ReviewerRoles...)
	if err != nil {
		return 0, err
	}
	if len(reviewers) == 0 {
		s.logger.WithContext(ctx).Warn("No reviewers to notify")
		return 0, nil
	}

	batch := make([]*models.Notification, 0, len(reviewers))
	for _, reviewer := range reviewers {
		batch = append(batch, t.For(reviewer.ID))
	}

	if err := s.deliver(ctx, batch); err != nil {
		return 0, err
	}
	return len(batch), nil
}

func (s *StoreNotifier) deliver(ctx context.Context, batch []*models.Notification) error {
	if err := s.notifications.CreateBatch(ctx, batch); err != nil {
		return err
	}

	for _, n := range batch {
		metrics.NotificationsTotal.WithLabelValues(string(n.Type)).Inc()
		if err := s.emitter.EmitNotificationCreated(ctx, n); err != nil {
			// stored notifications stay visible in-app even if the event is lost
			s.logger.WithContext(ctx).WithError(err).WithField("notification_id", n.ID).Warn("Failed to announce notification")
		}
	}
	return nil
}
