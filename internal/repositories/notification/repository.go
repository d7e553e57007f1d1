package notification

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository handles notification persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new notification repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// CreateBatch inserts notifications in a single statement
func (r *Repository) CreateBatch(ctx context.Context, notifications []*models.Notification) error {
	ctx, span := tracing.StartSpan(ctx, "notification.Repository.CreateBatch")
	defer span.End()

	if len(notifications) == 0 {
		return nil
	}

	now := time.Now().UTC()
	ib := database.NewInsertBuilder()
	ib.InsertInto("notifications")
	ib.Cols("id", "user_id", "title", "message", "type", "related_match_id", "is_read", "created_at")
	for _, n := range notifications {
		if n.ID == "" {
			n.ID = uuid.New().String()
		}
		n.CreatedAt = now
		ib.Values(n.ID, n.UserID, n.Title, n.Message, n.Type, n.RelatedMatchID, n.IsRead, n.CreatedAt)
	}

	query, args := ib.Build()
	if _, err := r.db.Conn(ctx).ExecContext(ctx, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"count": len(notifications)}).Error("Failed to create notifications")
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to create notifications")
	}

	r.logger.WithContext(ctx).WithFields(map[string]any{"count": len(notifications)}).Debug("Created notifications")
	return nil
}

// Create inserts one notification
func (r *Repository) Create(ctx context.Context, n *models.Notification) error {
	return r.CreateBatch(ctx, []*models.Notification{n})
}
