package user

import (
	"context"
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// Repository reads users. Account management lives elsewhere.
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// ListByRoles returns users holding any of roles
func (r *Repository) ListByRoles(ctx context.Context, roles ...string) ([]models.User, error) {
	ctx, span := tracing.StartSpan(ctx, "user.Repository.ListByRoles")
	defer span.End()

	users := []models.User{}
	if len(roles) == 0 {
		return users, nil
	}

	args := make([]any, len(roles))
	for i, role := range roles {
		args[i] = role
	}

	sb := database.NewSelectBuilder()
	sb.Select("id", "email", "name", "role")
	sb.From("users")
	sb.Where(sb.In("role", args...))
	sb.OrderBy("created_at")

	query, qargs := sb.Build()
	if err := r.db.Conn(ctx).SelectContext(ctx, &users, query, qargs...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"roles": roles}).Error("Failed to list users by role")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list users")
	}
	return users, nil
}

// CountByRole counts users with exactly role
func (r *Repository) CountByRole(ctx context.Context, role string) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "user.Repository.CountByRole")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("users")
	sb.Where(sb.Equal("role", role))

	query, args := sb.Build()
	var count int
	if err := r.db.Conn(ctx).GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count users")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count users")
	}
	return count, nil
}
