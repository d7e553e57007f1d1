package match

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

var matchColumns = []string{
	"id", "lost_report_id", "found_report_id", "image_score", "text_score",
	"location_score", "time_score", "final_score", "status", "created_at", "updated_at",
}

// ImageSource resolves report images for joined match listings
type ImageSource interface {
	ImagesByReport(ctx context.Context, reportIDs []string) (map[string][]string, error)
}

// Repository handles ai_matches persistence
type Repository struct {
	db     database.DB
	images ImageSource
	logger ectologger.Logger
}

// NewRepository creates a new match repository
func NewRepository(db database.DB, images ImageSource, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		images: images,
		logger: logger,
	}
}

// FindByPair returns the match for the exact lost/found pair, or nil
func (r *Repository) FindByPair(ctx context.Context, lostReportID, foundReportID string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.FindByPair")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(matchColumns...)
	sb.From("ai_matches")
	sb.Where(
		sb.Equal("lost_report_id", lostReportID),
		sb.Equal("found_report_id", foundReportID),
	)

	query, args := sb.Build()
	var match models.Match
	if err := r.db.Conn(ctx).GetContext(ctx, &match, query, args...); err != nil {
		if database.NoRows(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"lost_report_id":  lostReportID,
			"found_report_id": foundReportID,
		}).Error("Failed to find match by pair")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to find match")
	}
	return &match, nil
}

// Insert stores a new pending match. A pair that already exists is left
// untouched and yields (nil, nil).
func (r *Repository) Insert(ctx context.Context, match *models.Match) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.Insert")
	defer span.End()

	if match.ID == "" {
		match.ID = uuid.New().String()
	}
	match.Status = models.MatchStatusPending
	match.CreatedAt = time.Now().UTC()
	match.UpdatedAt = match.CreatedAt

	ib := database.NewInsertBuilder()
	ib.InsertInto("ai_matches")
	ib.Cols(matchColumns...)
	ib.Values(match.ID, match.LostReportID, match.FoundReportID, match.ImageScore, match.TextScore,
		match.LocationScore, match.TimeScore, match.FinalScore, match.Status, match.CreatedAt, match.UpdatedAt)
	ib.OnConflictDoNothing("lost_report_id", "found_report_id").Returning("id")

	query, args := ib.Build()
	var id string
	if err := r.db.Conn(ctx).QueryRowxContext(ctx, query, args...).Scan(&id); err != nil {
		if database.NoRows(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"lost_report_id":  match.LostReportID,
			"found_report_id": match.FoundReportID,
		}).Error("Failed to insert match")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to insert match")
	}

	match.ID = id
	return match, nil
}

// GetByID returns the match or nil
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.GetByID")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select(matchColumns...)
	sb.From("ai_matches")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var match models.Match
	if err := r.db.Conn(ctx).GetContext(ctx, &match, query, args...); err != nil {
		if database.NoRows(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"match_id": id}).Error("Failed to get match")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match")
	}
	return &match, nil
}

// GetDetails returns the match joined with both reports, or nil
func (r *Repository) GetDetails(ctx context.Context, id string) (*models.MatchDetails, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.GetDetails")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	sb := detailsQuery()
	sb.Where(sb.Equal("m.id", id))

	details, err := r.queryDetails(ctx, sb.Build())
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"match_id": id}).Error("Failed to get match details")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get match details")
	}
	if len(details) == 0 {
		return nil, nil
	}
	return &details[0], nil
}

// ListDetails returns matches joined with both reports, best first. An
// empty status lists every match.
func (r *Repository) ListDetails(ctx context.Context, status models.MatchStatus) ([]models.MatchDetails, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListDetails")
	defer span.End()

	sb := detailsQuery()
	if status != "" {
		sb.Where(sb.Equal("m.status", status))
	}
	sb.OrderBy("m.final_score DESC", "m.created_at DESC")

	details, err := r.queryDetails(ctx, sb.Build())
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"status": status}).Error("Failed to list match details")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list matches")
	}
	return details, nil
}

// ListForReport returns every match holding reportID on the given side
func (r *Repository) ListForReport(ctx context.Context, side models.Side, reportID string) ([]models.Match, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.ListForReport")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(matchColumns...)
	sb.From("ai_matches")
	sb.Where(sb.Equal(side.Column(), reportID))
	sb.OrderBy("final_score DESC")

	query, args := sb.Build()
	matches := []models.Match{}
	if err := r.db.Conn(ctx).SelectContext(ctx, &matches, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"report_id": reportID, "side": side.String()}).Error("Failed to list matches for report")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list matches")
	}
	return matches, nil
}

// UpdateStatusIfPending moves a pending match to status. Reports whether
// the match was pending.
func (r *Repository) UpdateStatusIfPending(ctx context.Context, id string, status models.MatchStatus) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.UpdateStatusIfPending")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("ai_matches")
	ub.Set(
		ub.Assign("status", status),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	ub.Where(
		ub.Equal("id", id),
		ub.Equal("status", models.MatchStatusPending),
	)

	query, args := ub.Build()
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"match_id": id, "status": status}).Error("Failed to update match status")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update match status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// CountByStatus counts matches in the given status
func (r *Repository) CountByStatus(ctx context.Context, status models.MatchStatus) (int, error) {
	ctx, span := tracing.StartSpan(ctx, "match.Repository.CountByStatus")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select("COUNT(*)")
	sb.From("ai_matches")
	sb.Where(sb.Equal("status", status))

	query, args := sb.Build()
	var count int
	if err := r.db.Conn(ctx).GetContext(ctx, &count, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count matches")
		return 0, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count matches")
	}
	return count, nil
}
