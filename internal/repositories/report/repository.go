package report

import (
	"context"
	"net/http"
	"time"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectologger"
	"github.com/google/uuid"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var reportColumns = []string{
	"id", "user_id", "type", "title", "description", "category", "color", "distinguishing_marks",
	"date_occurred", "location_address", "location_city", "location_lat", "location_lng",
	"status", "created_at", "updated_at",
}

// Repository handles report persistence
type Repository struct {
	db     database.DB
	logger ectologger.Logger
}

// NewRepository creates a new report repository
func NewRepository(db database.DB, logger ectologger.Logger) *Repository {
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// GetByID returns the report with its images, or nil when it does not exist
func (r *Repository) GetByID(ctx context.Context, id string) (*models.Report, error) {
	ctx, span := tracing.StartSpan(ctx, "report.Repository.GetByID")
	defer span.End()

	if _, err := uuid.Parse(id); err != nil {
		return nil, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select(reportColumns...)
	sb.From("reports")
	sb.Where(sb.Equal("id", id))

	query, args := sb.Build()
	var report models.Report
	if err := r.db.Conn(ctx).GetContext(ctx, &report, query, args...); err != nil {
		if database.NoRows(err) {
			return nil, nil
		}
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"report_id": id}).Error("Failed to get report")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to get report")
	}

	if err := r.attachImages(ctx, []*models.Report{&report}); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByIDs returns the reports that exist among ids, with images
func (r *Repository) ListByIDs(ctx context.Context, ids []string) ([]*models.Report, error) {
	ctx, span := tracing.StartSpan(ctx, "report.Repository.ListByIDs")
	defer span.End()

	if len(ids) == 0 {
		return []*models.Report{}, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select(reportColumns...)
	sb.From("reports")
	sb.Where(sb.In("id", toArgs(ids)...))
	sb.OrderBy("created_at DESC")

	query, args := sb.Build()
	var reports []*models.Report
	if err := r.db.Conn(ctx).SelectContext(ctx, &reports, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to list reports by id")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list reports")
	}

	if err := r.attachImages(ctx, reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// ListCandidates returns reports of the queried type and category that are
// still open, newest first
func (r *Repository) ListCandidates(ctx context.Context, q matching.CandidateQuery) ([]*models.Report, error) {
	ctx, span := tracing.StartSpan(ctx, "report.Repository.ListCandidates")
	defer span.End()

	sb := database.NewSelectBuilder()
	sb.Select(reportColumns...)
	sb.From("reports")

	where := []string{
		sb.Equal("type", q.Type),
		sb.Equal("category", q.Category),
	}
	if len(q.ExcludeStatuses) > 0 {
		where = append(where, sb.NotIn("status", toArgs(q.ExcludeStatuses)...))
	}
	sb.Where(where...)
	sb.OrderBy("created_at DESC")
	if q.Limit > 0 {
		sb.Limit(q.Limit)
	}

	query, args := sb.Build()
	var reports []*models.Report
	if err := r.db.Conn(ctx).SelectContext(ctx, &reports, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{
			"type":     q.Type,
			"category": q.Category,
		}).Error("Failed to list candidate reports")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to list candidate reports")
	}

	if err := r.attachImages(ctx, reports); err != nil {
		return nil, err
	}
	return reports, nil
}

// UpdateStatus sets the report status. When from is given the update only
// applies while the report is in one of those statuses. Reports whether a row changed.
func (r *Repository) UpdateStatus(ctx context.Context, id string, status models.ReportStatus, from ...models.ReportStatus) (bool, error) {
	ctx, span := tracing.StartSpan(ctx, "report.Repository.UpdateStatus")
	defer span.End()

	ub := database.NewUpdateBuilder()
	ub.Update("reports")
	ub.Set(
		ub.Assign("status", status),
		ub.Assign("updated_at", time.Now().UTC()),
	)
	where := []string{ub.Equal("id", id)}
	if len(from) > 0 {
		where = append(where, ub.In("status", toArgs(from)...))
	}
	ub.Where(where...)

	query, args := ub.Build()
	result, err := r.db.Conn(ctx).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.WithContext(ctx).WithError(err).WithFields(map[string]any{"report_id": id, "status": status}).Error("Failed to update report status")
		return false, httperror.NewHTTPError(http.StatusInternalServerError, "failed to update report status")
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// Counts returns lost, found and matched report totals
func (r *Repository) Counts(ctx context.Context) (models.ReportCounts, error) {
	ctx, span := tracing.StartSpan(ctx, "report.Repository.Counts")
	defer span.End()

	query := `
		SELECT
			COUNT(*) FILTER (WHERE type = 'lost') AS lost,
			COUNT(*) FILTER (WHERE type = 'found') AS found,
			COUNT(*) FILTER (WHERE status = 'matched') AS matched
		FROM reports
	`

	var counts models.ReportCounts
	if err := r.db.Conn(ctx).GetContext(ctx, &counts, query); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to count reports")
		return counts, httperror.NewHTTPError(http.StatusInternalServerError, "failed to count reports")
	}
	return counts, nil
}

type reportImage struct {
	ReportID string `db:"report_id"`
	ImageURL string `db:"image_url"`
}

func (r *Repository) attachImages(ctx context.Context, reports []*models.Report) error {
	if len(reports) == 0 {
		return nil
	}

	ids := make([]string, 0, len(reports))
	for _, report := range reports {
		ids = append(ids, report.ID)
	}

	images, err := r.ImagesByReport(ctx, ids)
	if err != nil {
		return err
	}
	for _, report := range reports {
		report.Images = images[report.ID]
		if report.Images == nil {
			report.Images = []string{}
		}
	}
	return nil
}

// ImagesByReport returns image URLs in display order keyed by report id
func (r *Repository) ImagesByReport(ctx context.Context, reportIDs []string) (map[string][]string, error) {
	ctx, span := tracing.StartSpan(ctx, "report.Repository.ImagesByReport")
	defer span.End()

	out := make(map[string][]string, len(reportIDs))
	if len(reportIDs) == 0 {
		return out, nil
	}

	sb := database.NewSelectBuilder()
	sb.Select("report_id", "image_url")
	sb.From("report_images")
	sb.Where(sb.In("report_id", toArgs(reportIDs)...))
	sb.OrderBy("report_id", "position")

	query, args := sb.Build()
	var images []reportImage
	if err := r.db.Conn(ctx).SelectContext(ctx, &images, query, args...); err != nil {
		r.logger.WithContext(ctx).WithError(err).Error("Failed to load report images")
		return nil, httperror.NewHTTPError(http.StatusInternalServerError, "failed to load report images")
	}

	for _, img := range images {
		out[img.ReportID] = append(out[img.ReportID], img.ImageURL)
	}
	return out, nil
}

func toArgs[T any](values []T) []any {
	args := make([]any, len(values))
	for i, v := range values {
		args[i] = v
	}
	return args
}
