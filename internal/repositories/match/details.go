package match

import (
	"context"

	"github.com/huandu/go-sqlbuilder"

	"github.com/Ramsey-B/fern/pkg/database"
	"github.com/Ramsey-B/fern/pkg/models"
)

// detailRow flattens a match joined with its lost and found reports
type detailRow struct {
	models.Match
	LostTitle        string  `db:"lost_title"`
	LostDescription  string  `db:"lost_description"`
	LostCategory     string  `db:"lost_category"`
	LostCity         *string `db:"lost_city"`
	LostUserID       string  `db:"lost_user_id"`
	FoundTitle       string  `db:"found_title"`
	FoundDescription string  `db:"found_description"`
	FoundCategory    string  `db:"found_category"`
	FoundCity        *string `db:"found_city"`
	FoundUserID      string  `db:"found_user_id"`
}

func detailsQuery() *sqlbuilder.SelectBuilder {
	sb := database.NewSelectBuilder()
	sb.Select(
		"m.id", "m.lost_report_id", "m.found_report_id", "m.image_score", "m.text_score",
		"m.location_score", "m.time_score", "m.final_score", "m.status", "m.created_at", "m.updated_at",
		"lr.title AS lost_title", "lr.description AS lost_description", "lr.category AS lost_category",
		"lr.location_city AS lost_city", "lr.user_id AS lost_user_id",
		"fr.title AS found_title", "fr.description AS found_description", "fr.category AS found_category",
		"fr.location_city AS found_city", "fr.user_id AS found_user_id",
	)
	sb.From("ai_matches m")
	sb.Join("reports lr", "lr.id = m.lost_report_id")
	sb.Join("reports fr", "fr.id = m.found_report_id")
	return sb
}

func (r *Repository) queryDetails(ctx context.Context, query string, args []any) ([]models.MatchDetails, error) {
	var rows []detailRow
	if err := r.db.Conn(ctx).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, err
	}

	details := make([]models.MatchDetails, 0, len(rows))
	reportIDs := make([]string, 0, 2*len(rows))
	for _, row := range rows {
		details = append(details, models.MatchDetails{
			Match: row.Match,
			LostReport: models.MatchReport{
				ID:          row.LostReportID,
				Title:       row.LostTitle,
				Description: row.LostDescription,
				Category:    row.LostCategory,
				City:        row.LostCity,
				UserID:      row.LostUserID,
			},
			FoundReport: models.MatchReport{
				ID:          row.FoundReportID,
				Title:       row.FoundTitle,
				Description: row.FoundDescription,
				Category:    row.FoundCategory,
				City:        row.FoundCity,
				UserID:      row.FoundUserID,
			},
		})
		reportIDs = append(reportIDs, row.LostReportID, row.FoundReportID)
	}

	if r.images == nil || len(details) == 0 {
		return details, nil
	}

	images, err := r.images.ImagesByReport(ctx, reportIDs)
	if err != nil {
		return nil, err
	}
	for i := range details {
		details[i].LostReport.Images = orEmpty(images[details[i].LostReportID])
		details[i].FoundReport.Images = orEmpty(images[details[i].FoundReportID])
	}
	return details, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
