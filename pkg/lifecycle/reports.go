package lifecycle

import (
	"context"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/notify"
	"github.com/Ramsey-B/fern/pkg/scoring"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// ChangeReportStatus sets a report's status and tells its owner. Returns
// false for an unknown report or invalid status.
func (m *Manager) ChangeReportStatus(ctx context.Context, reportID string, status models.ReportStatus) bool {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.ChangeReportStatus")
	defer span.End()

	log := m.logger.WithContext(ctx).WithFields(map[string]any{
		"report_id": reportID,
		"status":    status,
	})

	if !status.Valid() {
		log.Warn("Invalid report status")
		return false
	}

	changed, err := m.reports.UpdateStatus(ctx, reportID, status)
	if err != nil {
		log.WithError(err).Error("Failed to update report status")
		return false
	}
	if !changed {
		log.Info("Report not found")
		return false
	}

	_ = m.emitter.EmitReportStatusChanged(ctx, reportID, status)
	m.NotifyStatusChange(ctx, reportID, status)
	return true
}

// NotifyStatusChange tells the report owner their report is now in status
func (m *Manager) NotifyStatusChange(ctx context.Context, reportID string, status models.ReportStatus) bool {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.NotifyStatusChange")
	defer span.End()

	log := m.logger.WithContext(ctx).WithField("report_id", reportID)

	report, err := m.reports.GetByID(ctx, reportID)
	if err != nil {
		log.WithError(err).Error("Failed to load report")
		return false
	}
	if report == nil {
		return false
	}

	if err := m.notifier.Notify(ctx, notify.StatusChangedForOwner(report.UserID, report.Title, status)); err != nil {
		log.WithError(err).Error("Failed to send status change notification")
		return false
	}
	return true
}

// RelatedReports returns reports linked to reportID by any stored match.
// The graph projection answers when configured, the match store otherwise.
func (m *Manager) RelatedReports(ctx context.Context, reportID string) []*models.Report {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.RelatedReports")
	defer span.End()

	log := m.logger.WithContext(ctx).WithField("report_id", reportID)

	ids, err := m.relatedIDs(ctx, reportID)
	if err != nil {
		log.WithError(err).Error("Failed to resolve related reports")
		return []*models.Report{}
	}
	if len(ids) == 0 {
		return []*models.Report{}
	}

	reports, err := m.reports.ListByIDs(ctx, ids)
	if err != nil {
		log.WithError(err).Error("Failed to load related reports")
		return []*models.Report{}
	}
	return reports
}

func (m *Manager) relatedIDs(ctx context.Context, reportID string) ([]string, error) {
	if m.projection != nil {
		return m.projection.Related(ctx, reportID)
	}

	report, err := m.reports.GetByID(ctx, reportID)
	if err != nil || report == nil {
		return nil, err
	}

	side := report.Side()
	matches, err := m.matches.ListForReport(ctx, side, reportID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(matches))
	for i := range matches {
		ids = append(ids, matches[i].ReportID(side.Other()))
	}
	return ids, nil
}

// Stats summarizes reports, matches and users. Counts that fail to load
// are reported as 0.
func (m *Manager) Stats(ctx context.Context) models.SystemStats {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.Stats")
	defer span.End()

	log := m.logger.WithContext(ctx)
	var stats models.SystemStats

	counts, err := m.reports.Counts(ctx)
	if err != nil {
		log.WithError(err).Error("Failed to count reports")
	} else {
		stats.TotalLostReports = counts.Lost
		stats.TotalFoundReports = counts.Found
		stats.SuccessfulMatches = counts.Matched
		stats.MatchRate = scoring.PercentOf(counts.Matched, counts.Lost+counts.Found)
	}

	if stats.PendingMatches, err = m.matches.CountByStatus(ctx, models.MatchStatusPending); err != nil {
		log.WithError(err).Error("Failed to count pending matches")
	}
	if stats.TotalUsers, err = m.users.CountByRole(ctx, models.RoleUser); err != nil {
		log.WithError(err).Error("Failed to count users")
	}

	return stats
}
