package lifecycle

import (
	"context"
	"errors"

	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/notify"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

var errNotPending = errors.New("match is not pending")

// ConfirmMatch confirms a pending match, marks both reports matched and
// tells both owners. Returns false when the match is unknown, already
// decided, or the store fails.
func (m *Manager) ConfirmMatch(ctx context.Context, matchID string) bool {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.ConfirmMatch")
	defer span.End()

	log := m.logger.WithContext(ctx).WithField("match_id", matchID)

	details, err := m.matches.GetDetails(ctx, matchID)
	if err != nil {
		log.WithError(err).Error("Failed to load match")
		return false
	}
	if details == nil {
		log.Info("Match not found")
		return false
	}

	err = m.runInTx(ctx, func(ctx context.Context) error {
		ok, err := m.matches.UpdateStatusIfPending(ctx, matchID, models.MatchStatusConfirmed)
		if err != nil {
			return err
		}
		if !ok {
			return errNotPending
		}
		for _, id := range []string{details.LostReportID, details.FoundReportID} {
			if _, err := m.reports.UpdateStatus(ctx, id, models.ReportStatusMatched); err != nil {
				return err
			}
		}
		return nil
	})
	if errors.Is(err, errNotPending) {
		log.Info("Match is not pending, nothing to confirm")
		return false
	}
	if err != nil {
		log.WithError(err).Error("Failed to confirm match")
		return false
	}

	metrics.MatchTransitionsTotal.WithLabelValues(string(models.MatchStatusConfirmed)).Inc()

	match := details.Match
	match.Status = models.MatchStatusConfirmed

	lost, found := details.LostReport, details.FoundReport
	owners := []*models.Notification{
		notify.MatchConfirmedForOwner(matchID, lost.UserID, lost.Title, found.Title),
		notify.MatchConfirmedForOwner(matchID, found.UserID, found.Title, lost.Title),
	}
	for _, n := range owners {
		if err := m.notifier.Notify(ctx, n); err != nil {
			log.WithError(err).WithField("user_id", n.UserID).Error("Failed to notify report owner")
		}
	}

	_ = m.emitter.EmitMatch(ctx, events.EventTypeMatchConfirmed, &match, m.finder.Config().IsHighConfidence(match.FinalScore))
	_ = m.emitter.EmitReportStatusChanged(ctx, match.LostReportID, models.ReportStatusMatched)
	_ = m.emitter.EmitReportStatusChanged(ctx, match.FoundReportID, models.ReportStatusMatched)
	if m.projection != nil {
		_ = m.projection.RecordConfirmed(ctx, &match)
	}

	log.Info("Match confirmed")
	return true
}

// RejectMatch rejects a pending match. Reports are left as they are.
func (m *Manager) RejectMatch(ctx context.Context, matchID string) bool {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.RejectMatch")
	defer span.End()

	log := m.logger.WithContext(ctx).WithField("match_id", matchID)

	ok, err := m.matches.UpdateStatusIfPending(ctx, matchID, models.MatchStatusRejected)
	if err != nil {
		log.WithError(err).Error("Failed to reject match")
		return false
	}
	if !ok {
		log.Info("Match not found or not pending, nothing to reject")
		return false
	}

	metrics.MatchTransitionsTotal.WithLabelValues(string(models.MatchStatusRejected)).Inc()

	_ = m.emitter.EmitMatch(ctx, events.EventTypeMatchRejected, &models.Match{ID: matchID, Status: models.MatchStatusRejected}, false)

	log.Info("Match rejected")
	return true
}

// GetMatchesWithDetails lists matches joined with both reports, best first.
// An empty status lists every match.
func (m *Manager) GetMatchesWithDetails(ctx context.Context, status models.MatchStatus) []models.MatchDetails {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.GetMatchesWithDetails")
	defer span.End()

	details, err := m.matches.ListDetails(ctx, status)
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).WithField("status", status).Error("Failed to list matches")
		return []models.MatchDetails{}
	}
	if details == nil {
		return []models.MatchDetails{}
	}
	return details
}
