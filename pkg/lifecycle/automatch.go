package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/Ramsey-B/fern/pkg/events"
	"github.com/Ramsey-B/fern/pkg/metrics"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/notify"
	"github.com/Ramsey-B/fern/pkg/redis"
	"github.com/Ramsey-B/fern/pkg/tracing"
)

// SaveMatch persists a proposed match unless its exact lost/found pair is
// already stored. Returns the saved match, or nil for a duplicate or failure.
func (m *Manager) SaveMatch(ctx context.Context, match *models.Match) *models.Match {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.SaveMatch")
	defer span.End()

	log := m.logger.WithContext(ctx).WithFields(map[string]any{
		"lost_report_id":  match.LostReportID,
		"found_report_id": match.FoundReportID,
	})

	existing, err := m.matches.FindByPair(ctx, match.LostReportID, match.FoundReportID)
	if err != nil {
		log.WithError(err).Error("Failed to check for existing match")
		return nil
	}
	if existing != nil {
		log.Debug("Match already exists")
		return nil
	}

	saved, err := m.matches.Insert(ctx, match)
	if err != nil {
		log.WithError(err).Error("Failed to save match")
		return nil
	}
	if saved == nil {
		// lost a race with a concurrent run; the unique index kept one row
		log.Debug("Match already exists")
		return nil
	}

	metrics.MatchTransitionsTotal.WithLabelValues(string(models.MatchStatusPending)).Inc()
	m.announceCandidate(ctx, saved)

	return saved
}

func (m *Manager) announceCandidate(ctx context.Context, match *models.Match) {
	log := m.logger.WithContext(ctx).WithField("match_id", match.ID)

	lostTitle, foundTitle := m.titles(ctx, match)
	if _, err := m.notifier.NotifyReviewers(ctx, notify.NewMatchForReviewers(match, lostTitle, foundTitle)); err != nil {
		log.WithError(err).Error("Failed to notify reviewers of match")
	}

	highConfidence := m.finder.Config().IsHighConfidence(match.FinalScore)
	if highConfidence {
		log.WithField("final_score", match.FinalScore).Info("High confidence match saved")
	}
	_ = m.emitter.EmitMatch(ctx, events.EventTypeMatchCreated, match, highConfidence)

	if m.projection != nil {
		_ = m.projection.RecordCandidate(ctx, match)
	}
}

const (
	defaultLostTitle  = "Lost report"
	defaultFoundTitle = "Found report"
)

// titles resolves the report titles shown to reviewers, falling back to
// generic labels when a report cannot be loaded.
func (m *Manager) titles(ctx context.Context, match *models.Match) (string, string) {
	reports, err := m.reports.ListByIDs(ctx, []string{match.LostReportID, match.FoundReportID})
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).WithField("match_id", match.ID).Warn("Failed to load report titles")
		return defaultLostTitle, defaultFoundTitle
	}

	lost, found := defaultLostTitle, defaultFoundTitle
	for _, r := range reports {
		switch r.ID {
		case match.LostReportID:
			if r.Title != "" {
				lost = r.Title
			}
		case match.FoundReportID:
			if r.Title != "" {
				found = r.Title
			}
		}
	}
	return lost, found
}

// RunAutoMatchForReport finds and saves matches for a report and returns
// how many new matches were stored. A report with new matches moves from
// pending to processing.
func (m *Manager) RunAutoMatchForReport(ctx context.Context, reportID string) int {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.RunAutoMatchForReport")
	defer span.End()

	start := time.Now()
	defer func() {
		metrics.MatchRunDuration.Observe(time.Since(start).Seconds())
	}()

	log := m.logger.WithContext(ctx).WithField("report_id", reportID)

	var (
		created int
		ran     bool
	)
	run := func(ctx context.Context) error {
		ran = true
		n, err := m.autoMatch(ctx, reportID)
		created = n
		return err
	}

	var err error
	if m.locker != nil {
		err = m.locker.WithLock(ctx, "automatch:"+reportID, m.lockTTL, run)
		// lock backend down: run unlocked, the pair index still dedups
		if err != nil && !ran && !errors.Is(err, redis.ErrLockNotAcquired) {
			log.WithError(err).Warn("Auto-match lock unavailable, running unlocked")
			err = run(ctx)
		}
	} else {
		err = run(ctx)
	}

	switch {
	case errors.Is(err, redis.ErrLockNotAcquired):
		log.Info("Auto-match already running for report")
		metrics.MatchRunsTotal.WithLabelValues("locked").Inc()
		return 0
	case err != nil:
		log.WithError(err).Error("Auto-match failed")
		metrics.MatchRunsTotal.WithLabelValues("error").Inc()
		return created
	case created == 0:
		metrics.MatchRunsTotal.WithLabelValues("no_matches").Inc()
	default:
		metrics.MatchRunsTotal.WithLabelValues("matched").Inc()
	}

	log.WithField("created", created).Info("Auto-match complete")
	return created
}

func (m *Manager) autoMatch(ctx context.Context, reportID string) (int, error) {
	proposed, err := m.finder.FindPotentialMatches(ctx, reportID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, match := range proposed {
		if m.SaveMatch(ctx, match) != nil {
			created++
		}
	}

	if created > 0 {
		changed, err := m.reports.UpdateStatus(ctx, reportID, models.ReportStatusProcessing, models.ReportStatusPending)
		if err != nil {
			return created, err
		}
		if changed {
			_ = m.emitter.EmitReportStatusChanged(ctx, reportID, models.ReportStatusProcessing)
		}
	}
	return created, nil
}

// Candidates returns the ranked matches a run would propose without saving them
func (m *Manager) Candidates(ctx context.Context, reportID string) []*models.Match {
	ctx, span := tracing.StartSpan(ctx, "lifecycle.Manager.Candidates")
	defer span.End()

	proposed, err := m.finder.FindPotentialMatches(ctx, reportID)
	if err != nil {
		m.logger.WithContext(ctx).WithError(err).WithField("report_id", reportID).Error("Failed to find candidates")
		return []*models.Match{}
	}
	if proposed == nil {
		return []*models.Match{}
	}
	return proposed
}
