package notify

import (
	"fmt"

	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/scoring"
)

// NewMatchForReviewers tells reviewers a match awaits a decision
func NewMatchForReviewers(match *models.Match, lostTitle, foundTitle string) models.NotificationTemplate {
	matchID := match.ID
	return models.NotificationTemplate{
		Title: "New Potential Match!",
		Message: fmt.Sprintf("A match of %d%% has been detected between \"%s\" and \"%s\". Please review and take action.",
			scoring.Percent(match.FinalScore), lostTitle, foundTitle),
		Type:           models.NotificationTypeAdmin,
		RelatedMatchID: &matchID,
	}
}

// MatchConfirmedForOwner tells a report owner their item was matched
func MatchConfirmedForOwner(matchID, userID, ownTitle, otherTitle string) *models.Notification {
	return &models.Notification{
		UserID: userID,
		Title:  "Match Found!",
		Message: fmt.Sprintf("Good news! Your report \"%s\" has been matched with \"%s\". Please contact to retrieve the item.",
			ownTitle, otherTitle),
		Type:           models.NotificationTypeMatch,
		RelatedMatchID: &matchID,
	}
}

var statusPhrases = map[models.ReportStatus]string{
	models.ReportStatusPending:    "Pending",
	models.ReportStatusProcessing: "Processing and searching for matches",
	models.ReportStatusMatched:    "Match found!",
	models.ReportStatusContacted:  "Contacted",
	models.ReportStatusClosed:     "Report closed",
}

// StatusPhrase is the user-facing description of a report status
func StatusPhrase(status models.ReportStatus) string {
	if phrase, ok := statusPhrases[status]; ok {
		return phrase
	}
	return string(status)
}

// StatusChangedForOwner tells a report owner their report moved
func StatusChangedForOwner(userID, title string, status models.ReportStatus) *models.Notification {
	return &models.Notification{
		UserID:  userID,
		Title:   "Report Status Update",
		Message: fmt.Sprintf("Your report \"%s\" status has been updated to: %s", title, StatusPhrase(status)),
		Type:    models.NotificationTypeStatus,
	}
}
