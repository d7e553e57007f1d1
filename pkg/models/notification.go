package models

import "time"

type NotificationType string

const (
	NotificationTypeMatch  NotificationType = "match"
	NotificationTypeAdmin  NotificationType = "admin"
	NotificationTypeStatus NotificationType = "status"
	NotificationTypeSystem NotificationType = "system"
)

// Notification is a one-way message to a user
type Notification struct {
	ID             string           `json:"id" db:"id"`
	UserID         string           `json:"user_id" db:"user_id"`
	Title          string           `json:"title" db:"title"`
	Message        string           `json:"message" db:"message"`
	Type           NotificationType `json:"type" db:"type"`
	RelatedMatchID *string          `json:"related_match_id,omitempty" db:"related_match_id"`
	IsRead         bool             `json:"is_read" db:"is_read"`
	CreatedAt      time.Time        `json:"created_at" db:"created_at"`
}

// Reviewer roles receive new-match notifications
const (
	RoleUser      = "user"
	RoleAdmin     = "admin"
	RoleModerator = "moderator"
)

var ReviewerRoles = []string{RoleAdmin, RoleModerator}

// User is the subset of a user record the matcher reads
type User struct {
	ID    string `json:"id" db:"id"`
	Email string `json:"email" db:"email"`
	Name  string `json:"name" db:"name"`
	Role  string `json:"role" db:"role"`
}

// SystemStats summarizes reports and matches for the admin dashboard
type SystemStats struct {
	TotalLostReports  int     `json:"total_lost_reports"`
	TotalFoundReports int     `json:"total_found_reports"`
	SuccessfulMatches int     `json:"successful_matches"`
	PendingMatches    int     `json:"pending_matches"`
	TotalUsers        int     `json:"total_users"`
	MatchRate         float64 `json:"match_rate"`
}

// NotificationTemplate is a notification not yet addressed to a user
type NotificationTemplate struct {
	Title          string
	Message        string
	Type           NotificationType
	RelatedMatchID *string
}

// For addresses the template to userID
func (t NotificationTemplate) For(userID string) *Notification {
	return &Notification{
		UserID:         userID,
		Title:          t.Title,
		Message:        t.Message,
		Type:           t.Type,
		RelatedMatchID: t.RelatedMatchID,
	}
}
