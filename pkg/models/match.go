package models

import "time"

// MatchStatus is the review state of a match
type MatchStatus string

const (
	MatchStatusPending   MatchStatus = "pending"
	MatchStatusConfirmed MatchStatus = "confirmed"
	MatchStatusRejected  MatchStatus = "rejected"
)

// IsTerminal reports whether no further transition is allowed
func (s MatchStatus) IsTerminal() bool {
	return s == MatchStatusConfirmed || s == MatchStatusRejected
}

func (s MatchStatus) Valid() bool {
	return s == MatchStatusPending || s.IsTerminal()
}

// Side names one of the two report columns of a match.
type Side int

const (
	SideLost Side = iota
	SideFound
)

// SideOf maps a report type onto the match column that holds it
func SideOf(t ReportType) Side {
	if t == ReportTypeFound {
		return SideFound
	}
	return SideLost
}

// Column returns the match column for this side. The set is closed.
func (s Side) Column() string {
	if s == SideFound {
		return "found_report_id"
	}
	return "lost_report_id"
}

func (s Side) Other() Side {
	if s == SideFound {
		return SideLost
	}
	return SideFound
}

func (s Side) String() string {
	if s == SideFound {
		return "found"
	}
	return "lost"
}

// Match is a proposed correspondence between one lost and one found report
type Match struct {
	ID            string      `json:"id" db:"id"`
	LostReportID  string      `json:"lost_report_id" db:"lost_report_id"`
	FoundReportID string      `json:"found_report_id" db:"found_report_id"`
	ImageScore    float64     `json:"image_score" db:"image_score"`
	TextScore     float64     `json:"text_score" db:"text_score"`
	LocationScore float64     `json:"location_score" db:"location_score"`
	TimeScore     float64     `json:"time_score" db:"time_score"`
	FinalScore    float64     `json:"final_score" db:"final_score"`
	Status        MatchStatus `json:"status" db:"status"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

// ReportID returns the id stored on the given side
func (m *Match) ReportID(side Side) string {
	if side == SideFound {
		return m.FoundReportID
	}
	return m.LostReportID
}

// SetReportID assigns id to the given side
func (m *Match) SetReportID(side Side, id string) {
	if side == SideFound {
		m.FoundReportID = id
		return
	}
	m.LostReportID = id
}

// MatchReport is the slice of a report shown alongside a match
type MatchReport struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	City        *string  `json:"location_city,omitempty"`
	UserID      string   `json:"user_id"`
	Images      []string `json:"images"`
}

// MatchDetails is a match joined with both of its reports
type MatchDetails struct {
	Match
	LostReport  MatchReport `json:"lost_report"`
	FoundReport MatchReport `json:"found_report"`
}

// Report returns the joined report on the given side
func (d *MatchDetails) Report(side Side) MatchReport {
	if side == SideFound {
		return d.FoundReport
	}
	return d.LostReport
}
