package models

import (
	"time"
)

// ReportType distinguishes lost items from found items
type ReportType string

const (
	ReportTypeLost  ReportType = "lost"
	ReportTypeFound ReportType = "found"
)

// Opposite returns the type a report is matched against
func (t ReportType) Opposite() ReportType {
	if t == ReportTypeLost {
		return ReportTypeFound
	}
	return ReportTypeLost
}

func (t ReportType) Valid() bool {
	return t == ReportTypeLost || t == ReportTypeFound
}

// ReportStatus is the lifecycle state of a report
type ReportStatus string

const (
	ReportStatusPending    ReportStatus = "pending"
	ReportStatusProcessing ReportStatus = "processing"
	ReportStatusMatched    ReportStatus = "matched"
	ReportStatusContacted  ReportStatus = "contacted"
	ReportStatusClosed     ReportStatus = "closed"
)

// Valid reports whether s is a known report status
func (s ReportStatus) Valid() bool {
	switch s {
	case ReportStatusPending, ReportStatusProcessing, ReportStatusMatched, ReportStatusContacted, ReportStatusClosed:
		return true
	}
	return false
}

// CandidateExcludedStatuses are never offered as match candidates
var CandidateExcludedStatuses = []ReportStatus{ReportStatusClosed, ReportStatusMatched}

// Report is a lost or found item record
type Report struct {
	ID                  string       `json:"id" db:"id"`
	UserID              string       `json:"user_id" db:"user_id"`
	Type                ReportType   `json:"type" db:"type"`
	Title               string       `json:"title" db:"title"`
	Description         string       `json:"description" db:"description"`
	Category            string       `json:"category" db:"category"`
	Color               *string      `json:"color,omitempty" db:"color"`
	DistinguishingMarks *string      `json:"distinguishing_marks,omitempty" db:"distinguishing_marks"`
	DateOccurred        time.Time    `json:"date_occurred" db:"date_occurred"`
	LocationAddress     *string      `json:"location_address,omitempty" db:"location_address"`
	LocationCity        *string      `json:"location_city,omitempty" db:"location_city"`
	LocationLat         *float64     `json:"location_lat,omitempty" db:"location_lat"`
	LocationLng         *float64     `json:"location_lng,omitempty" db:"location_lng"`
	Status              ReportStatus `json:"status" db:"status"`
	Images              []string     `json:"images" db:"-"`
	CreatedAt           time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at" db:"updated_at"`
}

// HasCoordinates reports whether both latitude and longitude are present
func (r *Report) HasCoordinates() bool {
	return r.LocationLat != nil && r.LocationLng != nil
}

// Side returns which column of a match this report occupies
func (r *Report) Side() Side {
	return SideOf(r.Type)
}

// StringValue dereferences an optional string
func StringValue(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// ReportCounts are aggregate report totals for the dashboard
type ReportCounts struct {
	Lost    int `db:"lost"`
	Found   int `db:"found"`
	Matched int `db:"matched"`
}
