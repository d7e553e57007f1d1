// Package geo scores how close two reports are in space and time.
package geo

import (
	"math"
	"time"

	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean radius used for great-circle distances
const EarthRadiusKm = 6371.0

// MaxDateDiffDays is the gap beyond which two dates are unrelated
const MaxDateDiffDays = 45.0

// Place is the location half of a report. Any field may be absent.
type Place struct {
	City    *string
	Address *string
	Lat     *float64
	Lng     *float64
}

func (p Place) hasCoordinates() bool {
	return p.Lat != nil && p.Lng != nil
}

// DistanceKm returns the great-circle distance between two points given in degrees.
func DistanceKm(lat1, lng1, lat2, lng2 float64) float64 {
	a := s2.LatLngFromDegrees(lat1, lng1)
	b := s2.LatLngFromDegrees(lat2, lng2)
	return a.Distance(b).Radians() * EarthRadiusKm
}

// DistanceScore maps a distance in kilometers onto [0.1, 1]. Beyond 50km the
// plain 1-km/200 tail would jump back above the 50km band (0.745 at 51km,
// 0.5 at 100km), so it is capped at 0.4 and the score never rises with
// distance. Scores past 50km are therefore lower than the uncapped formula
// until about 120km, where both give 0.4.
func DistanceScore(km float64) float64 {
	switch {
	case km <= 1:
		return 1.0
	case km <= 5:
		return 0.9
	case km <= 10:
		return 0.8
	case km <= 20:
		return 0.6
	case km <= 50:
		return 0.4
	}
	return math.Max(0.1, math.Min(0.4, 1-km/200))
}

// LocationScore compares two places by coordinates when both have them,
// otherwise by city and address. textSim scores the address pair.
func LocationScore(a, b Place, textSim func(a, b string) float64) float64 {
	if a.hasCoordinates() && b.hasCoordinates() {
		return DistanceScore(DistanceKm(*a.Lat, *a.Lng, *b.Lat, *b.Lng))
	}

	if a.City == nil || b.City == nil || *a.City == "" || *b.City == "" {
		return 0
	}
	if *a.City != *b.City {
		return 0.1
	}

	if a.Address != nil && b.Address != nil && *a.Address != "" && *b.Address != "" && textSim != nil {
		return 0.7 + 0.3*textSim(*a.Address, *b.Address)
	}
	return 0.7
}

// DaysBetween returns the absolute number of calendar days between a and b.
func DaysBetween(a, b time.Time) float64 {
	da := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	db := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return math.Abs(da.Sub(db).Hours() / 24)
}

// TimeScore maps the day gap between two dates onto [0, 1].
func TimeScore(a, b time.Time) float64 {
	days := DaysBetween(a, b)
	switch {
	case days > MaxDateDiffDays:
		return 0
	case days <= 1:
		return 1.0
	case days <= 3:
		return 0.95
	case days <= 7:
		return 0.85
	case days <= 14:
		return 0.7
	}
	return math.Max(0.2, 1-days/MaxDateDiffDays)
}
