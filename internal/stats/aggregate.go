// Package stats turns per-athlete activity lists into the challenge's
// aggregate totals.
package stats

import (
	"sort"
	"time"
)

const kmPerMile = 0.621371

// OtherType is the bucket for activities whose sport type is unset
const OtherType = "Other"

// TypeStat accumulates distance and count for one activity type
type TypeStat struct {
	DistanceKm float64 `json:"distance_km"`
	Count      int     `json:"count"`
}

// TypeBreakdown maps provider sport types to their accumulated stats.
// Keys are the provider's case-sensitive category strings.
type TypeBreakdown map[string]TypeStat

// AthleteBreakdown is one athlete's aggregate for a single run
type AthleteBreakdown struct {
	DisplayName     string
	TotalDistanceKm float64
	ActivityCount   int
	Types           TypeBreakdown
}

// AthleteStat is one athlete's entry in the snapshot
type AthleteStat struct {
	DisplayName     string        `json:"display_name"`
	TotalDistanceKm float64       `json:"total_distance_km"`
	ActivityCount   int           `json:"activity_count"`
	Types           TypeBreakdown `json:"types"`
}

// Period is the tracking window the snapshot covers
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Snapshot is the single materialized view of the challenge standings.
// It is recomputed from scratch each collection run and replaced wholesale.
type Snapshot struct {
	TotalDistanceKm    float64       `json:"total_distance_km"`
	TotalDistanceMiles float64       `json:"total_distance_miles"`
	Athletes           []AthleteStat `json:"athletes"`
	Types              TypeBreakdown `json:"types"`
	AthleteCount       int           `json:"athlete_count"`
	LastUpdated        time.Time     `json:"last_updated"`
	Period             Period        `json:"period"`
}

// Activity is the slice of a provider activity that counts toward the
// challenge. Nothing else about an activity is retained.
type Activity struct {
	DistanceMeters float64
	Type           string
}

// Breakdown computes one athlete's totals from their activities for the
// run. Distances arrive in meters and are accumulated in kilometers.
// Activities without a sport type land in the "Other" bucket.
func Breakdown(displayName string, activities []Activity) AthleteBreakdown {
	b := AthleteBreakdown{
		DisplayName: displayName,
		Types:       make(TypeBreakdown),
	}

	for _, a := range activities {
		km := a.DistanceMeters / 1000

		typ := a.Type
		if typ == "" {
			typ = OtherType
		}

		ts := b.Types[typ]
		ts.DistanceKm += km
		ts.Count++
		b.Types[typ] = ts

		b.TotalDistanceKm += km
		b.ActivityCount++
	}

	return b
}

// Combine merges per-athlete breakdowns into the snapshot. Athletes are
// ordered by total distance descending; equal totals keep their input
// order. Apart from LastUpdated the result is a pure function of the
// inputs.
func Combine(perAthlete []AthleteBreakdown, period Period, now time.Time) *Snapshot {
	snap := &Snapshot{
		Athletes:     make([]AthleteStat, 0, len(perAthlete)),
		Types:        make(TypeBreakdown),
		AthleteCount: len(perAthlete),
		LastUpdated:  now,
		Period:       period,
	}

	for _, b := range perAthlete {
		snap.TotalDistanceKm += b.TotalDistanceKm

		for typ, ts := range b.Types {
			global := snap.Types[typ]
			global.DistanceKm += ts.DistanceKm
			global.Count += ts.Count
			snap.Types[typ] = global
		}

		snap.Athletes = append(snap.Athletes, AthleteStat{
			DisplayName:     b.DisplayName,
			TotalDistanceKm: b.TotalDistanceKm,
			ActivityCount:   b.ActivityCount,
			Types:           b.Types,
		})
	}

	sort.SliceStable(snap.Athletes, func(i, j int) bool {
		return snap.Athletes[i].TotalDistanceKm > snap.Athletes[j].TotalDistanceKm
	})

	snap.TotalDistanceMiles = snap.TotalDistanceKm * kmPerMile

	return snap
}
