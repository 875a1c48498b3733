package strava

import "time"

// Activity is the slice of Strava's activity summary this system reads.
// Activities are consumed by aggregation within a run and never persisted.
type Activity struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Type      string    `json:"type"`
	SportType string    `json:"sport_type"`
	StartDate time.Time `json:"start_date"`
	Distance  float64   `json:"distance"` // meters
}

// Category returns the activity's sport type, falling back to the legacy
// type field for older activities.
func (a Activity) Category() string {
	if a.SportType != "" {
		return a.SportType
	}
	return a.Type
}
