package models

// RunStatus represents the lifecycle status of a run session
type RunStatus string

const (
	StatusIdle      RunStatus = "IDLE"
	StatusRunning   RunStatus = "RUNNING"
	StatusPaused    RunStatus = "PAUSED"
	StatusCompleted RunStatus = "COMPLETED"
)

// GeoPoint is a single accepted location fix. Points are owned by the path
// they belong to and are never mutated after creation.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"` // Unix timestamp in milliseconds
	Accuracy  float64 `json:"accuracy"`  // horizontal accuracy in meters
	Speed     float64 `json:"speed"`     // meters/second, 0 when the device did not report one
}

// RunSession is the aggregate for one tracked activity. The path is
// append-only while the session is active; insertion order defines the route.
// Once Status reaches COMPLETED the session is immutable except for the
// AIInsight annotation attached after the fact.
type RunSession struct {
	ID          string     `json:"id"`
	StartTime   int64      `json:"startTime"`         // Unix timestamp in milliseconds
	EndTime     *int64     `json:"endTime"`           // nil while active
	Path        []GeoPoint `json:"path"`
	DistanceKm  float64    `json:"distanceKm"`
	AveragePace float64    `json:"averagePace"` // minutes per km, derived at finalization
	Status      RunStatus  `json:"status"`
	AIInsight   *string    `json:"aiInsight,omitempty"`
}

// DashboardStats aggregates totals over the run history
type DashboardStats struct {
	TotalDistance float64 `json:"totalDistance"`
	TotalRuns     int     `json:"totalRuns"`
	AveragePace   float64 `json:"averagePace"`
}
