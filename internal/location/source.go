package location

import (
	"errors"
	"time"
)

// ErrUnavailable is returned when no location capability can deliver fixes.
// Starting a run without one is fatal to the action, not to the process.
var ErrUnavailable = errors.New("location capability unavailable")

// Fix is one raw location sample reported by a positioning capability.
// It has not passed admission filtering yet.
type Fix struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"` // Unix timestamp in milliseconds
	Accuracy  float64 `json:"accuracy"`  // horizontal accuracy in meters
	Speed     float64 `json:"speed"`     // meters/second, <= 0 when the device did not report one
}

// Options configure fix delivery
type Options struct {
	// HighAccuracy requests the most precise positioning mode available
	HighAccuracy bool
	// MaximumAge is how old a cached fix may be; 0 means always fresh
	MaximumAge time.Duration
	// Timeout bounds how long a single fix acquisition may take
	Timeout time.Duration
}

// Source is a cancellable stream of location fixes. Start begins delivery and
// invokes onFix for each sample, one at a time, never concurrently. Stop
// cancels delivery deterministically and is safe to call multiple times.
type Source interface {
	Start(onFix func(Fix)) error
	Stop()
}
