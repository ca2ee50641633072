package geo

import "github.com/javiserrasc-tech/Corricion/internal/models"

// metersPerSecondToKmh converts device-reported speed to display units
const metersPerSecondToKmh = 3.6

// Accumulator converts consecutive accepted points into an incrementally
// accumulated great-circle distance, suppressing stationary GPS jitter.
type Accumulator struct {
	jitterKm float64
	last     *models.GeoPoint
}

// NewAccumulator creates an accumulator that treats increments at or below
// jitterMeters as stationary noise.
func NewAccumulator(jitterMeters float64) *Accumulator {
	return &Accumulator{jitterKm: jitterMeters / 1000}
}

// Advance records point as the newest accepted sample and returns the distance
// increment in kilometers it contributes. The first point of a session and any
// point within the jitter threshold contribute zero, but both still become the
// reference for the next measurement: the path records raw admitted samples
// regardless of whether they moved the total.
func (a *Accumulator) Advance(point models.GeoPoint) float64 {
	prev := a.last
	a.last = &point

	if prev == nil {
		return 0
	}

	d := HaversineKm(prev.Latitude, prev.Longitude, point.Latitude, point.Longitude)
	if d <= a.jitterKm {
		return 0
	}
	return d
}

// LastPoint returns the most recent accepted point, or nil before the first
func (a *Accumulator) LastPoint() *models.GeoPoint {
	return a.last
}

// Reset clears the accumulator for a brand-new session
func (a *Accumulator) Reset() {
	a.last = nil
}

// SpeedKmh converts a device-reported speed in m/s to km/h. Device speed is
// authoritative when available; unknown speeds report zero rather than being
// estimated from consecutive points.
func SpeedKmh(speedMs float64) float64 {
	if speedMs <= 0 {
		return 0
	}
	return speedMs * metersPerSecondToKmh
}
