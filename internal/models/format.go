package models

import (
	"fmt"
	"math"
)

// FormatDuration renders elapsed milliseconds as mm:ss, or hh:mm:ss past one hour
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	seconds := (ms / 1000) % 60
	minutes := (ms / (1000 * 60)) % 60
	hours := ms / (1000 * 60 * 60)

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}

// FormatPace renders minutes-per-km as "m:ss". Zero, negative and non-finite
// paces all render as "0:00" so a run with no distance never shows NaN.
func FormatPace(paceMinutes float64) string {
	if math.IsNaN(paceMinutes) || math.IsInf(paceMinutes, 0) || paceMinutes <= 0 {
		return "0:00"
	}
	mins := int(paceMinutes)
	secs := int(math.Round((paceMinutes - float64(mins)) * 60))
	if secs == 60 {
		mins++
		secs = 0
	}
	return fmt.Sprintf("%d:%02d", mins, secs)
}
