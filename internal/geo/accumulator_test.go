package geo

import (
	"testing"

	"github.com/javiserrasc-tech/Corricion/internal/models"
)

func point(lat, lon float64, ts int64) models.GeoPoint {
	return models.GeoPoint{Latitude: lat, Longitude: lon, Timestamp: ts, Accuracy: 5}
}

func TestAccumulatorFirstPointContributesZero(t *testing.T) {
	acc := NewAccumulator(3)
	if inc := acc.Advance(point(40.0, -3.0, 1000)); inc != 0 {
		t.Fatalf("first point increment = %v, want 0", inc)
	}
	if acc.LastPoint() == nil {
		t.Fatal("first point should become the last-point reference")
	}
}

func TestAccumulatorMovementIncrement(t *testing.T) {
	acc := NewAccumulator(3)
	acc.Advance(point(40.0000, -3.0000, 1000))

	inc := acc.Advance(point(40.0001, -3.0000, 6000))
	if inc < 0.0105 || inc > 0.0118 {
		t.Fatalf("increment = %v km, want ~0.0111", inc)
	}
}

func TestAccumulatorJitterSuppressed(t *testing.T) {
	acc := NewAccumulator(3)
	acc.Advance(point(40.0001, -3.0000, 1000))

	// Same coordinates: zero distance, still advances the reference
	if inc := acc.Advance(point(40.0001, -3.0000, 2000)); inc != 0 {
		t.Fatalf("stationary increment = %v, want 0", inc)
	}
	if last := acc.LastPoint(); last == nil || last.Timestamp != 2000 {
		t.Fatalf("last point reference not advanced past jitter sample: %+v", acc.LastPoint())
	}

	// ~2.2m move stays under the 3m threshold
	if inc := acc.Advance(point(40.00012, -3.0000, 3000)); inc != 0 {
		t.Fatalf("sub-threshold increment = %v, want 0", inc)
	}
}

func TestAccumulatorCumulativeMonotonic(t *testing.T) {
	acc := NewAccumulator(3)
	coords := []float64{40.0000, 40.0001, 40.0001, 40.0002, 40.0002, 40.0004}

	total := 0.0
	for i, lat := range coords {
		inc := acc.Advance(point(lat, -3.0, int64(1000*(i+1))))
		if inc < 0 {
			t.Fatalf("negative increment %v at point %d", inc, i)
		}
		total += inc
	}
	if total <= 0 {
		t.Fatalf("total distance = %v, want > 0", total)
	}
}

func TestAccumulatorReset(t *testing.T) {
	acc := NewAccumulator(3)
	acc.Advance(point(40.0, -3.0, 1000))
	acc.Reset()
	if acc.LastPoint() != nil {
		t.Fatal("reset should clear the last-point reference")
	}
	if inc := acc.Advance(point(41.0, -3.0, 2000)); inc != 0 {
		t.Fatalf("first point after reset contributed %v, want 0", inc)
	}
}

func TestSpeedKmh(t *testing.T) {
	if got := SpeedKmh(2.5); got != 9.0 {
		t.Errorf("SpeedKmh(2.5) = %v, want 9.0", got)
	}
	if got := SpeedKmh(0); got != 0 {
		t.Errorf("SpeedKmh(0) = %v, want 0", got)
	}
	if got := SpeedKmh(-1); got != 0 {
		t.Errorf("SpeedKmh(-1) = %v, want 0 for unknown speed", got)
	}
}
