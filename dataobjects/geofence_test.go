package dataobjects

import (
	"testing"
)

func TestHaversineDistance(t *testing.T) {
	// Rossio and Marquês de Pombal, Lisbon, roughly 1.5 km apart
	a := Point{38.713889, -9.139444}
	b := Point{38.725278, -9.150000}

	d := HaversineDistance(a, b)
	if d < 1400 || d > 1700 {
		t.Errorf("expected roughly 1.5km, got %fm", d)
	}
	if HaversineDistance(a, a) != 0 {
		t.Error("expected zero distance between identical points")
	}
	if HaversineDistance(a, b) != HaversineDistance(b, a) {
		t.Error("expected distance to be symmetric")
	}
}

func TestGeoFenceContains(t *testing.T) {
	fence := &GeoFence{
		Center: Point{38.713889, -9.139444},
		Radius: 100,
	}

	if !fence.Contains(fence.Center) {
		t.Error("expected the fence to contain its center")
	}
	// ~50m north
	if !fence.Contains(Point{38.714339, -9.139444}) {
		t.Error("expected a point 50m away to be inside a 100m fence")
	}
	// ~1.5km away
	if fence.Contains(Point{38.725278, -9.150000}) {
		t.Error("expected a point 1.5km away to be outside a 100m fence")
	}
}
