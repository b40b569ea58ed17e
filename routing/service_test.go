package routing

import (
	"testing"

	"github.com/partsrunner/dispatchd/dataobjects"
)

func TestResultFromHopsCountsDistinctRoutes(t *testing.T) {
	// riding route A, transferring to B, then back onto A is 2 hops, not 3
	hops := dataobjects.PathHops{
		{LocationID: "X"},
		{LocationID: "Y", RouteID: "A"},
		{LocationID: "Z", RouteID: "B"},
		{LocationID: "W", RouteID: "A"},
	}
	result := resultFromHops(hops)
	if result.Hops != 2 {
		t.Fatalf("expected 2 hops, got %d", result.Hops)
	}
	expected := []string{"A", "B"}
	if len(result.Routes) != len(expected) {
		t.Fatalf("expected routes %v, got %v", expected, result.Routes)
	}
	for i := range expected {
		if result.Routes[i] != expected[i] {
			t.Fatalf("expected routes %v, got %v", expected, result.Routes)
		}
	}
}

func TestResultFromHopsConsecutiveSameRoute(t *testing.T) {
	hops := dataobjects.PathHops{
		{LocationID: "X"},
		{LocationID: "Y", RouteID: "A"},
		{LocationID: "Z", RouteID: "A"},
	}
	result := resultFromHops(hops)
	if result.Hops != 1 {
		t.Errorf("expected 1 hop, got %d", result.Hops)
	}
}

func TestResultFromHopsSingleNode(t *testing.T) {
	// a path from a location to itself rides no route at all
	hops := dataobjects.PathHops{{LocationID: "X"}}
	result := resultFromHops(hops)
	if result.Hops != 0 {
		t.Errorf("expected 0 hops, got %d", result.Hops)
	}
	if len(result.Routes) != 0 {
		t.Errorf("expected no routes, got %v", result.Routes)
	}
}
