package routing

import (
	"testing"
)

func linearRoute(routeID string, locationIDs ...string) []TopologyStop {
	stops := make([]TopologyStop, len(locationIDs))
	for i, id := range locationIDs {
		stops[i] = TopologyStop{
			RouteID:     routeID,
			Order:       i + 1,
			LocationIDs: []string{id},
		}
	}
	return stops
}

func pathLocations(path []Edge) []string {
	ids := make([]string, len(path))
	for i, edge := range path {
		ids[i] = edge.LocationID
	}
	return ids
}

func TestShortestPathDirect(t *testing.T) {
	g := BuildGraph(linearRoute("north", "A", "B", "C"))

	path := g.ShortestPath("A", "C")
	if path == nil {
		t.Fatal("expected a path from A to C")
	}
	expected := []string{"A", "B", "C"}
	got := pathLocations(path)
	if len(got) != len(expected) {
		t.Fatalf("expected path %v, got %v", expected, got)
	}
	for i := range expected {
		if got[i] != expected[i] {
			t.Fatalf("expected path %v, got %v", expected, got)
		}
	}
	if path[0].RouteID != "" {
		t.Errorf("first hop should not carry a route, got %s", path[0].RouteID)
	}
	for _, edge := range path[1:] {
		if edge.RouteID != "north" {
			t.Errorf("expected route north on hop to %s, got %s", edge.LocationID, edge.RouteID)
		}
	}
}

func TestShortestPathTransfer(t *testing.T) {
	stops := append(linearRoute("north", "A", "B", "C"),
		linearRoute("south", "C", "D", "E")...)
	g := BuildGraph(stops)

	path := g.ShortestPath("A", "E")
	if path == nil {
		t.Fatal("expected a path from A to E")
	}
	got := pathLocations(path)
	expected := []string{"A", "B", "C", "D", "E"}
	if len(got) != len(expected) {
		t.Fatalf("expected path %v, got %v", expected, got)
	}
	if path[2].RouteID != "north" {
		t.Errorf("hop to C should ride north, got %s", path[2].RouteID)
	}
	if path[3].RouteID != "south" {
		t.Errorf("hop to D should ride south, got %s", path[3].RouteID)
	}
}

func TestShortestPathPrefersFewerStops(t *testing.T) {
	stops := append(linearRoute("slow", "A", "B", "C", "D"),
		linearRoute("express", "A", "D")...)
	g := BuildGraph(stops)

	path := g.ShortestPath("A", "D")
	if path == nil {
		t.Fatal("expected a path from A to D")
	}
	if len(path) != 2 {
		t.Fatalf("expected the 1-hop express path, got %v", pathLocations(path))
	}
	if path[1].RouteID != "express" {
		t.Errorf("expected route express, got %s", path[1].RouteID)
	}
}

func TestShortestPathTieBreak(t *testing.T) {
	// two routes serve A -> B with the same hop count, the first one
	// added to the topology wins
	stops := append(linearRoute("first", "A", "B"),
		linearRoute("second", "A", "B")...)
	g := BuildGraph(stops)

	path := g.ShortestPath("A", "B")
	if path == nil {
		t.Fatal("expected a path from A to B")
	}
	if path[1].RouteID != "first" {
		t.Errorf("expected the first enqueued route to win, got %s", path[1].RouteID)
	}
}

func TestShortestPathUnreachable(t *testing.T) {
	stops := append(linearRoute("north", "A", "B"),
		linearRoute("south", "C", "D")...)
	g := BuildGraph(stops)

	if path := g.ShortestPath("A", "D"); path != nil {
		t.Errorf("expected no path between disconnected routes, got %v", pathLocations(path))
	}
	if path := g.ShortestPath("A", "Z"); path != nil {
		t.Errorf("expected no path to an unknown location, got %v", pathLocations(path))
	}
	if path := g.ShortestPath("Z", "A"); path != nil {
		t.Errorf("expected no path from an unknown location, got %v", pathLocations(path))
	}
}

func TestShortestPathSameLocation(t *testing.T) {
	g := BuildGraph(linearRoute("north", "A", "B"))

	path := g.ShortestPath("A", "A")
	if len(path) != 1 || path[0].LocationID != "A" {
		t.Fatalf("expected the single-node path, got %v", pathLocations(path))
	}
}

func TestShortestPathDirectionality(t *testing.T) {
	g := BuildGraph(linearRoute("north", "A", "B", "C"))

	if path := g.ShortestPath("C", "A"); path != nil {
		t.Errorf("routes are directed, expected no backwards path, got %v", pathLocations(path))
	}
}

func TestBuildGraphVendorCluster(t *testing.T) {
	stops := []TopologyStop{
		{RouteID: "vendors", Order: 1, LocationIDs: []string{"shop"}},
		{RouteID: "vendors", Order: 2, LocationIDs: []string{"v1", "v2"}},
		{RouteID: "vendors", Order: 3, LocationIDs: []string{"warehouse"}},
	}
	g := BuildGraph(stops)

	for _, vendor := range []string{"v1", "v2"} {
		path := g.ShortestPath("shop", vendor)
		if len(path) != 2 {
			t.Errorf("expected a 1-hop path from shop to %s, got %v", vendor, pathLocations(path))
		}
		path = g.ShortestPath(vendor, "warehouse")
		if len(path) != 2 {
			t.Errorf("expected a 1-hop path from %s to warehouse, got %v", vendor, pathLocations(path))
		}
	}
	path := g.ShortestPath("shop", "warehouse")
	if len(path) != 3 {
		t.Errorf("expected a 2-hop path through the cluster, got %v", pathLocations(path))
	}
}

func TestBuildGraphNoSelfEdges(t *testing.T) {
	// the same location appearing in consecutive cluster stops must not
	// produce an edge to itself
	stops := []TopologyStop{
		{RouteID: "vendors", Order: 1, LocationIDs: []string{"v1", "v2"}},
		{RouteID: "vendors", Order: 2, LocationIDs: []string{"v2", "v3"}},
	}
	g := BuildGraph(stops)

	for _, edge := range g.Neighbors("v2") {
		if edge.LocationID == "v2" {
			t.Error("found a self edge on v2")
		}
	}
}

func TestBuildGraphRouteBoundary(t *testing.T) {
	// the last stop of one route and the first stop of the next are not
	// connected just because they are adjacent in the input
	stops := append(linearRoute("north", "A", "B"),
		linearRoute("south", "C", "D")...)
	g := BuildGraph(stops)

	for _, edge := range g.Neighbors("B") {
		if edge.LocationID == "C" {
			t.Error("found an edge across the route boundary")
		}
	}
}
