package dispatch

import (
	"testing"

	"github.com/partsrunner/dispatchd/dataobjects"
	"github.com/partsrunner/dispatchd/routing"
)

func pathOf(hops ...dataobjects.PathHop) *routing.PathResult {
	routes := []string{}
	for _, hop := range hops[1:] {
		if len(routes) == 0 || routes[len(routes)-1] != hop.RouteID {
			routes = append(routes, hop.RouteID)
		}
	}
	return &routing.PathResult{
		Path:   dataobjects.PathHops(hops),
		Routes: routes,
		Hops:   len(routes),
	}
}

func TestPlanSegmentsSingleLeg(t *testing.T) {
	path := pathOf(
		dataobjects.PathHop{LocationID: "A"},
		dataobjects.PathHop{LocationID: "B", RouteID: "north"},
		dataobjects.PathHop{LocationID: "C", RouteID: "north"},
	)
	specs := PlanSegments(path)
	if len(specs) != 1 {
		t.Fatalf("expected 1 segment, got %d", len(specs))
	}
	if specs[0].OriginID != "A" || specs[0].DestinationID != "C" || specs[0].RouteID != "north" {
		t.Errorf("unexpected segment %+v", specs[0])
	}
}

func TestPlanSegmentsTwoLegs(t *testing.T) {
	path := pathOf(
		dataobjects.PathHop{LocationID: "A"},
		dataobjects.PathHop{LocationID: "B", RouteID: "north"},
		dataobjects.PathHop{LocationID: "C", RouteID: "north"},
		dataobjects.PathHop{LocationID: "D", RouteID: "south"},
	)
	specs := PlanSegments(path)
	if len(specs) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(specs))
	}
	if specs[0].OriginID != "A" || specs[0].DestinationID != "C" || specs[0].RouteID != "north" {
		t.Errorf("unexpected first segment %+v", specs[0])
	}
	if specs[1].OriginID != "C" || specs[1].DestinationID != "D" || specs[1].RouteID != "south" {
		t.Errorf("unexpected second segment %+v", specs[1])
	}
}

func TestPlanSegmentsContiguity(t *testing.T) {
	path := pathOf(
		dataobjects.PathHop{LocationID: "A"},
		dataobjects.PathHop{LocationID: "B", RouteID: "r1"},
		dataobjects.PathHop{LocationID: "C", RouteID: "r2"},
		dataobjects.PathHop{LocationID: "D", RouteID: "r2"},
		dataobjects.PathHop{LocationID: "E", RouteID: "r3"},
	)
	specs := PlanSegments(path)
	if len(specs) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(specs))
	}
	if specs[0].OriginID != "A" {
		t.Errorf("first segment must start at the request origin, got %s", specs[0].OriginID)
	}
	if specs[len(specs)-1].DestinationID != "E" {
		t.Errorf("last segment must end at the request destination, got %s", specs[len(specs)-1].DestinationID)
	}
	for i, spec := range specs {
		if spec.Order != i+1 {
			t.Errorf("expected order %d, got %d", i+1, spec.Order)
		}
		if i > 0 && spec.OriginID != specs[i-1].DestinationID {
			t.Errorf("segment %d does not start where segment %d ends", i+1, i)
		}
	}
}

func TestPlanSegmentsDegenerate(t *testing.T) {
	if specs := PlanSegments(nil); specs != nil {
		t.Errorf("expected nil for a nil path, got %v", specs)
	}
	single := &routing.PathResult{
		Path: dataobjects.PathHops{{LocationID: "A"}},
	}
	if specs := PlanSegments(single); specs != nil {
		t.Errorf("expected nil for a single-node path, got %v", specs)
	}
}
